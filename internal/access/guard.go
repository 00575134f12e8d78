// Package access decides whether an actor may perform an action on a
// resource. Every service mutation calls Authorize with the resource as it
// is stored, never with ownership taken from the request.
package access

import (
	"github.com/sakif/cookbook/internal/apperror"
	"github.com/sakif/cookbook/internal/model"
)

type Action string

const (
	Create Action = "create"
	Read   Action = "read"
	Update Action = "update"
	Delete Action = "delete"
)

type Kind string

const (
	KindRecipe       Kind = "recipe"
	KindRating       Kind = "rating"
	KindNotification Kind = "notification"
	KindSavedRecipe  Kind = "saved_recipe"
	KindCategory     Kind = "category"
	KindAdminPanel   Kind = "admin_panel"
)

// Denial reasons.
const (
	ReasonAuthRequired = "authentication required"
	ReasonNotOwner     = "not owner and not admin"
	ReasonAdminOnly    = "admin role required"
	ReasonOtherUser    = "cannot access another user's data"
)

// Resource identifies what is being acted on. OwnerID is the stored owner;
// it is empty for Category and AdminPanel, which have no owner.
type Resource struct {
	Kind    Kind
	OwnerID string
}

// Authorize returns nil when actor may perform action on res. Otherwise it
// returns an apperror: ErrUnauthenticated for a nil actor, ErrForbidden for
// everything else.
//
//	Read    recipe, rating, category      public
//	Read    notification, saved recipe    the owner, never anyone else
//	Create  category, any admin panel op  Admin
//	Create  everything else               for oneself
//	Update / Delete                       owner or Admin
func Authorize(actor *model.User, action Action, res Resource) error {
	if action == Read && isPublic(res.Kind) {
		return nil
	}
	if actor == nil {
		return apperror.Unauthenticated(ReasonAuthRequired)
	}

	if res.Kind == KindCategory || res.Kind == KindAdminPanel {
		if actor.IsAdmin() {
			return nil
		}
		return apperror.Forbidden(ReasonAdminOnly)
	}

	switch action {
	case Read:
		if actor.ID == res.OwnerID {
			return nil
		}
		return apperror.Forbidden(ReasonOtherUser)

	case Create:
		if res.OwnerID == "" || actor.ID == res.OwnerID {
			return nil
		}
		return apperror.Forbidden(ReasonOtherUser)

	case Update, Delete:
		if actor.ID == res.OwnerID || actor.IsAdmin() {
			return nil
		}
		return apperror.Forbidden(ReasonNotOwner)
	}

	return apperror.Forbidden(ReasonNotOwner)
}

func isPublic(k Kind) bool {
	switch k {
	case KindRecipe, KindRating, KindCategory:
		return true
	}
	return false
}
