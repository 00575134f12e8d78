package service

import (
	"context"
	"fmt"

	"github.com/sakif/cookbook/internal/access"
	"github.com/sakif/cookbook/internal/model"
	"github.com/sakif/cookbook/internal/repository"
)

const dashboardRecipeLimit = 5

// DashboardService composes the signed-in landing page and the admin overview.
type DashboardService struct {
	users         repository.UserRepository
	recipes       repository.RecipeRepository
	saved         repository.SavedRecipeRepository
	notifications repository.NotificationRepository
	stats         repository.StatsRepository
}

func NewDashboardService(
	users repository.UserRepository,
	recipes repository.RecipeRepository,
	saved repository.SavedRecipeRepository,
	notifications repository.NotificationRepository,
	stats repository.StatsRepository,
) *DashboardService {
	return &DashboardService{
		users:         users,
		recipes:       recipes,
		saved:         saved,
		notifications: notifications,
		stats:         stats,
	}
}

type Dashboard struct {
	User          *model.User           `json:"user"`
	RecentRecipes []model.RecipeSummary `json:"recentRecipes"`
	RecipeCount   int                   `json:"recipeCount"`
	SavedCount    int                   `json:"savedCount"`
	UnreadCount   int                   `json:"unreadCount"`
}

// Dashboard returns the actor's own recent recipes and counters.
func (s *DashboardService) Dashboard(ctx context.Context, actor *model.User) (*Dashboard, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	filter := repository.RecipeFilter{
		ListOptions: repository.ListOptions{Limit: dashboardRecipeLimit},
		UserID:      actor.ID,
	}
	rows, err := s.recipes.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: listing recipes: %w", err)
	}
	count, err := s.recipes.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: counting recipes: %w", err)
	}
	saved, err := s.saved.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: listing saved: %w", err)
	}
	unread, err := s.notifications.CountUnread(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: counting unread: %w", err)
	}

	return &Dashboard{
		User:          actor,
		RecentRecipes: summarizeAll(rows),
		RecipeCount:   count,
		SavedCount:    len(saved),
		UnreadCount:   unread,
	}, nil
}

type AdminOverview struct {
	Counts *repository.SiteCounts `json:"counts"`
	Users  []*model.User          `json:"users"`
}

// Admin returns site-wide counts and the user list. Admin only.
func (s *DashboardService) Admin(ctx context.Context, actor *model.User) (*AdminOverview, error) {
	if err := access.Authorize(actor, access.Read, access.Resource{Kind: access.KindAdminPanel}); err != nil {
		return nil, err
	}

	counts, err := s.stats.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: counting: %w", err)
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: listing users: %w", err)
	}

	projected := make([]*model.User, 0, len(users))
	for i := range users {
		projected = append(projected, users[i].Projection())
	}
	return &AdminOverview{Counts: counts, Users: projected}, nil
}
