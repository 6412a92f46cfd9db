package service

import (
	"context"

	"github.com/marzelet/intern-registry/internal/core/domain"
	"github.com/marzelet/intern-registry/internal/core/ports"
)

// DashboardService recomputes admin statistics from the current registry
// snapshot on every call; nothing is cached.
type DashboardService struct {
	registry ports.RegistryService
}

func NewDashboardService(registry ports.RegistryService) *DashboardService {
	return &DashboardService{registry: registry}
}

func (s *DashboardService) Stats(ctx context.Context, session *domain.Session) (domain.Stats, error) {
	profiles, err := s.registry.ListAll(ctx, session)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.Summarize(profiles), nil
}
