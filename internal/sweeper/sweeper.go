package sweeper

import (
	"context"
	"log"
	"time"

	"cafeteria-backend/config"
	"cafeteria-backend/internal/store"
)

// Service periodically expires date-ranged packages whose end date has
// passed. Create and list operations run the same sweep opportunistically;
// this loop keeps history accurate even when nobody is calling the API.
type Service struct {
	cfg   *config.Config
	store store.Store
}

// NewService creates a new sweeper service.
func NewService(cfg *config.Config, s store.Store) *Service {
	return &Service{cfg: cfg, store: s}
}

// Run starts the sweep loop and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Sweeper.Enabled {
		log.Println("package expiry sweeper is disabled")
		return
	}

	log.Printf("package expiry sweeper running every %s", s.cfg.Sweeper.Interval)
	ticker := time.NewTicker(s.cfg.Sweeper.Interval)
	defer ticker.Stop()

	s.SweepOnce(ctx)
	for {
		select {
		case <-ticker.C:
			s.SweepOnce(ctx)
		case <-ctx.Done():
			log.Println("package expiry sweeper stopped")
			return
		}
	}
}

// SweepOnce expires due packages across every organization.
func (s *Service) SweepOnce(ctx context.Context) {
	n, err := s.store.ExpireDuePackages(ctx, "")
	if err != nil {
		log.Printf("expiry sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("expired %d package(s)", n)
	}
}
