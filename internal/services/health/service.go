package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB      Pinger
	Timeout time.Duration
}

// NewService constructs a new health service. db may be nil when running on
// in-memory repositories.
func NewService(db Pinger) *Service {
	return &Service{DB: db, Timeout: 2 * time.Second}
}

// Status reports overall health and per-dependency checks.
func (s *Service) Status(ctx context.Context) (bool, map[string]string) {
	checks := map[string]string{}
	ok := true
	if s.DB == nil {
		checks["database"] = "memory"
		return ok, checks
	}
	pingCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		checks["database"] = "unreachable"
		ok = false
	} else {
		checks["database"] = "ok"
	}
	return ok, checks
}
