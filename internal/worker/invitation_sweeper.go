package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron"
)

// Expirer relabels pending invitations whose window has passed.
type Expirer interface {
	ExpireInvitations(ctx context.Context) (int64, error)
}

// InvitationSweeper runs the expiry pass on a cron schedule. Schedules use
// the six-field robfig/cron syntax or descriptors such as "@every 15m".
type InvitationSweeper struct {
	expirer Expirer
	cron    *cron.Cron
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

func NewInvitationSweeper(expirer Expirer, schedule string) (*InvitationSweeper, error) {
	if expirer == nil {
		return nil, errors.New("expirer cannot be nil")
	}

	s := &InvitationSweeper{
		expirer: expirer,
		cron:    cron.New(),
		timeout: time.Minute,
	}
	if err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *InvitationSweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	slog.Info("invitation sweeper started")
}

func (s *InvitationSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.cron.Stop()
	slog.Info("invitation sweeper stopped")
}

// RunOnce performs a single expiry pass.
func (s *InvitationSweeper) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.expirer.ExpireInvitations(ctx)
	if err != nil {
		return 0, fmt.Errorf("expiring invitations: %w", err)
	}
	return n, nil
}

func (s *InvitationSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.RunOnce(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "invitation sweep failed", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "expired stale invitations", "count", n)
	}
}
