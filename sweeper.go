package authcore

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// SweepExpiredSessions terminates every active session whose lifetime
// has elapsed, marking each with reason "Session Expired". Returns how
// many sessions were swept.
func (c *Coordinator) SweepExpiredSessions(ctx context.Context) (int, error) {
	swept, err := c.sessions.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		return swept, err
	}

	if swept > 0 {
		c.metrics.Add(MetricSessionSwept, uint64(swept))
		c.emitAudit(ctx, AuditEvent{
			Action:      AuditActionSystemEvent,
			EntityType:  "Session",
			Description: fmt.Sprintf("expiry sweep terminated %d sessions", swept),
			Success:     true,
		})
	}
	return swept, nil
}

// Sweeper periodically runs the expiry sweep in the background.
//
// Sweeper instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Sweeper struct {
	coordinator *Coordinator
	interval    time.Duration
	done        chan struct{}
	wg          sync.WaitGroup
	stopOnce    sync.Once
	started     bool
}

// NewSweeper describes the newsweeper operation and its observable behavior.
//
// NewSweeper does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewSweeper(coordinator *Coordinator, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = coordinator.config.Session.SweepInterval
	}
	return &Sweeper{
		coordinator: coordinator,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

// Start launches the background sweep loop. Calling Start twice is a
// programming error.
func (s *Sweeper) Start() {
	if s.started {
		return
	}
	s.started = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.coordinator.SweepExpiredSessions(context.Background()); err != nil {
					log.Printf("authcore: session sweep failed: %v", err)
				}
			case <-s.done:
				return
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}
