package dongle

import (
	"context"
	"errors"
	"time"

	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
)

// PortFinder locates the physical dongle and hands back the raw byte
// pipe the state machine's WaitForDongle state is waiting for. The
// usbscan package is the production implementation.
type PortFinder interface {
	FindDongle(ctx context.Context) (domain.DongleWriter, domain.DongleReader, error)
}

const supervisorRetryDelay = 2 * time.Second

// Supervisor owns the outer retry loop a single Manager session can't own
// itself: it runs one session at a time, and once a session ends (the
// dongle's read channel closed) it finds the dongle again and starts a
// new one. Attempts go through a circuit breaker that opens after three
// consecutive sessions whose dongle lookup or attach failed. A session
// has no deadline: a dongle that stops answering while its channels stay
// open (§7, "dongle hang") is not detected here, and that session lasts
// until ctx is canceled.
type Supervisor struct {
	mgr     *Manager
	finder  PortFinder
	logger  zerolog.Logger
	breaker *gobreaker.CircuitBreaker
}

func NewSupervisor(mgr *Manager, finder PortFinder, logger zerolog.Logger) *Supervisor {
	settings := gobreaker.Settings{
		Name:        "dongle-reconnect",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &Supervisor{
		mgr:     mgr,
		finder:  finder,
		logger:  logger,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Run finds and attaches the dongle, drives it until the session ends
// for any reason, then retries. It returns only when ctx is canceled.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, err := s.breaker.Execute(func() (interface{}, error) {
			return nil, s.runOneSession(ctx)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn().Err(err).Msg("dongle session ended with error, retrying")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(supervisorRetryDelay):
		}
	}
}

func (s *Supervisor) runOneSession(ctx context.Context) error {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(sessionCtx)
	g.Go(func() error {
		s.mgr.Run(gctx)
		return nil
	})

	writer, reader, err := s.finder.FindDongle(gctx)
	if err != nil {
		cancel()
		_ = g.Wait()
		return err
	}

	select {
	case s.mgr.commands <- domain.DongleFoundCommand(writer, reader):
	case <-gctx.Done():
	}

	return g.Wait()
}
