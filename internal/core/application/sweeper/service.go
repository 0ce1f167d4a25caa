package sweeper

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/bookswap/internal/core/application"
	"github.com/tdex-network/bookswap/internal/core/application/auction"
	"github.com/tdex-network/bookswap/internal/core/domain"
	"github.com/tdex-network/bookswap/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// TimeoutHandler resolves a single auction according to the wall clock.
type TimeoutHandler interface {
	HandleTimeout(ctx context.Context, auctionID string) (*auction.ResolvedAuction, error)
}

// Service finds the auctions whose end date passed, or whose outcome is not
// settled yet, and resolves them. It can be triggered on demand with Sweep
// or run periodically with Start.
type Service struct {
	repo        domain.AuctionRepository
	handler     TimeoutHandler
	concurrency int
	now         func() time.Time

	lock    sync.Mutex
	running bool
	quit    chan struct{}
	done    chan struct{}
}

func NewService(
	repo domain.AuctionRepository, handler TimeoutHandler, concurrency int,
	clock func() time.Time,
) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("missing auction repository")
	}
	if handler == nil {
		return nil, fmt.Errorf("missing timeout handler")
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:        repo,
		handler:     handler,
		concurrency: concurrency,
		now:         clock,
	}, nil
}

// Sweep resolves every due auction, at most concurrency at a time, and
// returns those that changed. A failure on one auction does not stop the
// others; the first error is returned along with the resolved list.
func (s *Service) Sweep(ctx context.Context) ([]auction.ResolvedAuction, error) {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	auctions, err := s.repo.GetAuctionsToResolve(ctx, s.now())
	if err != nil {
		return nil, application.WrapError(err, nil)
	}
	if len(auctions) == 0 {
		return []auction.ResolvedAuction{}, nil
	}
	log.Debugf("sweeping %d auctions", len(auctions))

	var mu sync.Mutex
	resolved := make([]auction.ResolvedAuction, 0, len(auctions))

	eg := &errgroup.Group{}
	eg.SetLimit(s.concurrency)
	for i := range auctions {
		auctionID := auctions[i].ID
		eg.Go(func() error {
			res, err := s.handler.HandleTimeout(ctx, auctionID)
			if err != nil {
				log.WithError(err).Warnf("failed to resolve auction %s", auctionID)
				return fmt.Errorf("auction %s: %w", auctionID, err)
			}
			if res.Outcome == domain.TimeoutNoop {
				return nil
			}
			mu.Lock()
			resolved = append(resolved, *res)
			mu.Unlock()
			return nil
		})
	}
	err = eg.Wait()

	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].AuctionID < resolved[j].AuctionID
	})
	return resolved, err
}

// Start runs Sweep every interval in background until Stop is called.
func (s *Service) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.quit = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(interval, s.quit, s.done)
	log.Infof("timeout sweeper started with interval %s", interval)
	return nil
}

// Stop stops the periodic sweep and waits for the current one to complete.
func (s *Service) Stop() {
	s.lock.Lock()
	if !s.running {
		s.lock.Unlock()
		return
	}
	s.running = false
	close(s.quit)
	done := s.done
	s.lock.Unlock()

	<-done
	log.Info("timeout sweeper stopped")
}

func (s *Service) loop(interval time.Duration, quit, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			resolved, err := s.Sweep(ctx)
			cancel()
			if err != nil {
				log.WithError(err).Warn("timeout sweep completed with errors")
			}
			if len(resolved) > 0 {
				log.Infof("timeout sweep resolved %d auctions", len(resolved))
			}
		}
	}
}
