package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tdex-network/bookswap/internal/core/domain"
)

// auctionInmemoryStore guards the auctions map with locker and serializes
// updates of a single auction with its own mutex, so that updates of
// different auctions do not wait for each other.
type auctionInmemoryStore struct {
	auctions map[string]*domain.Auction
	locks    map[string]*sync.Mutex
	locker   *sync.RWMutex
}

type auctionRepositoryImpl struct {
	store *auctionInmemoryStore
}

// NewAuctionRepositoryImpl returns a new inmemory AuctionRepository
// implementation.
func NewAuctionRepositoryImpl() domain.AuctionRepository {
	return &auctionRepositoryImpl{&auctionInmemoryStore{
		auctions: map[string]*domain.Auction{},
		locks:    map[string]*sync.Mutex{},
		locker:   &sync.RWMutex{},
	}}
}

func (r *auctionRepositoryImpl) AddAuction(
	_ context.Context, auction *domain.Auction,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if _, ok := r.store.auctions[auction.ID]; ok {
		return domain.ErrAuctionAlreadyExists
	}
	r.store.auctions[auction.ID] = auction.Clone()
	r.store.locks[auction.ID] = &sync.Mutex{}
	return nil
}

func (r *auctionRepositoryImpl) GetAuction(
	_ context.Context, auctionID string,
) (*domain.Auction, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	auction, ok := r.store.auctions[auctionID]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return auction.Clone(), nil
}

func (r *auctionRepositoryImpl) GetAllAuctions(
	_ context.Context, page *domain.Page,
) ([]*domain.Auction, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	auctions := make([]*domain.Auction, 0, len(r.store.auctions))
	for _, a := range r.store.auctions {
		auctions = append(auctions, a.Clone())
	}
	sort.SliceStable(auctions, func(i, j int) bool {
		return auctions[i].CreatedAt.Before(auctions[j].CreatedAt)
	})
	return page.Apply(auctions), nil
}

func (r *auctionRepositoryImpl) GetAuctionsToResolve(
	_ context.Context, now time.Time,
) ([]*domain.Auction, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	auctions := make([]*domain.Auction, 0)
	for _, a := range r.store.auctions {
		if a.NeedsResolution(now) || a.NeedsSettlement() {
			auctions = append(auctions, a.Clone())
		}
	}
	return auctions, nil
}

func (r *auctionRepositoryImpl) UpdateAuction(
	_ context.Context,
	auctionID string,
	updateFn func(a *domain.Auction) (*domain.Auction, error),
) error {
	r.store.locker.RLock()
	lock, ok := r.store.locks[auctionID]
	r.store.locker.RUnlock()
	if !ok {
		return domain.ErrAuctionNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	r.store.locker.RLock()
	current := r.store.auctions[auctionID].Clone()
	r.store.locker.RUnlock()

	updatedAuction, err := updateFn(current)
	if err != nil {
		return err
	}

	r.store.locker.Lock()
	r.store.auctions[auctionID] = updatedAuction.Clone()
	r.store.locker.Unlock()
	return nil
}
