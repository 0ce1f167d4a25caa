package dbbadger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/bookswap/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type auctionRepositoryImpl struct {
	store *badgerhold.Store
	// badger holds an exclusive lock on its datadir, so serializing the
	// updates in process serializes them globally.
	lock *sync.Mutex
}

// NewAuctionRepositoryImpl returns an AuctionRepository backed by the given
// store. Proposals are persisted within their auction record.
func NewAuctionRepositoryImpl(store *badgerhold.Store) domain.AuctionRepository {
	return &auctionRepositoryImpl{store, &sync.Mutex{}}
}

func (r *auctionRepositoryImpl) AddAuction(
	_ context.Context, auction *domain.Auction,
) error {
	if err := r.store.Insert(auction.ID, *auction); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrAuctionAlreadyExists
		}
		return err
	}
	return nil
}

func (r *auctionRepositoryImpl) GetAuction(
	_ context.Context, auctionID string,
) (*domain.Auction, error) {
	var auction domain.Auction
	if err := r.store.Get(auctionID, &auction); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}
	return &auction, nil
}

func (r *auctionRepositoryImpl) GetAllAuctions(
	_ context.Context, page *domain.Page,
) ([]*domain.Auction, error) {
	auctions, err := r.findAuctions(nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(auctions, func(i, j int) bool {
		return auctions[i].CreatedAt.Before(auctions[j].CreatedAt)
	})
	return page.Apply(auctions), nil
}

func (r *auctionRepositoryImpl) GetAuctionsToResolve(
	_ context.Context, now time.Time,
) ([]*domain.Auction, error) {
	query := badgerhold.Where("Settled").Eq(false)
	auctions, err := r.findAuctions(query)
	if err != nil {
		return nil, err
	}

	due := make([]*domain.Auction, 0, len(auctions))
	for _, a := range auctions {
		if a.NeedsResolution(now) || a.NeedsSettlement() {
			due = append(due, a)
		}
	}
	return due, nil
}

func (r *auctionRepositoryImpl) UpdateAuction(
	_ context.Context,
	auctionID string,
	updateFn func(a *domain.Auction) (*domain.Auction, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	return update(r.store, func(tx *badger.Txn) error {
		var auction domain.Auction
		if err := r.store.TxGet(tx, auctionID, &auction); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrAuctionNotFound
			}
			return err
		}

		updatedAuction, err := updateFn(&auction)
		if err != nil {
			return err
		}
		return r.store.TxUpdate(tx, auctionID, *updatedAuction)
	})
}

func (r *auctionRepositoryImpl) findAuctions(
	query *badgerhold.Query,
) ([]*domain.Auction, error) {
	var list []domain.Auction
	if err := r.store.Find(&list, query); err != nil {
		return nil, err
	}

	auctions := make([]*domain.Auction, 0, len(list))
	for i := range list {
		auctions = append(auctions, &list[i])
	}
	return auctions, nil
}
