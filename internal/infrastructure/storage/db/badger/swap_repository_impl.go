package dbbadger

import (
	"context"
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/bookswap/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type swapRepositoryImpl struct {
	store *badgerhold.Store
	// badger holds an exclusive lock on its datadir, so serializing the
	// updates in process serializes them globally.
	lock *sync.Mutex
}

// NewSwapRepositoryImpl returns a SwapRepository backed by the given store.
func NewSwapRepositoryImpl(store *badgerhold.Store) domain.SwapRepository {
	return &swapRepositoryImpl{store, &sync.Mutex{}}
}

func (r *swapRepositoryImpl) AddSwap(
	_ context.Context, swap *domain.SwapOffer,
) error {
	if err := r.store.Insert(swap.ID, *swap); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrSwapAlreadyExists
		}
		return err
	}
	return nil
}

func (r *swapRepositoryImpl) GetSwap(
	_ context.Context, swapID string,
) (*domain.SwapOffer, error) {
	var swap domain.SwapOffer
	if err := r.store.Get(swapID, &swap); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrSwapNotFound
		}
		return nil, err
	}
	return &swap, nil
}

func (r *swapRepositoryImpl) UpdateSwap(
	_ context.Context,
	swapID string,
	updateFn func(s *domain.SwapOffer) (*domain.SwapOffer, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	return update(r.store, func(tx *badger.Txn) error {
		var swap domain.SwapOffer
		if err := r.store.TxGet(tx, swapID, &swap); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrSwapNotFound
			}
			return err
		}

		updatedSwap, err := updateFn(&swap)
		if err != nil {
			return err
		}
		return r.store.TxUpdate(tx, swapID, *updatedSwap)
	})
}
