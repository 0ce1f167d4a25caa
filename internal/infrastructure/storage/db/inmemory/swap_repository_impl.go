package inmemory

import (
	"context"
	"sync"

	"github.com/tdex-network/bookswap/internal/core/domain"
)

type swapInmemoryStore struct {
	swaps  map[string]*domain.SwapOffer
	locker *sync.Mutex
}

type swapRepositoryImpl struct {
	store *swapInmemoryStore
}

// NewSwapRepositoryImpl returns a new inmemory SwapRepository implementation.
func NewSwapRepositoryImpl() domain.SwapRepository {
	return &swapRepositoryImpl{&swapInmemoryStore{
		swaps:  map[string]*domain.SwapOffer{},
		locker: &sync.Mutex{},
	}}
}

func (r *swapRepositoryImpl) AddSwap(_ context.Context, swap *domain.SwapOffer) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if _, ok := r.store.swaps[swap.ID]; ok {
		return domain.ErrSwapAlreadyExists
	}
	r.store.swaps[swap.ID] = swap.Clone()
	return nil
}

func (r *swapRepositoryImpl) GetSwap(
	_ context.Context, swapID string,
) (*domain.SwapOffer, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	swap, ok := r.store.swaps[swapID]
	if !ok {
		return nil, domain.ErrSwapNotFound
	}
	return swap.Clone(), nil
}

func (r *swapRepositoryImpl) UpdateSwap(
	_ context.Context,
	swapID string,
	updateFn func(s *domain.SwapOffer) (*domain.SwapOffer, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	swap, ok := r.store.swaps[swapID]
	if !ok {
		return domain.ErrSwapNotFound
	}

	updatedSwap, err := updateFn(swap.Clone())
	if err != nil {
		return err
	}
	r.store.swaps[swapID] = updatedSwap.Clone()
	return nil
}
