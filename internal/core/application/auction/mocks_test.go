package auction_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/bookswap/internal/core/ports"
)

// **** Booking ****

type mockBookingService struct {
	mock.Mock
}

func (m *mockBookingService) GetBooking(
	ctx context.Context, bookingID string,
) (*ports.Booking, error) {
	args := m.Called(ctx, bookingID)

	var res *ports.Booking
	if a := args.Get(0); a != nil {
		res = a.(*ports.Booking)
	}
	return res, args.Error(1)
}

// **** Escrow ****

type mockEscrowService struct {
	mock.Mock
}

func (m *mockEscrowService) CreateEscrow(
	ctx context.Context, req ports.EscrowRequest,
) (string, error) {
	args := m.Called(ctx, req)
	if fn, ok := args.Get(0).(func(context.Context, ports.EscrowRequest) string); ok {
		return fn(ctx, req), args.Error(1)
	}
	return args.String(0), args.Error(1)
}

func (m *mockEscrowService) ReleaseEscrow(
	ctx context.Context, proposalID string,
) error {
	args := m.Called(ctx, proposalID)
	return args.Error(0)
}

func (m *mockEscrowService) RefundEscrow(
	ctx context.Context, proposalID string,
) error {
	args := m.Called(ctx, proposalID)
	return args.Error(0)
}

// **** Clock ****

type fakeClock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}
