package httpinterface_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/bookswap/internal/core/application/auction"
	"github.com/tdex-network/bookswap/internal/core/application/compatibility"
	"github.com/tdex-network/bookswap/internal/core/application/pubsub"
	"github.com/tdex-network/bookswap/internal/core/application/sweeper"
	"github.com/tdex-network/bookswap/internal/core/domain"
	"github.com/tdex-network/bookswap/internal/core/ports"
	webhookpubsub "github.com/tdex-network/bookswap/internal/infrastructure/pubsub/webhook"
	"github.com/tdex-network/bookswap/internal/infrastructure/storage/db/inmemory"
	httpinterface "github.com/tdex-network/bookswap/internal/interfaces/http"
)

const authSecret = "0123456789abcdef0123456789abcdef"

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

type mockEscrowService struct {
	mock.Mock
}

func (m *mockEscrowService) CreateEscrow(
	ctx context.Context, req ports.EscrowRequest,
) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockEscrowService) ReleaseEscrow(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockEscrowService) RefundEscrow(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func listing() domain.ListingProfile {
	checkIn := time.Now().AddDate(0, 2, 0).Truncate(24 * time.Hour)
	return domain.ListingProfile{
		Location:          domain.Location{City: "Lisbon", Country: "PT"},
		CheckIn:           checkIn,
		CheckOut:          checkIn.AddDate(0, 0, 4),
		Value:             decimal.NewFromInt(800),
		AccommodationType: "apartment",
		Rating:            4.2,
		Guests:            2,
	}
}

func newTestApp(t *testing.T) *iris.Application {
	bookings := &mockBookingService{}
	for _, user := range []string{"owner", "alice", "bob"} {
		bookings.On("GetBooking", mock.Anything, "booking-"+user).
			Return(&ports.Booking{
				ID: "booking-" + user, OwnerID: user, Listing: listing(),
			}, nil)
	}
	// carol's booking can be registered but is unreachable afterwards.
	bookings.On("GetBooking", mock.Anything, "booking-carol").
		Return(&ports.Booking{
			ID: "booking-carol", OwnerID: "carol", Listing: listing(),
		}, nil).Once()
	bookings.On("GetBooking", mock.Anything, "booking-carol").
		Return(nil, errors.New("booking service unavailable"))
	escrow := &mockEscrowService{}
	escrow.On("CreateEscrow", mock.Anything, mock.Anything).Return("escrow", nil)
	escrow.On("ReleaseEscrow", mock.Anything, mock.Anything).Return(nil)
	escrow.On("RefundEscrow", mock.Anything, mock.Anything).Return(nil)

	webhooks, err := webhookpubsub.NewService("", nil)
	require.NoError(t, err)
	pubsubSvc := pubsub.NewService(webhooks)
	t.Cleanup(pubsubSvc.Close)

	repo := inmemory.NewRepoManager()
	auctionSvc, err := auction.NewService(repo, bookings, escrow, pubsubSvc, nil, nil)
	require.NoError(t, err)
	compatibilitySvc, err := compatibility.NewService(repo.SwapRepository(), bookings)
	require.NoError(t, err)
	sweeperSvc, err := sweeper.NewService(repo.AuctionRepository(), auctionSvc, 1, nil)
	require.NoError(t, err)

	app, err := httpinterface.NewRouter(httpinterface.ServiceOpts{
		AuthSecret:       authSecret,
		AdminUsers:       []string{"operator"},
		AuctionSvc:       auctionSvc,
		CompatibilitySvc: compatibilitySvc,
		SweeperSvc:       sweeperSvc,
		PubSubSvc:        pubsubSvc,
	})
	require.NoError(t, err)
	return app
}

func token(t *testing.T, userID string) string {
	claims := httpinterface.Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(authSecret))
	require.NoError(t, err)
	return signed
}

type response struct {
	code   int
	header http.Header
	body   map[string]interface{}
}

func do(
	t *testing.T, app *iris.Application, method, path, userID string,
	body interface{}, headers map[string]string,
) response {
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	res := response{code: rec.Code, header: rec.Header()}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res.body))
	}
	return res
}

func TestAuth(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	res := do(t, app, http.MethodGet, "/v1/swaps/unknown", "", nil, nil)
	require.Equal(t, http.StatusUnauthorized, res.code)
	require.Equal(t, "unauthenticated", res.body["error"])
	require.NotEmpty(t, res.header.Get("X-Request-Id"))

	res = do(t, app, http.MethodGet, "/v1/swaps/unknown", "", nil, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	require.Equal(t, http.StatusUnauthorized, res.code)

	res = do(t, app, http.MethodGet, "/v1/swaps/unknown", "alice", nil, nil)
	require.Equal(t, http.StatusNotFound, res.code)
	require.Equal(t, "not_found", res.body["error"])

	res = do(t, app, http.MethodPost, "/v1/admin/sweep", "alice", nil, nil)
	require.Equal(t, http.StatusForbidden, res.code)

	res = do(t, app, http.MethodPost, "/v1/admin/sweep", "operator", nil, nil)
	require.Equal(t, http.StatusOK, res.code)
	require.Empty(t, res.body["resolved"])
}

func TestAuctionFlow(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	res := do(t, app, http.MethodPost, "/v1/swaps", "owner", map[string]interface{}{
		"source_booking_id":        "booking-owner",
		"booking_exchange_allowed": true,
		"cash_allowed":             true,
		"minimum_cash_amount":      "100",
		"listed":                   true,
	}, nil)
	require.Equal(t, http.StatusCreated, res.code)
	swapID := res.body["id"].(string)
	require.Equal(t, "pending", res.body["status"])

	res = do(t, app, http.MethodPost, "/v1/swaps", "bob", map[string]interface{}{
		"source_booking_id":        "booking-bob",
		"booking_exchange_allowed": true,
		"listed":                   true,
	}, nil)
	require.Equal(t, http.StatusCreated, res.code)
	bobSwapID := res.body["id"].(string)

	res = do(t, app, http.MethodGet,
		"/v1/swaps/"+swapID+"/compatibility/"+bobSwapID, "alice", nil, nil)
	require.Equal(t, http.StatusOK, res.code)
	require.Equal(t, "highly_recommended", res.body["tier"])
	require.Len(t, res.body["factors"], len(domain.Factors))

	res = do(t, app, http.MethodPost, "/v1/swaps/"+swapID+"/auction", "owner",
		map[string]interface{}{
			"end_date":                time.Now().Add(24 * time.Hour),
			"allow_booking_proposals": true,
			"allow_cash_proposals":    true,
			"minimum_cash_offer":      "200",
			"auto_select_after_hours": 12,
		}, nil)
	require.Equal(t, http.StatusCreated, res.code)
	auctionID := res.body["id"].(string)
	require.Equal(t, "active", res.body["status"])

	proposalsPath := "/v1/auctions/" + auctionID + "/proposals"

	res = do(t, app, http.MethodPost, proposalsPath, "alice", map[string]interface{}{
		"type": "barter",
	}, nil)
	require.Equal(t, http.StatusBadRequest, res.code)
	require.Equal(t, "validation", res.body["error"])

	cash := func(amount string) map[string]interface{} {
		return map[string]interface{}{
			"type":              "cash",
			"amount":            amount,
			"currency":          "EUR",
			"payment_method_id": "pm",
			"escrow_agreed":     true,
		}
	}

	res = do(t, app, http.MethodPost, proposalsPath, "alice", cash("150"), nil)
	require.Equal(t, http.StatusBadRequest, res.code)

	retry := map[string]string{"Idempotency-Key": "alice-1"}
	res = do(t, app, http.MethodPost, proposalsPath, "alice", cash("250"), retry)
	require.Equal(t, http.StatusCreated, res.code)
	aliceProposalID := res.body["id"].(string)

	res = do(t, app, http.MethodPost, proposalsPath, "alice", cash("250"), retry)
	require.Equal(t, http.StatusCreated, res.code)
	require.Equal(t, aliceProposalID, res.body["id"])

	res = do(t, app, http.MethodPost, proposalsPath, "bob", cash("300"), nil)
	require.Equal(t, http.StatusCreated, res.code)
	bobProposalID := res.body["id"].(string)
	require.EqualValues(t, 2, res.body["sequence"])

	res = do(t, app, http.MethodGet, proposalsPath, "owner", nil, nil)
	require.Equal(t, http.StatusOK, res.code)
	proposals := res.body["proposals"].([]interface{})
	require.Len(t, proposals, 2)
	require.Equal(t, bobProposalID, proposals[0].(map[string]interface{})["id"])

	res = do(t, app, http.MethodGet, proposalsPath, "alice", nil, nil)
	require.Equal(t, http.StatusOK, res.code)
	require.Len(t, res.body["proposals"], 1)

	winnerPath := "/v1/auctions/" + auctionID + "/winner"
	res = do(t, app, http.MethodPost, winnerPath, "owner", map[string]interface{}{
		"proposal_id": bobProposalID,
	}, nil)
	require.Equal(t, http.StatusConflict, res.code)
	require.Equal(t, "conflict", res.body["error"])

	res = do(t, app, http.MethodPost, "/v1/auctions/"+auctionID+"/end", "alice", nil, nil)
	require.Equal(t, http.StatusForbidden, res.code)

	res = do(t, app, http.MethodPost, "/v1/auctions/"+auctionID+"/end", "owner", nil, nil)
	require.Equal(t, http.StatusOK, res.code)
	require.Equal(t, "ended", res.body["status"])

	res = do(t, app, http.MethodPost, winnerPath, "owner", map[string]interface{}{
		"proposal_id": bobProposalID,
	}, nil)
	require.Equal(t, http.StatusOK, res.code)
	require.Equal(t, bobProposalID, res.body["winning_proposal_id"])
	require.Equal(t, true, res.body["settled"])

	res = do(t, app, http.MethodPost, winnerPath, "owner", map[string]interface{}{
		"proposal_id": aliceProposalID,
	}, nil)
	require.Equal(t, http.StatusConflict, res.code)
	state := res.body["state"].(map[string]interface{})
	require.Equal(t, bobProposalID, state["winning_proposal_id"])

	res = do(t, app, http.MethodGet, "/v1/swaps/"+swapID, "owner", nil, nil)
	require.Equal(t, http.StatusOK, res.code)
	require.Equal(t, "accepted", res.body["status"])
	require.Equal(t, "bob", res.body["proposer_id"])

	res = do(t, app, http.MethodGet, "/v1/admin/auctions?page=1&size=10", "operator", nil, nil)
	require.Equal(t, http.StatusOK, res.code)
	require.Len(t, res.body["auctions"], 1)
}

func TestWebhookRoutes(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	res := do(t, app, http.MethodPost, "/v1/admin/webhooks", "operator",
		map[string]interface{}{
			"event":    pubsub.EventWinnerSelected,
			"endpoint": "http://127.0.0.1:9999/hook",
		}, nil)
	require.Equal(t, http.StatusCreated, res.code)
	id := res.body["id"].(string)

	res = do(t, app, http.MethodPost, "/v1/admin/webhooks", "operator",
		map[string]interface{}{"event": "UNKNOWN", "endpoint": "http://hook"}, nil)
	require.Equal(t, http.StatusBadRequest, res.code)

	res = do(t, app, http.MethodGet, "/v1/admin/webhooks", "operator", nil, nil)
	require.Equal(t, http.StatusOK, res.code)
	require.Len(t, res.body["webhooks"], 1)

	res = do(t, app, http.MethodDelete, "/v1/admin/webhooks/"+id, "operator", nil, nil)
	require.Equal(t, http.StatusNoContent, res.code)

	res = do(t, app, http.MethodDelete, "/v1/admin/webhooks/"+id, "operator", nil, nil)
	require.Equal(t, http.StatusNotFound, res.code)
}

func TestIntegrationFailure(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	res := do(t, app, http.MethodPost, "/v1/swaps", "carol", map[string]interface{}{
		"source_booking_id":        "booking-carol",
		"booking_exchange_allowed": true,
		"listed":                   true,
	}, nil)
	require.Equal(t, http.StatusCreated, res.code)
	carolSwapID := res.body["id"].(string)

	res = do(t, app, http.MethodPost, "/v1/swaps", "bob", map[string]interface{}{
		"source_booking_id":        "booking-bob",
		"booking_exchange_allowed": true,
		"listed":                   true,
	}, nil)
	require.Equal(t, http.StatusCreated, res.code)
	bobSwapID := res.body["id"].(string)

	res = do(t, app, http.MethodGet,
		"/v1/swaps/"+carolSwapID+"/compatibility/"+bobSwapID, "alice", nil, nil)
	require.Equal(t, http.StatusInternalServerError, res.code)
	require.Equal(t, "integration", res.body["error"])
	require.Contains(t, res.body["message"], "booking service unavailable")
}
