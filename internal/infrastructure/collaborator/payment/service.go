package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/bookswap/internal/core/ports"
	"github.com/tdex-network/bookswap/pkg/httputil"
)

type createEscrowRequest struct {
	ProposalID      string          `json:"proposal_id"`
	AuctionID       string          `json:"auction_id"`
	PayerID         string          `json:"payer_id"`
	PayeeID         string          `json:"payee_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PaymentMethodID string          `json:"payment_method_id"`
}

type createEscrowResponse struct {
	EscrowID string `json:"escrow_id"`
}

type service struct {
	client *httputil.Client
}

// NewService returns an EscrowService talking to the payment service exposed
// at baseURL. The proposal id is used as idempotency key of every call.
func NewService(
	baseURL string, timeout time.Duration, rps int, apiKey string,
) (ports.EscrowService, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid payment service url: %w", err)
	}
	var header map[string]string
	if apiKey != "" {
		header = map[string]string{"X-Api-Key": apiKey}
	}
	return &service{
		httputil.NewClient("payment", baseURL, timeout, rps, header),
	}, nil
}

func (s *service) CreateEscrow(
	ctx context.Context, req ports.EscrowRequest,
) (string, error) {
	var resp createEscrowResponse
	if err := s.client.Do(
		ctx, http.MethodPost, "/v1/escrows", createEscrowRequest{
			ProposalID:      req.ProposalID,
			AuctionID:       req.AuctionID,
			PayerID:         req.PayerID,
			PayeeID:         req.PayeeID,
			Amount:          req.Amount,
			Currency:        req.Currency,
			PaymentMethodID: req.PaymentMethodID,
		}, &resp,
	); err != nil {
		return "", err
	}
	if resp.EscrowID == "" {
		return "", fmt.Errorf("payment service returned empty escrow id")
	}
	return resp.EscrowID, nil
}

func (s *service) ReleaseEscrow(ctx context.Context, proposalID string) error {
	return s.client.Do(ctx, http.MethodPost, escrowPath(proposalID, "release"), nil, nil)
}

func (s *service) RefundEscrow(ctx context.Context, proposalID string) error {
	return s.client.Do(ctx, http.MethodPost, escrowPath(proposalID, "refund"), nil, nil)
}

func escrowPath(proposalID, action string) string {
	return fmt.Sprintf("/v1/escrows/%s/%s", url.PathEscape(proposalID), action)
}
