package httphandler

import (
	"time"

	"github.com/tdex-network/bookswap/internal/core/application/auction"
	"github.com/tdex-network/bookswap/internal/core/application/compatibility"
	"github.com/tdex-network/bookswap/internal/core/domain"
	"github.com/tdex-network/bookswap/internal/core/ports"
)

type registerSwapRequest struct {
	SourceBookingID        string `json:"source_booking_id" validate:"required"`
	BookingExchangeAllowed bool   `json:"booking_exchange_allowed"`
	CashAllowed            bool   `json:"cash_allowed"`
	MinimumCashAmount      string `json:"minimum_cash_amount" validate:"omitempty,numeric"`
	Listed                 bool   `json:"listed"`
}

type createAuctionRequest struct {
	EndDate               time.Time `json:"end_date" validate:"required"`
	AllowBookingProposals bool      `json:"allow_booking_proposals"`
	AllowCashProposals    bool      `json:"allow_cash_proposals"`
	MinimumCashOffer      string    `json:"minimum_cash_offer" validate:"omitempty,numeric"`
	AutoSelectAfterHours  int       `json:"auto_select_after_hours" validate:"gte=0"`
}

type submitProposalRequest struct {
	Type            string   `json:"type" validate:"required,oneof=booking cash"`
	BookingID       string   `json:"booking_id" validate:"required_if=Type booking"`
	Amount          string   `json:"amount" validate:"required_if=Type cash,omitempty,numeric"`
	Currency        string   `json:"currency" validate:"required_if=Type cash,omitempty,len=3"`
	PaymentMethodID string   `json:"payment_method_id" validate:"required_if=Type cash"`
	EscrowAgreed    bool     `json:"escrow_agreed"`
	Message         string   `json:"message" validate:"max=2000"`
	Conditions      []string `json:"conditions" validate:"max=20,dive,max=500"`
}

type selectWinnerRequest struct {
	ProposalID string `json:"proposal_id" validate:"required"`
}

type addWebhookRequest struct {
	Event    string `json:"event" validate:"required"`
	Endpoint string `json:"endpoint" validate:"required,url"`
	Secret   string `json:"secret"`
}

type paymentView struct {
	BookingExchangeAllowed bool   `json:"booking_exchange_allowed"`
	CashAllowed            bool   `json:"cash_allowed"`
	MinimumCashAmount      string `json:"minimum_cash_amount"`
}

type targetView struct {
	ProposalID string `json:"proposal_id"`
	ProposerID string `json:"proposer_id"`
	BookingID  string `json:"booking_id,omitempty"`
	CashAmount string `json:"cash_amount,omitempty"`
	Currency   string `json:"currency,omitempty"`
}

type swapView struct {
	ID                 string      `json:"id"`
	SourceBookingID    string      `json:"source_booking_id"`
	OwnerID            string      `json:"owner_id"`
	ProposerID         string      `json:"proposer_id"`
	Status             string      `json:"status"`
	AcceptanceStrategy string      `json:"acceptance_strategy"`
	Payment            paymentView `json:"payment"`
	Target             *targetView `json:"target,omitempty"`
	AuctionID          string      `json:"auction_id,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

func newSwapView(s *domain.SwapOffer) swapView {
	view := swapView{
		ID:                 s.ID,
		SourceBookingID:    s.SourceBookingID,
		OwnerID:            s.OwnerID,
		ProposerID:         s.ProposerID,
		Status:             string(s.Status),
		AcceptanceStrategy: string(s.AcceptanceStrategy),
		Payment: paymentView{
			BookingExchangeAllowed: s.Payment.BookingExchangeAllowed,
			CashAllowed:            s.Payment.CashAllowed,
			MinimumCashAmount:      s.Payment.MinimumCashAmount.String(),
		},
		AuctionID: s.AuctionID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if t := s.Target; t != nil {
		view.Target = &targetView{
			ProposalID: t.ProposalID,
			ProposerID: t.ProposerID,
			BookingID:  t.BookingID,
			Currency:   t.Currency,
		}
		if !t.CashAmount.IsZero() {
			view.Target.CashAmount = t.CashAmount.String()
		}
	}
	return view
}

type cashView struct {
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	PaymentMethodID string `json:"payment_method_id"`
	EscrowAgreed    bool   `json:"escrow_agreed"`
}

type proposalView struct {
	ID         string    `json:"id"`
	AuctionID  string    `json:"auction_id"`
	ProposerID string    `json:"proposer_id"`
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id,omitempty"`
	Cash       *cashView `json:"cash,omitempty"`
	Message    string    `json:"message,omitempty"`
	Conditions []string  `json:"conditions,omitempty"`
	Status     string    `json:"status"`
	Sequence   uint64    `json:"sequence"`
	EscrowID   string    `json:"escrow_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newProposalView(p *domain.Proposal) proposalView {
	view := proposalView{
		ID:         p.ID,
		AuctionID:  p.AuctionID,
		ProposerID: p.ProposerID,
		Type:       string(p.Type()),
		Message:    p.Message,
		Conditions: p.Conditions,
		Status:     string(p.Status),
		Sequence:   p.Sequence,
		EscrowID:   p.EscrowID,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if b, ok := p.Booking(); ok {
		view.BookingID = b.BookingID
	}
	if c, ok := p.Cash(); ok {
		view.Cash = &cashView{
			Amount:          c.Amount.String(),
			Currency:        c.Currency,
			PaymentMethodID: c.PaymentMethodID,
			EscrowAgreed:    c.EscrowAgreed,
		}
	}
	return view
}

func newProposalViews(list []*domain.Proposal) []proposalView {
	views := make([]proposalView, 0, len(list))
	for _, p := range list {
		views = append(views, newProposalView(p))
	}
	return views
}

type settingsView struct {
	EndDate               time.Time `json:"end_date"`
	AllowBookingProposals bool      `json:"allow_booking_proposals"`
	AllowCashProposals    bool      `json:"allow_cash_proposals"`
	MinimumCashOffer      string    `json:"minimum_cash_offer"`
	AutoSelectAfterHours  int       `json:"auto_select_after_hours"`
}

type auctionView struct {
	ID                string         `json:"id"`
	SwapID            string         `json:"swap_id"`
	OwnerID           string         `json:"owner_id"`
	Status            string         `json:"status"`
	Settings          settingsView   `json:"settings"`
	WinningProposalID string         `json:"winning_proposal_id,omitempty"`
	AutoSelected      bool           `json:"auto_selected"`
	Unresolved        bool           `json:"unresolved"`
	Cancelled         bool           `json:"cancelled"`
	Settled           bool           `json:"settled"`
	Proposals         []proposalView `json:"proposals"`
	EndedAt           *time.Time     `json:"ended_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func newAuctionView(a *domain.Auction) auctionView {
	view := auctionView{
		ID:      a.ID,
		SwapID:  a.SwapID,
		OwnerID: a.OwnerID,
		Status:  string(a.Status),
		Settings: settingsView{
			EndDate:               a.Settings.EndDate,
			AllowBookingProposals: a.Settings.AllowBookingProposals,
			AllowCashProposals:    a.Settings.AllowCashProposals,
			MinimumCashOffer:      a.Settings.MinimumCashOffer.String(),
			AutoSelectAfterHours:  a.Settings.AutoSelectAfterHours,
		},
		WinningProposalID: a.WinningProposalID,
		AutoSelected:      a.AutoSelected,
		Unresolved:        a.Unresolved,
		Cancelled:         a.Cancelled,
		Settled:           a.Settled,
		Proposals:         newProposalViews(a.Ledger.Proposals),
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
	if !a.EndedAt.IsZero() {
		endedAt := a.EndedAt
		view.EndedAt = &endedAt
	}
	return view
}

type proposalListView struct {
	AuctionID string         `json:"auction_id"`
	Status    string         `json:"status"`
	Proposals []proposalView `json:"proposals"`
}

func newProposalListView(list *auction.ProposalList) proposalListView {
	return proposalListView{
		AuctionID: list.Auction.ID,
		Status:    string(list.Auction.Status),
		Proposals: newProposalViews(list.Proposals),
	}
}

type factorView struct {
	Score   int     `json:"score"`
	Weight  float64 `json:"weight"`
	Status  string  `json:"status"`
	Details string  `json:"details"`
}

type compatibilityView struct {
	SourceSwapID    string                `json:"source_swap_id"`
	TargetSwapID    string                `json:"target_swap_id"`
	OverallScore    int                   `json:"overall_score"`
	Tier            string                `json:"tier"`
	Factors         map[string]factorView `json:"factors"`
	Recommendations []string              `json:"recommendations"`
	PotentialIssues []string              `json:"potential_issues"`
}

func newCompatibilityView(a *compatibility.Analysis) compatibilityView {
	factors := make(map[string]factorView, len(a.Result.Factors))
	for name, f := range a.Result.Factors {
		factors[string(name)] = factorView{
			Score:   f.Score,
			Weight:  f.Weight,
			Status:  string(f.Status),
			Details: f.Details,
		}
	}
	return compatibilityView{
		SourceSwapID:    a.SourceSwapID,
		TargetSwapID:    a.TargetSwapID,
		OverallScore:    a.Result.OverallScore,
		Tier:            string(a.Result.Tier),
		Factors:         factors,
		Recommendations: nonNil(a.Result.Recommendations),
		PotentialIssues: nonNil(a.Result.PotentialIssues),
	}
}

type resolvedView struct {
	AuctionID         string `json:"auction_id"`
	SwapID            string `json:"swap_id"`
	Outcome           string `json:"outcome"`
	WinningProposalID string `json:"winning_proposal_id,omitempty"`
	AutoSelected      bool   `json:"auto_selected"`
}

func newResolvedViews(list []auction.ResolvedAuction) []resolvedView {
	views := make([]resolvedView, 0, len(list))
	for _, r := range list {
		views = append(views, resolvedView{
			AuctionID:         r.AuctionID,
			SwapID:            r.SwapID,
			Outcome:           string(r.Outcome),
			WinningProposalID: r.WinningProposalID,
			AutoSelected:      r.AutoSelected,
		})
	}
	return views
}

type webhookView struct {
	ID        string `json:"id"`
	Event     string `json:"event"`
	Endpoint  string `json:"endpoint"`
	IsSecured bool   `json:"is_secured"`
}

func newWebhookViews(subs []ports.Subscription) []webhookView {
	views := make([]webhookView, 0, len(subs))
	for _, s := range subs {
		views = append(views, webhookView{
			ID:        s.Id(),
			Event:     s.Topic(),
			Endpoint:  s.NotifyAt(),
			IsSecured: s.IsSecured(),
		})
	}
	return views
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
