package httphandler

import (
	"net/http"

	"github.com/kataras/iris/v12"
	"github.com/tdex-network/bookswap/internal/core/application/auction"
	"github.com/tdex-network/bookswap/internal/core/domain"
)

type AuctionHandler struct {
	svc *auction.Service
}

func NewAuctionHandler(svc *auction.Service) *AuctionHandler {
	return &AuctionHandler{svc}
}

func (h *AuctionHandler) RegisterSwap(ctx iris.Context) {
	var req registerSwapRequest
	if err := ctx.ReadJSON(&req); err != nil {
		writeValidationError(ctx, err)
		return
	}
	minAmount, err := parseAmount(req.MinimumCashAmount, "minimum cash amount")
	if err != nil {
		writeValidationError(ctx, err)
		return
	}

	swap, err := h.svc.RegisterSwap(ctx.Request().Context(), auction.RegisterSwapRequest{
		OwnerID:         userID(ctx),
		SourceBookingID: req.SourceBookingID,
		Payment: domain.PaymentPreferences{
			BookingExchangeAllowed: req.BookingExchangeAllowed,
			CashAllowed:            req.CashAllowed,
			MinimumCashAmount:      minAmount,
		},
		Listed: req.Listed,
	})
	if err != nil {
		WriteError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusCreated, newSwapView(swap))
}

func (h *AuctionHandler) GetSwap(ctx iris.Context) {
	swap, err := h.svc.GetSwap(
		ctx.Request().Context(), ctx.Params().Get("swapId"), userID(ctx),
	)
	if err != nil {
		WriteError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, newSwapView(swap))
}

func (h *AuctionHandler) CancelSwap(ctx iris.Context) {
	swap, err := h.svc.CancelSwap(
		ctx.Request().Context(), ctx.Params().Get("swapId"), userID(ctx),
	)
	if err != nil {
		WriteError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, newSwapView(swap))
}

func (h *AuctionHandler) CreateAuction(ctx iris.Context) {
	var req createAuctionRequest
	if err := ctx.ReadJSON(&req); err != nil {
		writeValidationError(ctx, err)
		return
	}
	minOffer, err := parseAmount(req.MinimumCashOffer, "minimum cash offer")
	if err != nil {
		writeValidationError(ctx, err)
		return
	}

	a, err := h.svc.CreateAuction(ctx.Request().Context(), auction.CreateAuctionRequest{
		SwapID:  ctx.Params().Get("swapId"),
		ActorID: userID(ctx),
		Settings: domain.AuctionSettings{
			EndDate:               req.EndDate,
			AllowBookingProposals: req.AllowBookingProposals,
			AllowCashProposals:    req.AllowCashProposals,
			MinimumCashOffer:      minOffer,
			AutoSelectAfterHours:  req.AutoSelectAfterHours,
		},
	})
	if err != nil {
		WriteError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusCreated, newAuctionView(a))
}

func (h *AuctionHandler) GetAuction(ctx iris.Context) {
	a, err := h.svc.GetAuction(
		ctx.Request().Context(), ctx.Params().Get("auctionId"), userID(ctx),
	)
	if err != nil {
		WriteError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, newAuctionView(a))
}

func (h *AuctionHandler) SubmitProposal(ctx iris.Context) {
	var req submitProposalRequest
	if err := ctx.ReadJSON(&req); err != nil {
		writeValidationError(ctx, err)
		return
	}
	body, err := parseProposalBody(req)
	if err != nil {
		writeValidationError(ctx, err)
		return
	}

	proposal, err := h.svc.SubmitProposal(ctx.Request().Context(), auction.SubmitProposalRequest{
		AuctionID:      ctx.Params().Get("auctionId"),
		ProposerID:     userID(ctx),
		Body:           body,
		Message:        req.Message,
		Conditions:     req.Conditions,
		IdempotencyKey: ctx.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		WriteError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusCreated, newProposalView(proposal))
}

func (h *AuctionHandler) ListProposals(ctx iris.Context) {
	list, err := h.svc.ListProposals(
		ctx.Request().Context(), ctx.Params().Get("auctionId"), userID(ctx),
	)
	if err != nil {
		WriteError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, newProposalListView(list))
}

func (h *AuctionHandler) WithdrawProposal(ctx iris.Context) {
	proposal, err := h.svc.WithdrawProposal(
		ctx.Request().Context(),
		ctx.Params().Get("auctionId"), userID(ctx), ctx.Params().Get("proposalId"),
	)
	if err != nil {
		WriteError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, newProposalView(proposal))
}

func (h *AuctionHandler) EndAuction(ctx iris.Context) {
	a, err := h.svc.EndAuction(
		ctx.Request().Context(), ctx.Params().Get("auctionId"), userID(ctx),
	)
	if err != nil {
		WriteError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, newAuctionView(a))
}

func (h *AuctionHandler) SelectWinner(ctx iris.Context) {
	var req selectWinnerRequest
	if err := ctx.ReadJSON(&req); err != nil {
		writeValidationError(ctx, err)
		return
	}

	a, err := h.svc.SelectWinner(
		ctx.Request().Context(),
		ctx.Params().Get("auctionId"), userID(ctx), req.ProposalID,
	)
	if err != nil {
		WriteError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, newAuctionView(a))
}

func parseProposalBody(req submitProposalRequest) (domain.ProposalBody, error) {
	if req.Type == string(domain.ProposalTypeBooking) {
		return domain.BookingProposal{BookingID: req.BookingID}, nil
	}
	amount, err := parseAmount(req.Amount, "amount")
	if err != nil {
		return nil, err
	}
	return domain.CashProposal{
		Amount:          amount,
		Currency:        req.Currency,
		PaymentMethodID: req.PaymentMethodID,
		EscrowAgreed:    req.EscrowAgreed,
	}, nil
}
