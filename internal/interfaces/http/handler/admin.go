package httphandler

import (
	"net/http"

	"github.com/kataras/iris/v12"
	"github.com/tdex-network/bookswap/internal/core/application/auction"
	"github.com/tdex-network/bookswap/internal/core/application/pubsub"
	"github.com/tdex-network/bookswap/internal/core/application/sweeper"
	"github.com/tdex-network/bookswap/internal/core/domain"
)

// AdminHandler serves the operator endpoints.
type AdminHandler struct {
	auctionSvc *auction.Service
	sweeperSvc *sweeper.Service
	pubsubSvc  *pubsub.Service
}

func NewAdminHandler(
	auctionSvc *auction.Service, sweeperSvc *sweeper.Service,
	pubsubSvc *pubsub.Service,
) *AdminHandler {
	return &AdminHandler{auctionSvc, sweeperSvc, pubsubSvc}
}

// Sweep resolves every due auction right away.
func (h *AdminHandler) Sweep(ctx iris.Context) {
	resolved, err := h.sweeperSvc.Sweep(ctx.Request().Context())
	if err != nil {
		WriteError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, iris.Map{"resolved": newResolvedViews(resolved)})
}

func (h *AdminHandler) ListAuctions(ctx iris.Context) {
	var page *domain.Page
	if number := ctx.URLParamIntDefault("page", 0); number > 0 {
		p := domain.NewPage(number, ctx.URLParamIntDefault("size", 0))
		page = &p
	}

	auctions, err := h.auctionSvc.ListAuctions(ctx.Request().Context(), page)
	if err != nil {
		WriteError(ctx, err)
		return
	}
	views := make([]auctionView, 0, len(auctions))
	for _, a := range auctions {
		views = append(views, newAuctionView(a))
	}
	writeJSON(ctx, http.StatusOK, iris.Map{"auctions": views})
}

func (h *AdminHandler) AddWebhook(ctx iris.Context) {
	var req addWebhookRequest
	if err := ctx.ReadJSON(&req); err != nil {
		writeValidationError(ctx, err)
		return
	}

	id, err := h.pubsubSvc.AddWebhook(
		ctx.Request().Context(), req.Event, req.Endpoint, req.Secret,
	)
	if err != nil {
		WriteError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusCreated, iris.Map{"id": id})
}

func (h *AdminHandler) ListWebhooks(ctx iris.Context) {
	subs, err := h.pubsubSvc.ListWebhooks(
		ctx.Request().Context(), ctx.URLParam("event"),
	)
	if err != nil {
		WriteError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, iris.Map{"webhooks": newWebhookViews(subs)})
}

func (h *AdminHandler) RemoveWebhook(ctx iris.Context) {
	if err := h.pubsubSvc.RemoveWebhook(
		ctx.Request().Context(), ctx.Params().Get("webhookId"),
	); err != nil {
		WriteError(ctx, err)
		return
	}
	ctx.StatusCode(http.StatusNoContent)
}
