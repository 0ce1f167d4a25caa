package httphandler

import (
	"net/http"

	"github.com/kataras/iris/v12"
	"github.com/tdex-network/bookswap/internal/core/application/compatibility"
)

type CompatibilityHandler struct {
	svc *compatibility.Service
}

func NewCompatibilityHandler(svc *compatibility.Service) *CompatibilityHandler {
	return &CompatibilityHandler{svc}
}

// Analyze scores the swap in the path against the target swap.
func (h *CompatibilityHandler) Analyze(ctx iris.Context) {
	analysis, err := h.svc.Analyze(
		ctx.Request().Context(),
		ctx.Params().Get("swapId"), ctx.Params().Get("targetSwapId"), userID(ctx),
	)
	if err != nil {
		WriteError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, newCompatibilityView(analysis))
}
