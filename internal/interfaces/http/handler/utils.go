package httphandler

import (
	"fmt"
	"net/http"

	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/bookswap/internal/core/application"
)

const (
	// UserIDKey is the context value holding the id of the authenticated user.
	UserIDKey = "userID"
	// IdempotencyKeyHeader lets clients safely retry a proposal submission.
	IdempotencyKeyHeader = "Idempotency-Key"
)

var statusByKind = map[application.ErrorKind]int{
	application.KindValidation:      http.StatusBadRequest,
	application.KindUnauthenticated: http.StatusUnauthorized,
	application.KindForbidden:       http.StatusForbidden,
	application.KindNotFound:        http.StatusNotFound,
	application.KindConflict:        http.StatusConflict,
	application.KindIntegration:     http.StatusInternalServerError,
	application.KindInternal:        http.StatusInternalServerError,
}

type errorBody struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	State   interface{} `json:"state,omitempty"`
}

// WriteError writes the given error with the status code of its kind. A
// conflict carries the current state of the resource it is about.
func WriteError(ctx iris.Context, err error) {
	kind := application.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := errorBody{Error: kind.String(), Message: err.Error()}
	if kind == application.KindInternal {
		log.WithError(err).Error("internal error")
		body.Message = "internal error"
	}
	if state := application.StateOf(err); state != nil {
		body.State = stateView(state)
	}

	ctx.StopExecution()
	ctx.StatusCode(status)
	ctx.JSON(body)
}

func writeValidationError(ctx iris.Context, err error) {
	WriteError(ctx, application.NewValidationError(err))
}

func writeJSON(ctx iris.Context, status int, v interface{}) {
	ctx.StatusCode(status)
	ctx.JSON(v)
}

func userID(ctx iris.Context) string {
	return ctx.Values().GetString(UserIDKey)
}

func parseAmount(str, field string) (decimal.Decimal, error) {
	if str == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(str)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", field, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", field)
	}
	return amount, nil
}
