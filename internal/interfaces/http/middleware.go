package httpinterface

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/kataras/iris/v12"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/bookswap/internal/core/application"
	httphandler "github.com/tdex-network/bookswap/internal/interfaces/http/handler"
	"github.com/tdex-network/bookswap/pkg/metrics"
	"github.com/thanhpk/randstr"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "requestID"
	isAdminKey      = "isAdmin"
	adminRole       = "admin"
)

// Claims are the claims of the bearer tokens accepted by the API. The
// subject is the id of the user.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.StandardClaims
}

func requestIDMiddleware(ctx iris.Context) {
	id := ctx.GetHeader(requestIDHeader)
	if id == "" {
		id = randstr.Hex(16)
	}
	ctx.Values().Set(requestIDKey, id)
	ctx.Header(requestIDHeader, id)
	ctx.Next()
}

func loggerMiddleware(ctx iris.Context) {
	start := time.Now()
	ctx.Next()

	route := "unmatched"
	if r := ctx.GetCurrentRoute(); r != nil {
		route = r.Path()
	}
	status := ctx.GetStatusCode()
	metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

	log.WithFields(log.Fields{
		"request_id": ctx.Values().GetString(requestIDKey),
		"status":     status,
		"elapsed":    time.Since(start).String(),
	}).Debugf("%s %s", ctx.Method(), ctx.Path())
}

type authMiddleware struct {
	secret []byte
	admins map[string]struct{}
}

func newAuthMiddleware(secret []byte, adminUsers []string) *authMiddleware {
	admins := make(map[string]struct{}, len(adminUsers))
	for _, u := range adminUsers {
		if u = strings.TrimSpace(u); u != "" {
			admins[u] = struct{}{}
		}
	}
	return &authMiddleware{secret, admins}
}

func (m *authMiddleware) authenticate(ctx iris.Context) {
	claims, err := m.parse(ctx.GetHeader("Authorization"))
	if err != nil {
		httphandler.WriteError(ctx, &application.Error{
			Kind: application.KindUnauthenticated,
			Err:  err,
		})
		return
	}

	_, isAdmin := m.admins[claims.Subject]
	ctx.Values().Set(httphandler.UserIDKey, claims.Subject)
	ctx.Values().Set(isAdminKey, isAdmin || claims.Role == adminRole)
	ctx.Next()
}

func (m *authMiddleware) adminOnly(ctx iris.Context) {
	if !ctx.Values().GetBoolDefault(isAdminKey, false) {
		httphandler.WriteError(ctx, application.NewForbiddenError(
			fmt.Errorf("admin role required"),
		))
		return
	}
	ctx.Next()
}

func (m *authMiddleware) parse(header string) (*Claims, error) {
	raw := strings.TrimPrefix(header, "Bearer ")
	if header == "" || raw == header {
		return nil, fmt.Errorf("missing bearer token")
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(
		raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %s", t.Header["alg"])
			}
			return m.secret, nil
		},
	); err != nil {
		return nil, fmt.Errorf("invalid token: %s", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("invalid token: missing subject")
	}
	return claims, nil
}
