package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/pprof"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/bookswap/internal/core/application/auction"
	"github.com/tdex-network/bookswap/internal/core/application/compatibility"
	"github.com/tdex-network/bookswap/internal/core/application/pubsub"
	"github.com/tdex-network/bookswap/internal/core/application/sweeper"
	interfaces "github.com/tdex-network/bookswap/internal/interfaces"
	httphandler "github.com/tdex-network/bookswap/internal/interfaces/http/handler"
)

const shutdownTimeout = 10 * time.Second

type ServiceOpts struct {
	Address        string
	AuthSecret     string
	AdminUsers     []string
	EnableProfiler bool

	AuctionSvc       *auction.Service
	CompatibilitySvc *compatibility.Service
	SweeperSvc       *sweeper.Service
	PubSubSvc        *pubsub.Service
}

func (o ServiceOpts) validate() error {
	if len(o.AuthSecret) < 32 {
		return fmt.Errorf("auth secret must be at least 32 bytes long")
	}
	if o.AuctionSvc == nil {
		return fmt.Errorf("missing auction service")
	}
	if o.CompatibilitySvc == nil {
		return fmt.Errorf("missing compatibility service")
	}
	if o.SweeperSvc == nil {
		return fmt.Errorf("missing sweeper service")
	}
	if o.PubSubSvc == nil {
		return fmt.Errorf("missing pubsub service")
	}
	return nil
}

type service struct {
	opts   ServiceOpts
	app    *iris.Application
	server *http.Server
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if opts.Address == "" {
		return nil, fmt.Errorf("missing listening address")
	}
	app, err := NewRouter(opts)
	if err != nil {
		return nil, err
	}
	return &service{opts: opts, app: app}, nil
}

func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}

	s.server = &http.Server{
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.server.Serve(lis); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped unexpectedly")
		}
	}()

	log.Infof("http interface listening on %s", s.opts.Address)
	return nil
}

func (s *service) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop http interface")
	}
	log.Debug("stopped http interface")
}

// NewRouter returns the built iris application serving the whole REST API.
func NewRouter(opts ServiceOpts) (*iris.Application, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	app := iris.New()
	app.Logger().SetLevel("disable")
	app.Validator = validator.New()

	app.UseRouter(requestIDMiddleware)
	app.Use(loggerMiddleware)

	app.Get("/metrics", iris.FromStd(promhttp.Handler()))
	if opts.EnableProfiler {
		p := pprof.New()
		app.Any("/debug/pprof", p)
		app.Any("/debug/pprof/{action:path}", p)
	}

	auctionHandler := httphandler.NewAuctionHandler(opts.AuctionSvc)
	compatibilityHandler := httphandler.NewCompatibilityHandler(opts.CompatibilitySvc)
	adminHandler := httphandler.NewAdminHandler(
		opts.AuctionSvc, opts.SweeperSvc, opts.PubSubSvc,
	)

	auth := newAuthMiddleware([]byte(opts.AuthSecret), opts.AdminUsers)

	v1 := app.Party("/v1", auth.authenticate)
	{
		swaps := v1.Party("/swaps")
		swaps.Post("/", auctionHandler.RegisterSwap)
		swaps.Get("/{swapId}", auctionHandler.GetSwap)
		swaps.Post("/{swapId}/cancel", auctionHandler.CancelSwap)
		swaps.Post("/{swapId}/auction", auctionHandler.CreateAuction)
		swaps.Get(
			"/{swapId}/compatibility/{targetSwapId}", compatibilityHandler.Analyze,
		)

		auctions := v1.Party("/auctions")
		auctions.Get("/{auctionId}", auctionHandler.GetAuction)
		auctions.Post("/{auctionId}/end", auctionHandler.EndAuction)
		auctions.Post("/{auctionId}/winner", auctionHandler.SelectWinner)
		auctions.Get("/{auctionId}/proposals", auctionHandler.ListProposals)
		auctions.Post("/{auctionId}/proposals", auctionHandler.SubmitProposal)
		auctions.Delete(
			"/{auctionId}/proposals/{proposalId}", auctionHandler.WithdrawProposal,
		)

		admin := v1.Party("/admin", auth.adminOnly)
		admin.Post("/sweep", adminHandler.Sweep)
		admin.Get("/auctions", adminHandler.ListAuctions)
		admin.Get("/webhooks", adminHandler.ListWebhooks)
		admin.Post("/webhooks", adminHandler.AddWebhook)
		admin.Delete("/webhooks/{webhookId}", adminHandler.RemoveWebhook)
	}

	if err := app.Build(); err != nil {
		return nil, err
	}
	return app, nil
}
