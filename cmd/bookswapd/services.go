package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/bookswap/config"
	"github.com/tdex-network/bookswap/internal/core/application/auction"
	"github.com/tdex-network/bookswap/internal/core/application/compatibility"
	"github.com/tdex-network/bookswap/internal/core/application/pubsub"
	"github.com/tdex-network/bookswap/internal/core/application/sweeper"
	"github.com/tdex-network/bookswap/internal/core/ports"
	"github.com/tdex-network/bookswap/internal/infrastructure/collaborator/booking"
	"github.com/tdex-network/bookswap/internal/infrastructure/collaborator/payment"
	amqppubsub "github.com/tdex-network/bookswap/internal/infrastructure/pubsub/amqp"
	webhookpubsub "github.com/tdex-network/bookswap/internal/infrastructure/pubsub/webhook"
	dbbadger "github.com/tdex-network/bookswap/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/bookswap/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/tdex-network/bookswap/internal/infrastructure/storage/db/pg"
)

// appConfig lazily builds the services of the daemon from the config
// package. Every getter builds its dependencies first.
type appConfig struct {
	repo          ports.RepoManager
	bookings      ports.BookingService
	escrow        ports.EscrowService
	pubsub        *pubsub.Service
	auction       *auction.Service
	compatibility *compatibility.Service
	sweeper       *sweeper.Service
}

func (c *appConfig) repoManager() (ports.RepoManager, error) {
	if c.repo != nil {
		return c.repo, nil
	}

	var (
		repo ports.RepoManager
		err  error
	)
	switch dbType := config.GetString(config.DbTypeKey); dbType {
	case config.DbTypeInmemory:
		repo = inmemory.NewRepoManager()
	case config.DbTypeBadger:
		repo, err = dbbadger.NewRepoManager(config.GetDbDir(), log.New())
	case config.DbTypePostgres:
		repo, err = postgresdb.NewService(postgresdb.DbConfig{
			DataSource: config.GetString(config.PgConnectAddrKey),
		})
	default:
		err = fmt.Errorf("unsupported db type %s", dbType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	c.repo = repo
	return c.repo, nil
}

func (c *appConfig) collaborators() (ports.BookingService, ports.EscrowService, error) {
	if c.bookings != nil && c.escrow != nil {
		return c.bookings, c.escrow, nil
	}

	timeout := config.GetSeconds(config.CollaboratorTimeoutKey)
	rps := config.GetInt(config.CollaboratorRateLimitKey)
	apiKey := config.GetString(config.CollaboratorAPIKeyKey)

	bookings, err := booking.NewService(
		config.GetString(config.BookingServiceURLKey), timeout, rps, apiKey,
	)
	if err != nil {
		return nil, nil, err
	}
	escrow, err := payment.NewService(
		config.GetString(config.PaymentServiceURLKey), timeout, rps, apiKey,
	)
	if err != nil {
		return nil, nil, err
	}
	c.bookings, c.escrow = bookings, escrow
	return c.bookings, c.escrow, nil
}

func (c *appConfig) pubsubService() (*pubsub.Service, error) {
	if c.pubsub != nil {
		return c.pubsub, nil
	}

	webhookDir := ""
	if config.GetString(config.DbTypeKey) != config.DbTypeInmemory {
		webhookDir = config.GetDbDir()
	}
	webhooks, err := webhookpubsub.NewService(webhookDir, log.New())
	if err != nil {
		return nil, fmt.Errorf("failed to open webhook store: %w", err)
	}
	secret := config.GetString(config.WebhookSecretKey)
	registered := make(map[string]bool)
	for _, sub := range webhooks.ListSubscriptionsForTopic(ports.AnyTopic) {
		registered[sub.NotifyAt()] = true
	}
	for _, endpoint := range config.GetList(config.WebhookEndpointsKey) {
		if registered[endpoint] {
			continue
		}
		if _, err := webhooks.Subscribe(ports.AnyTopic, endpoint, secret); err != nil {
			webhooks.Close()
			return nil, fmt.Errorf("failed to add webhook %s: %w", endpoint, err)
		}
	}

	publishers := make([]ports.Publisher, 0)
	if amqpURL := config.GetString(config.AmqpURLKey); amqpURL != "" {
		publisher, err := amqppubsub.NewPublisher(
			amqpURL, config.GetString(config.AmqpExchangeKey),
		)
		if err != nil {
			webhooks.Close()
			return nil, fmt.Errorf("failed to connect to amqp broker: %w", err)
		}
		publishers = append(publishers, publisher)
	}

	c.pubsub = pubsub.NewService(webhooks, publishers...)
	return c.pubsub, nil
}

func (c *appConfig) auctionService() (*auction.Service, error) {
	if c.auction != nil {
		return c.auction, nil
	}

	repo, err := c.repoManager()
	if err != nil {
		return nil, err
	}
	bookings, escrow, err := c.collaborators()
	if err != nil {
		return nil, err
	}
	pubsubSvc, err := c.pubsubService()
	if err != nil {
		return nil, err
	}

	svc, err := auction.NewService(repo, bookings, escrow, pubsubSvc, nil, nil)
	if err != nil {
		return nil, err
	}
	c.auction = svc
	return c.auction, nil
}

func (c *appConfig) compatibilityService() (*compatibility.Service, error) {
	if c.compatibility != nil {
		return c.compatibility, nil
	}

	repo, err := c.repoManager()
	if err != nil {
		return nil, err
	}
	bookings, _, err := c.collaborators()
	if err != nil {
		return nil, err
	}

	svc, err := compatibility.NewService(repo.SwapRepository(), bookings)
	if err != nil {
		return nil, err
	}
	c.compatibility = svc
	return c.compatibility, nil
}

func (c *appConfig) sweeperService() (*sweeper.Service, error) {
	if c.sweeper != nil {
		return c.sweeper, nil
	}

	repo, err := c.repoManager()
	if err != nil {
		return nil, err
	}
	auctionSvc, err := c.auctionService()
	if err != nil {
		return nil, err
	}

	svc, err := sweeper.NewService(
		repo.AuctionRepository(), auctionSvc,
		config.GetInt(config.SweepConcurrencyKey), nil,
	)
	if err != nil {
		return nil, err
	}
	c.sweeper = svc
	return c.sweeper, nil
}

// close releases the storage and the publishers.
func (c *appConfig) close() {
	if c.sweeper != nil {
		c.sweeper.Stop()
	}
	if c.pubsub != nil {
		c.pubsub.Close()
	}
	if c.repo != nil {
		c.repo.Close()
	}
}
