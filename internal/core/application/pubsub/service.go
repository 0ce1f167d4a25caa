package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/bookswap/internal/core/application"
	"github.com/tdex-network/bookswap/internal/core/domain"
	"github.com/tdex-network/bookswap/internal/core/ports"
)

const (
	EventAuctionCreated    = "AUCTION_CREATED"
	EventProposalSubmitted = "PROPOSAL_SUBMITTED"
	EventProposalWithdrawn = "PROPOSAL_WITHDRAWN"
	EventAuctionEnded      = "AUCTION_ENDED"
	EventWinnerSelected    = "WINNER_SELECTED"
	EventAuctionUnresolved = "AUCTION_UNRESOLVED"
	EventSwapCancelled     = "SWAP_CANCELLED"
)

// Events lists every topic the service publishes to.
var Events = []string{
	EventAuctionCreated,
	EventProposalSubmitted,
	EventProposalWithdrawn,
	EventAuctionEnded,
	EventWinnerSelected,
	EventAuctionUnresolved,
	EventSwapCancelled,
}

// IsValidTopic ...
func IsValidTopic(topic string) bool {
	if topic == ports.AnyTopic {
		return true
	}
	for _, e := range Events {
		if e == topic {
			return true
		}
	}
	return false
}

// Service dispatches auction events to every configured publisher. Dispatch
// is fire-and-forget: failures are logged and never reach the caller.
type Service struct {
	webhooks   ports.PubSub
	publishers []ports.Publisher
	wg         sync.WaitGroup
}

// NewService returns a service publishing to the webhook pubsub, if not nil,
// and to the other given publishers.
func NewService(webhooks ports.PubSub, publishers ...ports.Publisher) *Service {
	all := make([]ports.Publisher, 0, len(publishers)+1)
	if webhooks != nil {
		all = append(all, webhooks)
	}
	for _, p := range publishers {
		if p != nil {
			all = append(all, p)
		}
	}
	return &Service{webhooks: webhooks, publishers: all}
}

func (s *Service) AddWebhook(
	_ context.Context, topic, endpoint, secret string,
) (string, error) {
	if s.webhooks == nil {
		return "", application.ErrWebhookManagerNotInitialized
	}
	if topic == ports.UnspecifiedTopic || !IsValidTopic(topic) {
		return "", application.NewValidationError(
			fmt.Errorf("invalid webhook event type %q", topic),
		)
	}
	id, err := s.webhooks.Subscribe(topic, endpoint, secret)
	if err != nil {
		return "", application.NewValidationError(err)
	}
	return id, nil
}

func (s *Service) RemoveWebhook(_ context.Context, id string) error {
	if s.webhooks == nil {
		return application.ErrWebhookManagerNotInitialized
	}
	if err := s.webhooks.Unsubscribe(ports.UnspecifiedTopic, id); err != nil {
		if errors.Is(err, ports.ErrSubscriptionNotFound) {
			return application.NewNotFoundError(err)
		}
		return err
	}
	return nil
}

// ListWebhooks returns the webhooks for the topic, or all of them if the
// topic is unspecified.
func (s *Service) ListWebhooks(
	_ context.Context, topic string,
) ([]ports.Subscription, error) {
	if s.webhooks == nil {
		return nil, application.ErrWebhookManagerNotInitialized
	}
	if topic != ports.UnspecifiedTopic && !IsValidTopic(topic) {
		return nil, application.NewValidationError(
			fmt.Errorf("invalid webhook event type %q", topic),
		)
	}
	return s.webhooks.ListSubscriptionsForTopic(topic), nil
}

func (s *Service) PublishAuctionCreatedEvent(auction domain.Auction) {
	s.publish(EventAuctionCreated, map[string]interface{}{
		"auction": getAuctionPayload(auction),
	})
}

func (s *Service) PublishProposalSubmittedEvent(
	auction domain.Auction, proposal domain.Proposal,
) {
	s.publish(EventProposalSubmitted, map[string]interface{}{
		"auction":  getAuctionPayload(auction),
		"proposal": getProposalPayload(proposal),
	})
}

func (s *Service) PublishProposalWithdrawnEvent(
	auction domain.Auction, proposal domain.Proposal,
) {
	s.publish(EventProposalWithdrawn, map[string]interface{}{
		"auction":  getAuctionPayload(auction),
		"proposal": getProposalPayload(proposal),
	})
}

func (s *Service) PublishAuctionEndedEvent(auction domain.Auction) {
	s.publish(EventAuctionEnded, map[string]interface{}{
		"auction": getAuctionPayload(auction),
	})
}

func (s *Service) PublishWinnerSelectedEvent(
	auction domain.Auction, winner domain.Proposal,
) {
	s.publish(EventWinnerSelected, map[string]interface{}{
		"auction":       getAuctionPayload(auction),
		"proposal":      getProposalPayload(winner),
		"auto_selected": auction.AutoSelected,
	})
}

func (s *Service) PublishAuctionUnresolvedEvent(auction domain.Auction) {
	s.publish(EventAuctionUnresolved, map[string]interface{}{
		"auction": getAuctionPayload(auction),
	})
}

func (s *Service) PublishSwapCancelledEvent(swap domain.SwapOffer) {
	s.publish(EventSwapCancelled, map[string]interface{}{
		"swap": getSwapPayload(swap),
	})
}

// Close waits for in-flight dispatches and closes the publishers.
func (s *Service) Close() {
	s.wg.Wait()
	for _, p := range s.publishers {
		p.Close()
	}
}

func (s *Service) publish(event string, payload map[string]interface{}) {
	payload["event"] = event
	message, _ := json.Marshal(payload)

	for i := range s.publishers {
		publisher := s.publishers[i]
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := publisher.Publish(event, string(message)); err != nil {
				log.WithError(err).Warnf("failed to publish %s event", event)
			}
		}()
	}
}
