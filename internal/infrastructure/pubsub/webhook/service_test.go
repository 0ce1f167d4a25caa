package webhookpubsub_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/bookswap/internal/core/ports"
	webhookpubsub "github.com/tdex-network/bookswap/internal/infrastructure/pubsub/webhook"
)

const secret = "supersecret"

type received struct {
	event string
	body  string
	auth  string
}

func newTestServer(t *testing.T) (*httptest.Server, func() []received) {
	var lock sync.Mutex
	list := make([]received, 0)
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			lock.Lock()
			list = append(list, received{
				event: r.Header.Get("X-Event"),
				body:  string(body),
				auth:  r.Header.Get("Authorization"),
			})
			lock.Unlock()
		},
	))
	t.Cleanup(server.Close)
	return server, func() []received {
		lock.Lock()
		defer lock.Unlock()
		return append([]received{}, list...)
	}
}

func TestSubscriptions(t *testing.T) {
	pubsub, err := webhookpubsub.NewService("", nil)
	require.NoError(t, err)
	defer pubsub.Close()

	endpoint := "http://localhost:8080/hook"
	id, err := pubsub.Subscribe("WINNER_SELECTED", endpoint, "")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	sameID, err := pubsub.Subscribe("WINNER_SELECTED", endpoint, "")
	require.NoError(t, err)
	require.Equal(t, id, sameID)

	anyID, err := pubsub.Subscribe(ports.AnyTopic, endpoint, secret)
	require.NoError(t, err)

	_, err = pubsub.Subscribe("WINNER_SELECTED", "not an url", "")
	require.Error(t, err)

	subs := pubsub.ListSubscriptionsForTopic("WINNER_SELECTED")
	require.Len(t, subs, 2)

	subs = pubsub.ListSubscriptionsForTopic(ports.UnspecifiedTopic)
	require.Len(t, subs, 2)

	subs = pubsub.ListSubscriptionsForTopic("AUCTION_CREATED")
	require.Len(t, subs, 1)
	require.Equal(t, anyID, subs[0].Id())
	require.True(t, subs[0].IsSecured())

	require.NoError(t, pubsub.Unsubscribe("", id))
	err = pubsub.Unsubscribe("", id)
	require.ErrorIs(t, err, ports.ErrSubscriptionNotFound)

	subs = pubsub.ListSubscriptionsForTopic("WINNER_SELECTED")
	require.Len(t, subs, 1)
}

func TestPublish(t *testing.T) {
	server, receivedMessages := newTestServer(t)

	pubsub, err := webhookpubsub.NewService("", nil)
	require.NoError(t, err)
	defer pubsub.Close()

	_, err = pubsub.Subscribe("AUCTION_ENDED", server.URL+"/plain", "")
	require.NoError(t, err)
	securedID, err := pubsub.Subscribe(ports.AnyTopic, server.URL+"/secured", secret)
	require.NoError(t, err)

	message := `{"event":"AUCTION_ENDED"}`
	require.NoError(t, pubsub.Publish("AUCTION_ENDED", message))

	list := receivedMessages()
	require.Len(t, list, 2)

	var secured int
	for _, r := range list {
		require.Equal(t, "AUCTION_ENDED", r.event)
		require.Equal(t, message, r.body)
		if r.auth == "" {
			continue
		}
		secured++

		tokenString := strings.TrimPrefix(r.auth, "Bearer ")
		claims := &jwt.StandardClaims{}
		token, err := jwt.ParseWithClaims(
			tokenString, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			},
		)
		require.NoError(t, err)
		require.True(t, token.Valid)
		require.Equal(t, securedID, claims.Subject)
	}
	require.Equal(t, 1, secured)

	require.NoError(t, pubsub.Publish("AUCTION_CREATED", message))
	require.Len(t, receivedMessages(), 3)
}
