package callbridge

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimte/callbridge-go/contracts"
	"github.com/glimte/callbridge-go/producer"
)

// fastPolicy resolves every callback almost immediately and never fails.
func fastPolicy() producer.OutcomePolicy {
	return producer.PolicyFunc(func(_, _ string, index int) producer.Decision {
		return producer.Decision{Delay: time.Duration(index+1) * time.Millisecond}
	})
}

func newTestClient(t *testing.T, opts ...ClientOption) *Client {
	t.Helper()
	client, err := NewClient(append([]ClientOption{WithPolicy(fastPolicy())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("creates a fully wired client with defaults", func(t *testing.T) {
		client, err := NewClient()
		require.NoError(t, err)
		assert.NotNil(t, client.Bridge())
		assert.NotNil(t, client.Registry())
		assert.NoError(t, client.Close())
	})
}

func TestClientRequest(t *testing.T) {
	t.Run("end to end request returns every outcome", func(t *testing.T) {
		client := newTestClient(t)

		results, err := client.Request(context.Background(), "order-42", map[string]any{"value": "demo"}, 4, time.Second)

		require.NoError(t, err)
		require.Len(t, results, 4)
		for _, outcome := range results {
			assert.True(t, outcome.IsSuccess())
			assert.Equal(t, "order-42", outcome.Payload["request_id"])
		}
	})

	t.Run("an empty request ID is generated", func(t *testing.T) {
		var mu sync.Mutex
		var seen []string
		client := newTestClient(t, WithObserver(observerFunc(func(outcome contracts.Outcome) {
			mu.Lock()
			seen = append(seen, outcome.CallbackID)
			mu.Unlock()
		})))

		results, err := client.Request(context.Background(), "", map[string]any{"value": "demo"}, 2, time.Second)

		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, outcome := range results {
			assert.True(t, strings.HasPrefix(outcome.CallbackID, "req-"))
		}
		mu.Lock()
		assert.Len(t, seen, 2)
		mu.Unlock()
	})

	t.Run("registry is empty after requests complete", func(t *testing.T) {
		client := newTestClient(t)

		_, err := client.Request(context.Background(), "order-7", nil, 3, time.Second)

		require.NoError(t, err)
		assert.Equal(t, 0, client.Registry().RequestCount())
	})

	t.Run("requests fail after Close", func(t *testing.T) {
		client := newTestClient(t)
		require.NoError(t, client.Close())

		_, err := client.Request(context.Background(), "order-1", nil, 1, time.Second)
		assert.ErrorIs(t, err, contracts.ErrBridgeClosed)
	})
}

func TestClientRequestOne(t *testing.T) {
	t.Run("returns the single outcome", func(t *testing.T) {
		client := newTestClient(t)

		outcome, err := client.RequestOne(context.Background(), "order-9", map[string]any{"value": "x"}, time.Second)

		require.NoError(t, err)
		assert.Equal(t, "order-9-cb-1", outcome.CallbackID)
		assert.True(t, outcome.IsSuccess())
	})

	t.Run("a producer that never resolves yields ErrRequestTimeout", func(t *testing.T) {
		client := newTestClient(t, WithPolicy(producer.PolicyFunc(func(_, _ string, _ int) producer.Decision {
			return producer.Decision{Delay: time.Hour}
		})))

		_, err := client.RequestOne(context.Background(), "order-10", nil, 30*time.Millisecond)

		assert.ErrorIs(t, err, contracts.ErrRequestTimeout)
	})
}

// observerFunc adapts a function to callbacks.Observer without importing
// the package under a second name in tests.
type observerFunc func(contracts.Outcome)

func (f observerFunc) OnOutcome(outcome contracts.Outcome) { f(outcome) }
