package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// wsEchoServer starts a server that upgrades each connection and writes
// every message in msgs to it in order, without waiting for the client to
// send anything.
func wsEchoServer(t *testing.T, msgs []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for _, m := range msgs {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Keep the connection open briefly so the client finishes reading.
		time.Sleep(50 * time.Millisecond)
	}))
	return srv
}

func TestWebSocketSourceDropsNonPositivePrice(t *testing.T) {
	srv := wsEchoServer(t, []string{`{"c":["-1","0.01"]}`, `{"c":["50123.4","0.01"]}`})
	defer srv.Close()

	cfg := WebSocketConfig{
		Venue:    "kraken",
		Endpoint: "ws" + strings.TrimPrefix(srv.URL, "http"),
	}
	out := make(chan Tick, 4)
	s := NewWebSocketSource(cfg, KrakenParser("BTC"), zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx, out)

	tick := <-out
	require.Equal(t, 50123.4, tick.Price)

	select {
	case extra := <-out:
		t.Fatalf("expected only one tick, got extra %+v", extra)
	default:
	}
}
