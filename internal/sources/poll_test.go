package sources

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPollSourceEmitsTicks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":"123.45"}`))
	}))
	defer srv.Close()

	extract := func(body []byte) (float64, error) {
		price, ok, err := ParseJSONField(body, "price")
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("no price field")
		}
		return price, nil
	}

	out := make(chan Tick, 4)
	p := NewPollSource("pyth", srv.URL, "BTC", 10*time.Millisecond, extract, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	_ = p.Run(ctx, out)

	select {
	case tick := <-out:
		require.Equal(t, "pyth", tick.Venue)
		require.Equal(t, 123.45, tick.Price)
	default:
		t.Fatal("expected at least one tick")
	}
}

func TestPollSourceRejectsNonPositivePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":"-5"}`))
	}))
	defer srv.Close()

	extract := func(body []byte) (float64, error) {
		price, ok, err := ParseJSONField(body, "price")
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("no price field")
		}
		return price, nil
	}

	out := make(chan Tick, 4)
	p := NewPollSource("pyth", srv.URL, "BTC", 10*time.Millisecond, extract, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_ = p.Run(ctx, out)

	select {
	case tick := <-out:
		t.Fatalf("expected no tick, got %+v", tick)
	default:
	}
}

func TestNormalizeRejectsNonFiniteAndNonPositive(t *testing.T) {
	_, ok := Normalize(math.NaN())
	require.False(t, ok)

	_, ok = Normalize(math.Inf(1))
	require.False(t, ok)

	_, ok = Normalize(0)
	require.False(t, ok)

	_, ok = Normalize(-10)
	require.False(t, ok)

	v, ok := Normalize(50_000.5)
	require.True(t, ok)
	require.Equal(t, 50_000.5, v)
}

func TestParseJSONFieldNestedPath(t *testing.T) {
	v, ok, err := ParseJSONField([]byte(`{"data":{"price":42.5}}`), "data", "price")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 42.5, v)
}

func TestParseJSONFieldMissingPath(t *testing.T) {
	_, ok, err := ParseJSONField([]byte(`{"data":{}}`), "data", "price")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKrakenParserExtractsLastTradePrice(t *testing.T) {
	raw := []byte(`{"c":["50123.4","0.001"]}`)
	tick, ok, err := KrakenParser("BTC")(raw)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 50123.4, tick.Price)
}
