package paypal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/youthbridge/youthbridge/internal/config"
	"github.com/youthbridge/youthbridge/internal/observability/metrics"
)

func TestGetOrderObservesAPILatency(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","expires_in":3600}`)
	})
	mux.HandleFunc("/v2/checkout/orders/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"ord_1","status":"COMPLETED","purchase_units":[{"custom_id":"rec_1","amount":{"currency_code":"USD","value":"75.00"}}]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry, metrics.Config{ServiceName: "youthbridge", Environment: "test"})

	client := New(Params{
		Cfg: config.Config{
			PayPalBaseURL:      server.URL,
			PayPalClientID:     "client",
			PayPalClientSecret: "secret",
			ProviderTimeout:    5 * time.Second,
		},
		Metrics: m,
	})

	order, err := client.GetOrder(context.Background(), "ord_1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Status != OrderStatusCompleted {
		t.Fatalf("expected COMPLETED order, got %q", order.Status)
	}

	// One series per operation: the token fetch and the order lookup.
	count, err := testutil.GatherAndCount(registry, "youthbridge_provider_api_duration_seconds")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 latency series, got %d", count)
	}
}

func TestGetOrderWithoutMetricsRegistry(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","expires_in":3600}`)
	})
	mux.HandleFunc("/v2/checkout/orders/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"ord_2","status":"APPROVED","purchase_units":[]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := New(Params{Cfg: config.Config{
		PayPalBaseURL:      server.URL,
		PayPalClientID:     "client",
		PayPalClientSecret: "secret",
		ProviderTimeout:    5 * time.Second,
	}})

	order, err := client.GetOrder(context.Background(), "ord_2")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.ID != "ord_2" {
		t.Fatalf("expected ord_2, got %q", order.ID)
	}
}
