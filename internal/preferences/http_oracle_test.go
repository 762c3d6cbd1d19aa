package preferences

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/notifium/delivery-worker/internal/domain"
)

func TestHTTPOracleChannelEnabled(t *testing.T) {
	t.Parallel()

	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"enabled": true}`))
	}))
	defer server.Close()

	oracle, err := NewHTTPOracle(server.URL, time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHTTPOracle() error = %v", err)
	}

	lookup := oracle.ChannelEnabled(context.Background(), "user1", domain.ChannelEmail)
	if !lookup.Known {
		t.Fatal("lookup should be known")
	}
	if !lookup.Value {
		t.Fatal("channel should be enabled")
	}

	wantPath := "/api/subscription/user/user1/channels/email/enabled"
	if gotPath != wantPath {
		t.Fatalf("path = %q, want %q", gotPath, wantPath)
	}
}

func TestHTTPOracleCategoryDisabled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"enabled": false}`))
	}))
	defer server.Close()

	oracle, err := NewHTTPOracle(server.URL, time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHTTPOracle() error = %v", err)
	}

	lookup := oracle.CategoryEnabled(context.Background(), "user1", "marketing")
	if !lookup.Known {
		t.Fatal("lookup should be known")
	}
	if lookup.Value {
		t.Fatal("category should be disabled")
	}
}

func TestHTTPOracleQuietHours(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"inQuietHours": true}`))
	}))
	defer server.Close()

	oracle, err := NewHTTPOracle(server.URL, time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHTTPOracle() error = %v", err)
	}

	lookup := oracle.InQuietHours(context.Background(), "user1")
	if !lookup.Known || !lookup.Value {
		t.Fatalf("lookup = %+v, want known true", lookup)
	}
}

func TestHTTPOracleNonSuccessIsUnknown(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	oracle, err := NewHTTPOracle(server.URL, time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHTTPOracle() error = %v", err)
	}

	lookup := oracle.ChannelEnabled(context.Background(), "user1", domain.ChannelSMS)
	if lookup.Known {
		t.Fatal("non-success response must yield an Unknown lookup, not a boolean")
	}
}

func TestHTTPOracleTransportFailureIsUnknown(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	oracle, err := NewHTTPOracle(server.URL, time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHTTPOracle() error = %v", err)
	}

	lookup := oracle.InQuietHours(context.Background(), "user1")
	if lookup.Known {
		t.Fatal("transport failure must yield an Unknown lookup")
	}
}

func TestNewHTTPOracleValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewHTTPOracle("", time.Second, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty base url")
	}
	if _, err := NewHTTPOracle("not a url", time.Second, zap.NewNop()); err == nil {
		t.Fatal("expected error for invalid base url")
	}
	if _, err := NewHTTPOracleWithClient("http://subscription-api", nil, zap.NewNop()); err == nil {
		t.Fatal("expected error for nil client")
	}
}
