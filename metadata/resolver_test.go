package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, gateway string) *Resolver {
	t.Helper()
	r, err := NewResolver(&Config{
		IPFSGateway: gateway,
		HTTPTimeout: 5 * time.Second,
	}, nil)
	require.NoError(t, err)
	return r
}

func serveJSON(t *testing.T, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	hits := &atomic.Int64{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, hits
}

func TestNewResolverValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "nil config", config: nil, wantErr: true},
		{name: "empty gateway", config: &Config{HTTPTimeout: time.Second}, wantErr: true},
		{name: "zero timeout", config: &Config{IPFSGateway: "https://ipfs.io"}, wantErr: true},
		{name: "valid", config: &Config{IPFSGateway: "https://ipfs.io", HTTPTimeout: time.Second}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(tt.config, nil)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolveEmptyURI(t *testing.T) {
	r := newTestResolver(t, "https://ipfs.io")

	for _, uri := range []string{"", "   "} {
		result := r.Resolve(context.Background(), "42", uri, 1700000000)

		assert.Equal(t, OutcomeDefault, result.Outcome)
		require.NotNil(t, result.Metadata)
		assert.Equal(t, "42", result.Metadata.ID)
		assert.Equal(t, "42", result.Metadata.TokenID)
		assert.Equal(t, "Token 42", result.Metadata.Name)
		assert.Empty(t, result.Metadata.Image)
		assert.Empty(t, result.Metadata.RewardID)
		assert.Equal(t, uint64(1700000000), result.Metadata.UpdatedAt)

		require.NotNil(t, result.Properties)
		assert.Equal(t, "42", result.Properties.TokenID)
		assert.Empty(t, result.Properties.ForgeID)
		assert.Empty(t, result.Attributes)
	}
}

func TestResolveHTTPSuccess(t *testing.T) {
	server, hits := serveJSON(t, `{
		"name": "Iron Sword",
		"description": "A sturdy blade",
		"image": "ipfs://QmImage/sword.png",
		"rewardId": 500,
		"forgeId": "forge-7",
		"attributes": [
			{"trait_type": "rarity", "value": "epic"},
			{"trait_type": "damage", "value": 42.5},
			{"trait_type": "tradeable", "value": true},
			{"value": "orphaned"},
			{"trait_type": "missing"}
		]
	}`)

	r := newTestResolver(t, "https://ipfs.io")
	result := r.Resolve(context.Background(), "7", server.URL+"/meta/7.json", 1700000001)

	assert.Equal(t, OutcomeResolved, result.Outcome)
	assert.Equal(t, int64(1), hits.Load())

	assert.Equal(t, "Iron Sword", result.Metadata.Name)
	assert.Equal(t, "A sturdy blade", result.Metadata.Description)
	assert.Equal(t, "ipfs://QmImage/sword.png", result.Metadata.Image)
	assert.Equal(t, "500", result.Metadata.RewardID, "numeric ids are stringified")
	assert.Equal(t, "forge-7", result.Metadata.ForgeID)
	assert.Equal(t, "forge-7", result.Properties.ForgeID, "properties duplicate the forge id")

	require.Len(t, result.Attributes, 3, "incomplete attribute elements are skipped")
	assert.Equal(t, "7-0", result.Attributes[0].ID)
	assert.Equal(t, 0, result.Attributes[0].Ordinal)
	assert.Equal(t, "rarity", result.Attributes[0].TraitType)
	assert.Equal(t, "epic", result.Attributes[0].Value)
	assert.Equal(t, "42.5", result.Attributes[1].Value)
	assert.Equal(t, "true", result.Attributes[2].Value)
}

func TestResolvePartialPayloadKeepsDefaults(t *testing.T) {
	server, _ := serveJSON(t, `{"name": "Named Only"}`)

	r := newTestResolver(t, "https://ipfs.io")
	result := r.Resolve(context.Background(), "9", server.URL, 0)

	assert.Equal(t, OutcomeResolved, result.Outcome)
	assert.Equal(t, "Named Only", result.Metadata.Name)
	assert.Empty(t, result.Metadata.Description)
	assert.Empty(t, result.Metadata.Image)
	assert.Empty(t, result.Metadata.RewardID)
	assert.Empty(t, result.Properties.ForgeID)
	assert.Empty(t, result.Attributes)
}

func TestResolveIPFSRewritesToGateway(t *testing.T) {
	var gotPath atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath.Store(req.URL.Path)
		_, _ = w.Write([]byte(`{"name": "From IPFS"}`))
	}))
	t.Cleanup(server.Close)

	tests := []struct {
		name     string
		uri      string
		wantPath string
	}{
		{name: "bare cid", uri: "ipfs://QmHash", wantPath: "/ipfs/QmHash"},
		{name: "sub-path dropped", uri: "ipfs://QmHash/42.json", wantPath: "/ipfs/QmHash"},
		{name: "nested sub-path dropped", uri: "ipfs://QmHash/deep/42.json", wantPath: "/ipfs/QmHash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Trailing slash on the gateway must not double up
			r := newTestResolver(t, server.URL+"/")
			result := r.Resolve(context.Background(), "1", tt.uri, 0)

			assert.Equal(t, OutcomeResolved, result.Outcome)
			assert.Equal(t, "From IPFS", result.Metadata.Name)
			assert.Equal(t, tt.wantPath, gotPath.Load())
		})
	}
}

func TestResolveNotFoundFallsBackWithoutRetry(t *testing.T) {
	hits := &atomic.Int64{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	r := newTestResolver(t, "https://ipfs.io")
	result := r.Resolve(context.Background(), "13", server.URL, 1700000002)

	assert.Equal(t, OutcomeFallback, result.Outcome)
	assert.Equal(t, "Token 13", result.Metadata.Name, "defaults survive the failure")
	assert.Equal(t, uint64(1700000002), result.Metadata.UpdatedAt)
	assert.Equal(t, int64(1), hits.Load(), "4xx must not retry")
}

func TestResolveRetriesServerErrors(t *testing.T) {
	hits := &atomic.Int64{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"name": "Eventually"}`))
	}))
	t.Cleanup(server.Close)

	r := newTestResolver(t, "https://ipfs.io")
	result := r.Resolve(context.Background(), "5", server.URL, 0)

	assert.Equal(t, OutcomeResolved, result.Outcome)
	assert.Equal(t, "Eventually", result.Metadata.Name)
	assert.GreaterOrEqual(t, hits.Load(), int64(3))
}

func TestResolveRetriesRateLimit(t *testing.T) {
	hits := &atomic.Int64{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"name": "After Limit"}`))
	}))
	t.Cleanup(server.Close)

	r := newTestResolver(t, "https://ipfs.io")
	result := r.Resolve(context.Background(), "6", server.URL, 0)

	assert.Equal(t, OutcomeResolved, result.Outcome)
	assert.Equal(t, "After Limit", result.Metadata.Name)
	assert.Equal(t, int64(2), hits.Load())
}

func TestResolveExhaustsRetryBudget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	r, err := NewResolver(&Config{IPFSGateway: "https://ipfs.io", HTTPTimeout: time.Second}, nil)
	require.NoError(t, err)

	result := r.Resolve(context.Background(), "8", server.URL, 0)
	assert.Equal(t, OutcomeFallback, result.Outcome)
	assert.Equal(t, "Token 8", result.Metadata.Name)
}

func TestResolveUnparsableBody(t *testing.T) {
	server, _ := serveJSON(t, `this is not json`)

	r := newTestResolver(t, "https://ipfs.io")
	result := r.Resolve(context.Background(), "3", server.URL, 0)

	assert.Equal(t, OutcomeFallback, result.Outcome)
	assert.Equal(t, "Token 3", result.Metadata.Name)
	assert.Empty(t, result.Attributes)
}

func TestResolveUnsupportedScheme(t *testing.T) {
	r := newTestResolver(t, "https://ipfs.io")
	result := r.Resolve(context.Background(), "2", "ftp://example.com/meta.json", 0)

	assert.Equal(t, OutcomeFallback, result.Outcome)
	assert.Equal(t, "Token 2", result.Metadata.Name)
}

func TestResolveCanceledContext(t *testing.T) {
	server, _ := serveJSON(t, `{"name": "Unreachable"}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestResolver(t, "https://ipfs.io")
	result := r.Resolve(ctx, "4", server.URL, 0)

	assert.Equal(t, OutcomeFallback, result.Outcome)
	assert.Equal(t, "Token 4", result.Metadata.Name)
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		want   string
		wantOK bool
	}{
		{name: "string", value: "epic", want: "epic", wantOK: true},
		{name: "integral number", value: float64(500), want: "500", wantOK: true},
		{name: "fractional number", value: 42.5, want: "42.5", wantOK: true},
		{name: "bool", value: true, want: "true", wantOK: true},
		{name: "nil", value: nil, want: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := stringify(tt.value)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
