// Package metadata resolves off-chain token metadata references into stored
// records. Resolution never fails outright: any retrieval or parse problem
// falls back to deterministic defaults so the scan pipeline keeps moving.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/0xmhha/forge-indexer-go/internal/constants"
	"github.com/0xmhha/forge-indexer-go/storage"
)

const ipfsScheme = "ipfs://"

// Outcome classifies how a resolution ended
type Outcome string

const (
	// OutcomeResolved means the URI was fetched and parsed
	OutcomeResolved Outcome = "resolved"
	// OutcomeDefault means there was no URI to resolve
	OutcomeDefault Outcome = "default"
	// OutcomeFallback means retrieval or parsing failed and defaults were used
	OutcomeFallback Outcome = "fallback"
)

// Config holds metadata resolver configuration
type Config struct {
	// IPFSGateway serves ipfs:// references over HTTP
	IPFSGateway string
	// HTTPTimeout bounds one whole retrieval including retries
	HTTPTimeout time.Duration
}

// DefaultConfig returns a resolver configuration with default values
func DefaultConfig() *Config {
	return &Config{
		IPFSGateway: constants.DefaultIPFSGateway,
		HTTPTimeout: constants.DefaultMetadataTimeout,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.IPFSGateway == "" {
		return fmt.Errorf("ipfs gateway cannot be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	return nil
}

// Result is everything a resolution produces. Metadata and Properties are
// always populated; Attributes only when the payload carries them.
type Result struct {
	Outcome    Outcome
	Metadata   *storage.TokenMetadata
	Properties *storage.TokenProperties
	Attributes []*storage.TokenAttribute
}

// Resolver retrieves and parses token metadata documents
type Resolver struct {
	config *Config
	client *http.Client
	logger *zap.Logger
}

// NewResolver creates a metadata resolver
func NewResolver(config *Config, logger *zap.Logger) (*Resolver, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		config: config,
		client: &http.Client{Timeout: config.HTTPTimeout},
		logger: logger,
	}, nil
}

// payload is the recognized shape of a token metadata document. RewardID and
// ForgeID tolerate numeric JSON values, which some mint pipelines emit.
type payload struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Image       string             `json:"image"`
	RewardID    interface{}        `json:"rewardId"`
	ForgeID     interface{}        `json:"forgeId"`
	Attributes  []payloadAttribute `json:"attributes"`
}

type payloadAttribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// Resolve produces the metadata records for a token. It never returns an
// error: an empty URI yields defaults immediately, and any retrieval or
// parse failure falls back to the same defaults with the failure logged.
// updatedAt is the block timestamp of the event that triggered resolution.
func (r *Resolver) Resolve(ctx context.Context, tokenID, uri string, updatedAt uint64) *Result {
	result := r.defaults(tokenID, updatedAt)

	uri = strings.TrimSpace(uri)
	if uri == "" {
		return result
	}

	body, err := r.retrieve(ctx, uri)
	if err != nil {
		r.logger.Warn("metadata retrieval failed, using defaults",
			zap.String("token_id", tokenID),
			zap.String("uri", uri),
			zap.Error(err))
		result.Outcome = OutcomeFallback
		return result
	}

	var doc payload
	if err := json.Unmarshal(body, &doc); err != nil {
		r.logger.Warn("metadata payload unparsable, using defaults",
			zap.String("token_id", tokenID),
			zap.String("uri", uri),
			zap.Error(err))
		result.Outcome = OutcomeFallback
		return result
	}

	if doc.Name != "" {
		result.Metadata.Name = doc.Name
	}
	if doc.Description != "" {
		result.Metadata.Description = doc.Description
	}
	if doc.Image != "" {
		result.Metadata.Image = doc.Image
	}
	if v, ok := stringify(doc.RewardID); ok {
		result.Metadata.RewardID = v
	}
	if v, ok := stringify(doc.ForgeID); ok {
		result.Metadata.ForgeID = v
		result.Properties.ForgeID = v
	}

	for _, attr := range doc.Attributes {
		value, ok := stringify(attr.Value)
		if attr.TraitType == "" || !ok {
			continue
		}
		ordinal := len(result.Attributes)
		result.Attributes = append(result.Attributes, &storage.TokenAttribute{
			ID:        fmt.Sprintf("%s-%d", tokenID, ordinal),
			TokenID:   tokenID,
			Ordinal:   ordinal,
			TraitType: attr.TraitType,
			Value:     value,
		})
	}

	result.Outcome = OutcomeResolved
	return result
}

// defaults builds the fallback records for a token
func (r *Resolver) defaults(tokenID string, updatedAt uint64) *Result {
	return &Result{
		Outcome: OutcomeDefault,
		Metadata: &storage.TokenMetadata{
			ID:        tokenID,
			TokenID:   tokenID,
			Name:      fmt.Sprintf("Token %s", tokenID),
			UpdatedAt: updatedAt,
		},
		Properties: &storage.TokenProperties{
			ID:      tokenID,
			TokenID: tokenID,
		},
	}
}

// retrieve fetches the document behind a URI
func (r *Resolver) retrieve(ctx context.Context, uri string) ([]byte, error) {
	switch {
	case strings.HasPrefix(uri, ipfsScheme):
		return r.get(ctx, r.gatewayURL(uri))
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return r.get(ctx, uri)
	default:
		return nil, fmt.Errorf("unsupported URI scheme: %s", uri)
	}
}

// gatewayURL rewrites an ipfs:// reference onto the configured gateway.
// Sub-paths after the CID are dropped; the root document is the metadata.
func (r *Resolver) gatewayURL(uri string) string {
	cid := strings.TrimPrefix(uri, ipfsScheme)
	if i := strings.Index(cid, "/"); i >= 0 {
		cid = cid[:i]
	}
	return fmt.Sprintf("%s/ipfs/%s", strings.TrimRight(r.config.IPFSGateway, "/"), cid)
}

// get performs a GET with exponential backoff. Rate limits and server errors
// retry; other client errors are permanent.
func (r *Resolver) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var respBody []byte
	operation := func() error {
		resp, err := r.client.Do(req)
		if err != nil {
			// Network errors are retryable
			return fmt.Errorf("failed to perform request: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				r.logger.Warn("failed to close response body", zap.Error(err), zap.String("url", url))
			}
		}()

		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("rate limited (429), retrying")
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(fmt.Errorf("unexpected status code %d", resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("unexpected status code %d", resp.StatusCode)
		}

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = r.config.HTTPTimeout

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("request failed after retries: %w", err)
	}
	return respBody, nil
}

// stringify renders a parsed JSON value as a string. Numbers lose no
// precision for the integral ids this contract emits.
func stringify(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return fmt.Sprintf("%v", val), true
	}
}
