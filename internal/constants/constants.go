package constants

import "time"

// API server constants
const (
	// DefaultAPIHost is the default API server host
	DefaultAPIHost = "localhost"

	// DefaultAPIPort is the default API server port
	DefaultAPIPort = 8080

	// MinPort is the minimum valid port number
	MinPort = 1

	// MaxPort is the maximum valid port number
	MaxPort = 65535

	// DefaultReadTimeout is the default HTTP read timeout
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout is the default HTTP write timeout
	DefaultWriteTimeout = 15 * time.Second

	// DefaultIdleTimeout is the default HTTP idle timeout
	DefaultIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the default graceful shutdown timeout
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultMaxHeaderBytes is the maximum size of request headers
	DefaultMaxHeaderBytes = 1 << 20 // 1 MB
)

// API paths
const (
	// DefaultGraphQLPath is the default GraphQL endpoint path
	DefaultGraphQLPath = "/graphql"

	// DefaultPlaygroundPath is the default GraphQL playground path
	DefaultPlaygroundPath = "/playground"

	// DefaultWebSocketPath is the default WebSocket endpoint path
	DefaultWebSocketPath = "/ws"
)

// Backfill constants
const (
	// DefaultMaxBlockSpan is the widest block range a single log query may
	// cover, kept safely below common provider hard limits.
	DefaultMaxBlockSpan = 2000

	// DefaultMaxAttempts is how many providers a failing sub-range query is
	// tried against before the range is abandoned.
	DefaultMaxAttempts = 3

	// DefaultRequestsPerSecond bounds the sub-range query rate.
	DefaultRequestsPerSecond = 5

	// DefaultScanInterval is how often derived state is rebuilt from the
	// configured start block.
	DefaultScanInterval = 5 * time.Minute
)

// RPC constants
const (
	// DefaultRPCTimeout is the default timeout for a single RPC call
	DefaultRPCTimeout = 30 * time.Second
)

// Metadata constants
const (
	// DefaultIPFSGateway serves content-addressed metadata retrieval
	DefaultIPFSGateway = "https://ipfs.io"

	// DefaultMetadataTimeout bounds a whole metadata retrieval including
	// retries.
	DefaultMetadataTimeout = 30 * time.Second
)

// Pagination constants
const (
	// DefaultPageSize is the page size applied when a list query gives none
	DefaultPageSize = 100

	// MaxPageSize is the hard cap on a requested page size
	MaxPageSize = 1000
)

// WebSocket constants
const (
	// DefaultWSReadBufferSize is the default WebSocket read buffer size
	DefaultWSReadBufferSize = 1024

	// DefaultWSWriteBufferSize is the default WebSocket write buffer size
	DefaultWSWriteBufferSize = 1024

	// DefaultWSPingInterval is the default WebSocket ping interval
	DefaultWSPingInterval = 30 * time.Second

	// DefaultWSPongTimeout is the default WebSocket pong timeout
	DefaultWSPongTimeout = 60 * time.Second

	// DefaultWSWriteTimeout is the default WebSocket write timeout
	DefaultWSWriteTimeout = 10 * time.Second
)

// Notification bus constants
const (
	// DefaultEventBufferSize is the default per-subscriber buffer size
	DefaultEventBufferSize = 100

	// DefaultMaxSubscribers is the default maximum number of subscribers
	DefaultMaxSubscribers = 1000
)

// Time constants
const (
	// SecondsPerDay is the width of a daily statistics bucket
	SecondsPerDay = 86400
)
