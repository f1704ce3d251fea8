package constants

import (
	"time"
)

// Remote API
const (
	// DefaultAPIBaseURL is the NeuroPassword API root. Endpoint paths are
	// relative to it ("folders/", "user/generate-token/").
	DefaultAPIBaseURL = "https://dev.api.neuropassword.com/api/"

	// DefaultRequestTimeout bounds a single API call including body read.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultMaxRetries - automatic retries are off unless configured.
	// Even when enabled only idempotent reads are retried.
	DefaultMaxRetries = 0

	// MaxRetriesLimit caps the configurable retry count.
	MaxRetriesLimit = 5

	// RetryWaitMin / RetryWaitMax bound the backoff between read retries.
	RetryWaitMin = 500 * time.Millisecond
	RetryWaitMax = 5 * time.Second
)

// Durable storage keys. These mirror the browser storage keys used by the web
// client so that a migrated store keeps working.
const (
	KeyAccessToken   = "access_token"
	KeyRefreshToken  = "refresh_token"
	KeyAuthenticated = "isAuthenticated"
	KeySeedPhrase    = "seedPhrase"
	KeyRedirectPath  = "redirectPath"
	KeyFolders       = "np_folders"
)

// AuthenticatedFlag is the only value of KeyAuthenticated that counts as set.
const AuthenticatedFlag = "true"

// Client routes
const (
	RouteRoot      = "/"
	RouteLogin     = "/login"
	RouteRegister  = "/register"
	RouteDashboard = "/dashboard"
)

// Store
const (
	// StoreFileName is the bbolt database file inside the config directory.
	StoreFileName = "store.db"

	// StoreBucket holds every key of the store.
	StoreBucket = "npass"

	// StoreOpenTimeout - how long to wait for another process holding the
	// store's file lock before giving up.
	StoreOpenTimeout = 1 * time.Second
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels
	EventBusDefaultBuffer = 64

	// EventBusMaxBuffer - maximum buffer size
	EventBusMaxBuffer = 1024
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (15 seconds)
	HTTPTLSHandshakeTimeout = 15 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// ProxyWarmupTimeout bounds the optional proxy warmup request.
	ProxyWarmupTimeout = 15 * time.Second
)

// Log files
const (
	LogFileName      = "npass.log"
	LogFileMaxSizeMB = 10
	LogFileMaxBackup = 3
	LogFileMaxAgeDay = 28
)
