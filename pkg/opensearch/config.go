package opensearch

// Config holds cluster credentials and index behaviour. The node address
// comes from the session backend address.
type Config struct {
	Scheme       string `env:"OPENSEARCH_SCHEME" envDefault:"https"`
	Username     string `env:"OPENSEARCH_USERNAME"`
	Password     string `env:"OPENSEARCH_PASSWORD"`
	MaxRetries   int    `env:"OPENSEARCH_MAX_RETRIES" envDefault:"3"`
	DisableRetry bool   `env:"OPENSEARCH_DISABLE_RETRY" envDefault:"false"`

	// IndexPrefix is prepended to the lower-cased namespace to name the index.
	IndexPrefix string `env:"OPENSEARCH_INDEX_PREFIX"`
	// Refresh is passed on writes; "wait_for" makes them visible to expiry scans before returning.
	Refresh string `env:"OPENSEARCH_REFRESH" envDefault:"wait_for"`
	// ScanLimit caps how many expired ids one scan returns.
	ScanLimit int `env:"OPENSEARCH_SCAN_LIMIT" envDefault:"1000"`
}
