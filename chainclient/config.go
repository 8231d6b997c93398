package chainclient

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables consumed by the client. A .env file is honoured
// when present; real environment variables win.
const (
	EnvRPCURL  = "RX_CHAIN_RPC_URL"
	EnvTimeout = "RX_CHAIN_TIMEOUT"

	// DefaultRPCURL is the documented local ledger gateway endpoint
	DefaultRPCURL  = "http://127.0.0.1:8545"
	DefaultTimeout = 5 * time.Second
)

// Config carries the ledger client settings
type Config struct {
	RPCURL  string
	Timeout time.Duration
}

// LoadConfig reads the client configuration from the environment, falling
// back to the documented local defaults.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		RPCURL:  os.Getenv(EnvRPCURL),
		Timeout: DefaultTimeout,
	}
	if cfg.RPCURL == "" {
		cfg.RPCURL = DefaultRPCURL
	}
	if raw := os.Getenv(EnvTimeout); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}
