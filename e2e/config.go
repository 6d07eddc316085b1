package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_SERVER_URL targets a running server; when empty the suite boots one in-process.
	ServerURL string `envconfig:"E2E_SERVER_URL"`
	// E2E_COLOURS enables colorized step headers for better log readability
	Colours  bool          `envconfig:"E2E_COLOURS" default:"true"`
	LogLevel string        `envconfig:"E2E_LOG_LEVEL" default:"ERROR"`
	Timeout  time.Duration `envconfig:"E2E_TIMEOUT" default:"3s"`
	// Quiet is how long a connection must stay silent to count as "received nothing".
	Quiet time.Duration `envconfig:"E2E_QUIET" default:"300ms"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
