package elasticsearch

import (
	"net/http"
	"time"

	"github.com/jonesrussell/infobox/infrastructure/retry"
)

const (
	defaultURL         = "http://localhost:9200"
	defaultMaxRetries  = 3
	defaultPingTimeout = 5 * time.Second
)

// Config is the connection section of a service config.
type Config struct {
	URL      string `env:"ELASTICSEARCH_URL"      yaml:"url"`
	Username string `env:"ELASTICSEARCH_USERNAME" yaml:"username"`
	Password string `env:"ELASTICSEARCH_PASSWORD" yaml:"password"`
	APIKey   string `env:"ELASTICSEARCH_API_KEY"  yaml:"api_key"`

	TLS TLSConfig `yaml:"tls"`

	// MaxRetries is the client's per-request retry count.
	MaxRetries  int           `env:"ELASTICSEARCH_MAX_RETRIES" yaml:"max_retries"`
	PingTimeout time.Duration `yaml:"ping_timeout"`

	// Connect governs the startup ping loop. Zero fields use five attempts
	// starting at two seconds.
	Connect retry.Config `yaml:"-"`

	// Transport replaces the HTTP transport. Tests inject a fake here.
	Transport http.RoundTripper `yaml:"-"`
}

// TLSConfig enables HTTPS to the cluster.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	CertFile           string `yaml:"cert_file"`
	KeyFile            string `yaml:"key_file"`
	CAFile             string `yaml:"ca_file"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.URL == "" {
		c.URL = defaultURL
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = defaultPingTimeout
	}
	if c.Connect.MaxAttempts == 0 {
		c.Connect.MaxAttempts = 5
	}
	if c.Connect.InitialDelay == 0 {
		c.Connect.InitialDelay = 2 * time.Second
	}
	if c.Connect.MaxDelay == 0 {
		c.Connect.MaxDelay = 10 * time.Second
	}
}
