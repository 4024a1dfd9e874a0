// Package profiling starts the optional pprof listener and Pyroscope agent.
package profiling

// Config switches both profilers. Everything is off by default.
type Config struct {
	Pprof     bool   `env:"ENABLE_PROFILING"            yaml:"pprof"`
	PprofPort string `env:"PPROF_PORT"                  yaml:"pprof_port"`
	Pyroscope bool   `env:"ENABLE_CONTINUOUS_PROFILING" yaml:"pyroscope"`
	ServerURL string `env:"PYROSCOPE_SERVER_URL"        yaml:"pyroscope_url"`
	// Environment tags Pyroscope profiles.
	Environment string `env:"PYROSCOPE_ENVIRONMENT" yaml:"environment"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.PprofPort == "" {
		c.PprofPort = "6060"
	}
	if c.ServerURL == "" {
		c.ServerURL = "http://pyroscope:4040"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
}
