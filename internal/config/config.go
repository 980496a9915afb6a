package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Target identifies one external API under test. Targets are defined at
// load time and read-only afterwards.
type Target struct {
	Name           string
	BaseURL        string
	Headers        map[string]string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// RetrySettings configures the transport-level retry policy attached to
// every session.
type RetrySettings struct {
	MaxAttempts int
	BackoffBase float64
}

// ProbeSettings configures the rate-limit probe loop.
type ProbeSettings struct {
	MaxRequests  int
	MinDelay     time.Duration
	FallbackWait time.Duration
}

// WebSettings configures the optional browser phase. DevToolsURL is empty
// unless the operator asks for it.
type WebSettings struct {
	BaseURL     string
	DevToolsURL string
	StepTimeout time.Duration
	PageTimeout time.Duration
}

// LogSettings configures the logger. An empty File disables file output.
type LogSettings struct {
	Level string
	File  string
}

// Config is the top-level configuration consumed by the orchestrator.
type Config struct {
	Targets map[string]Target
	Retry   RetrySettings
	Probe   ProbeSettings
	Web     WebSettings
	Logging LogSettings
}

// Target names used throughout the suite.
const (
	TargetJSONPlaceholder = "jsonplaceholder"
	TargetReqRes          = "reqres"
)

// UserAgent identifies the suite on every outbound request.
const UserAgent = "apiprobe/0.1.0"

// Default returns the built-in configuration: both API targets with their
// header sets and timeout pairs, the retry policy, and the probe settings.
func Default() *Config {
	defaultHeaders := map[string]string{
		"Content-Type": "application/json",
		"User-Agent":   UserAgent,
	}

	reqresHeaders := map[string]string{
		"Content-Type":    "application/json",
		"User-Agent":      UserAgent,
		"Accept":          "application/json",
		"x-api-key":       "reqres-free-v1",
		"Accept-Encoding": "gzip, deflate",
		"Connection":      "keep-alive",
	}

	return &Config{
		Targets: map[string]Target{
			TargetJSONPlaceholder: {
				Name:           TargetJSONPlaceholder,
				BaseURL:        "https://jsonplaceholder.typicode.com",
				Headers:        defaultHeaders,
				ConnectTimeout: 5 * time.Second,
				ReadTimeout:    30 * time.Second,
			},
			TargetReqRes: {
				Name:           TargetReqRes,
				BaseURL:        "https://reqres.in/api",
				Headers:        reqresHeaders,
				ConnectTimeout: 5 * time.Second,
				ReadTimeout:    30 * time.Second,
			},
		},
		Retry: RetrySettings{
			MaxAttempts: 3,
			BackoffBase: 2,
		},
		Probe: ProbeSettings{
			MaxRequests:  100,
			MinDelay:     100 * time.Millisecond,
			FallbackWait: 5 * time.Second,
		},
		Web: WebSettings{
			BaseURL:     "https://the-internet.herokuapp.com",
			StepTimeout: 15 * time.Second,
			PageTimeout: 30 * time.Second,
		},
		Logging: LogSettings{
			Level: "info",
		},
	}
}

// fileConfig mirrors Config for YAML decoding. Durations are strings so the
// file can say "5s" or "100ms".
type fileConfig struct {
	Targets map[string]struct {
		BaseURL        string            `yaml:"baseUrl"`
		Headers        map[string]string `yaml:"headers"`
		ConnectTimeout string            `yaml:"connectTimeout"`
		ReadTimeout    string            `yaml:"readTimeout"`
	} `yaml:"targets"`
	Retry struct {
		MaxAttempts int     `yaml:"maxAttempts"`
		BackoffBase float64 `yaml:"backoffBase"`
	} `yaml:"retry"`
	Probe struct {
		MaxRequests  int    `yaml:"maxRequests"`
		MinDelay     string `yaml:"minDelay"`
		FallbackWait string `yaml:"fallbackWait"`
	} `yaml:"probe"`
	Web struct {
		BaseURL     string `yaml:"baseUrl"`
		DevToolsURL string `yaml:"devtoolsUrl"`
		StepTimeout string `yaml:"stepTimeout"`
		PageTimeout string `yaml:"pageTimeout"`
	} `yaml:"web"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// Load returns the default configuration overlaid with values from the
// given YAML file. An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	for name, ft := range fc.Targets {
		t, ok := cfg.Targets[name]
		if !ok {
			t = Target{Name: name, ConnectTimeout: 5 * time.Second, ReadTimeout: 30 * time.Second}
		}
		if ft.BaseURL != "" {
			t.BaseURL = ft.BaseURL
		}
		if ft.Headers != nil {
			t.Headers = ft.Headers
		}
		if t.ConnectTimeout, err = overrideDuration(t.ConnectTimeout, ft.ConnectTimeout); err != nil {
			return nil, fmt.Errorf("target %s: invalid connectTimeout: %w", name, err)
		}
		if t.ReadTimeout, err = overrideDuration(t.ReadTimeout, ft.ReadTimeout); err != nil {
			return nil, fmt.Errorf("target %s: invalid readTimeout: %w", name, err)
		}
		cfg.Targets[name] = t
	}

	if fc.Retry.MaxAttempts > 0 {
		cfg.Retry.MaxAttempts = fc.Retry.MaxAttempts
	}
	if fc.Retry.BackoffBase > 0 {
		cfg.Retry.BackoffBase = fc.Retry.BackoffBase
	}
	if fc.Probe.MaxRequests > 0 {
		cfg.Probe.MaxRequests = fc.Probe.MaxRequests
	}
	if cfg.Probe.MinDelay, err = overrideDuration(cfg.Probe.MinDelay, fc.Probe.MinDelay); err != nil {
		return nil, fmt.Errorf("invalid probe minDelay: %w", err)
	}
	if cfg.Probe.FallbackWait, err = overrideDuration(cfg.Probe.FallbackWait, fc.Probe.FallbackWait); err != nil {
		return nil, fmt.Errorf("invalid probe fallbackWait: %w", err)
	}
	if fc.Web.BaseURL != "" {
		cfg.Web.BaseURL = fc.Web.BaseURL
	}
	if fc.Web.DevToolsURL != "" {
		cfg.Web.DevToolsURL = fc.Web.DevToolsURL
	}
	if cfg.Web.StepTimeout, err = overrideDuration(cfg.Web.StepTimeout, fc.Web.StepTimeout); err != nil {
		return nil, fmt.Errorf("invalid web stepTimeout: %w", err)
	}
	if cfg.Web.PageTimeout, err = overrideDuration(cfg.Web.PageTimeout, fc.Web.PageTimeout); err != nil {
		return nil, fmt.Errorf("invalid web pageTimeout: %w", err)
	}
	if fc.Logging.Level != "" {
		cfg.Logging.Level = fc.Logging.Level
	}
	if fc.Logging.File != "" {
		cfg.Logging.File = fc.Logging.File
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants every consumer relies on.
func Validate(cfg *Config) error {
	if len(cfg.Targets) == 0 {
		return fmt.Errorf("no targets configured")
	}
	for name, t := range cfg.Targets {
		if t.BaseURL == "" {
			return fmt.Errorf("target %s: baseUrl is required", name)
		}
		if t.ConnectTimeout <= 0 || t.ReadTimeout <= 0 {
			return fmt.Errorf("target %s: timeouts must be positive", name)
		}
	}
	if cfg.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry maxAttempts must be at least 1")
	}
	if cfg.Retry.BackoffBase < 1 {
		return fmt.Errorf("retry backoffBase must be at least 1")
	}
	if cfg.Probe.MaxRequests < 1 {
		return fmt.Errorf("probe maxRequests must be at least 1")
	}
	if cfg.Probe.FallbackWait <= 0 {
		return fmt.Errorf("probe fallbackWait must be positive")
	}
	return nil
}

func overrideDuration(current time.Duration, raw string) (time.Duration, error) {
	if raw == "" {
		return current, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration cannot be negative")
	}
	return d, nil
}
