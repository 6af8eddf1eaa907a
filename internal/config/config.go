package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr           string `yaml:"addr"`
	ReadTimeoutMS  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms"`
	IdleTimeoutMS  int    `yaml:"idle_timeout_ms"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes"`
}

type Observability struct {
	LogLevel       string `yaml:"log_level"`       // "debug","info","warn","error"
	PrometheusPath string `yaml:"prometheus_path"` // e.g. "/metrics"
}

// Window is one fixed-window policy plus its sweeper cadence.
type Window struct {
	MaxRequests  int `yaml:"max_requests"`
	WindowMS     int `yaml:"window_ms"`
	SweepEveryMS int `yaml:"sweep_every_ms"`
}

type Limits struct {
	Chat    Window `yaml:"chat"`
	Visitor struct {
		WindowMS     int `yaml:"window_ms"`
		SweepEveryMS int `yaml:"sweep_every_ms"`
	} `yaml:"visitor"`
}

type Upstream struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	TimeoutMS   int     `yaml:"timeout_ms"`
	OutboundRPS float64 `yaml:"outbound_rps"`
	Burst       int     `yaml:"burst"`
	APIKey      string  `yaml:"-"` // env: COMPLETION_API_KEY
}

type Notify struct {
	From   string   `yaml:"from"`
	To     []string `yaml:"to"`
	APIKey string   `yaml:"-"` // env: RESEND_API_KEY
}

// Redis is optional. When Addr is set the visitor counter persists there and
// the chat limiter switches to the shared fixed-window backend.
type Redis struct {
	Addr     string `yaml:"addr"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"` // env: REDIS_PASSWORD
}

type Root struct {
	Server        Server        `yaml:"server"`
	Observability Observability `yaml:"observability"`
	Limits        Limits        `yaml:"limits"`
	Upstream      Upstream      `yaml:"upstream"`
	Notify        Notify        `yaml:"notify"`
	Redis         Redis         `yaml:"redis"`
}

func (s Server) ReadTimeout() time.Duration {
	if s.ReadTimeoutMS == 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

func (s Server) WriteTimeout() time.Duration {
	if s.WriteTimeoutMS == 0 {
		return 60 * time.Second
	}
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

func (s Server) IdleTimeout() time.Duration {
	if s.IdleTimeoutMS == 0 {
		return 60 * time.Second
	}
	return time.Duration(s.IdleTimeoutMS) * time.Millisecond
}

func (s Server) MaxBody() int64 {
	if s.MaxBodyBytes == 0 {
		return 64 << 10
	}
	return s.MaxBodyBytes
} // default 64KB, chat payloads are small

func (w Window) Window() time.Duration {
	return time.Duration(w.WindowMS) * time.Millisecond
}

func (w Window) SweepEvery() time.Duration {
	return time.Duration(w.SweepEveryMS) * time.Millisecond
}

func (l Limits) VisitorWindow() time.Duration {
	return time.Duration(l.Visitor.WindowMS) * time.Millisecond
}

func (l Limits) VisitorSweepEvery() time.Duration {
	return time.Duration(l.Visitor.SweepEveryMS) * time.Millisecond
}

func (u Upstream) Timeout() time.Duration {
	return time.Duration(u.TimeoutMS) * time.Millisecond
}

// Load reads the YAML file, applies defaults, and pulls secrets from the
// environment. A missing file is not an error: defaults plus environment are
// enough for a dev run.
func Load(path string) (*Root, error) {
	var cfg Root
	b, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Observability.PrometheusPath == "" {
		cfg.Observability.PrometheusPath = "/metrics"
	}
	if cfg.Limits.Chat.MaxRequests <= 0 {
		cfg.Limits.Chat.MaxRequests = 10
	}
	if cfg.Limits.Chat.WindowMS <= 0 {
		cfg.Limits.Chat.WindowMS = 60_000
	}
	if cfg.Limits.Chat.SweepEveryMS <= 0 {
		cfg.Limits.Chat.SweepEveryMS = 5 * 60_000
	}
	if cfg.Limits.Visitor.WindowMS <= 0 {
		cfg.Limits.Visitor.WindowMS = 60 * 60_000
	}
	if cfg.Limits.Visitor.SweepEveryMS <= 0 {
		cfg.Limits.Visitor.SweepEveryMS = 10 * 60_000
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Upstream.Model == "" {
		cfg.Upstream.Model = "llama-3.3-70b-versatile"
	}
	if cfg.Upstream.TimeoutMS <= 0 {
		cfg.Upstream.TimeoutMS = 30_000
	}
	if cfg.Upstream.OutboundRPS <= 0 {
		cfg.Upstream.OutboundRPS = 5
	}
	if cfg.Upstream.Burst <= 0 {
		cfg.Upstream.Burst = 10
	}
	if cfg.Notify.From == "" {
		cfg.Notify.From = "alerts@bspot-technologies.example"
	}

	cfg.Upstream.APIKey = os.Getenv("COMPLETION_API_KEY")
	cfg.Notify.APIKey = os.Getenv("RESEND_API_KEY")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")

	return &cfg, nil
}
