package structures

import (
	"net/http"
	"time"
)

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type Route struct {
	Method  string
	Url     string
	Handler http.Handler
}

// Pattern is the ServeMux pattern of the route, e.g. "GET /worlds".
func (r Route) Pattern() string {
	if r.Method == "" {
		return r.Url
	}
	return r.Method + " " + r.Url
}

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	TablePath    string        `yaml:"tablePath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

// ChannelLimits holds the clamp ceiling of every chart channel.
type ChannelLimits struct {
	Visits     float64 `yaml:"visits"`
	Favorites  float64 `yaml:"favorites"`
	Heat       float64 `yaml:"heat"`
	Popularity float64 `yaml:"popularity"`
}

type ChartConfig struct {
	Width  int           `yaml:"width"`
	Height int           `yaml:"height"`
	Margin int           `yaml:"margin"`
	Limits ChannelLimits `yaml:"limits"`
}

type DashboardConfig struct {
	PanelWidth int `yaml:"panelWidth"`
}

type FetchConfig struct {
	BaseURL    string        `yaml:"baseURL"`
	Limit      int           `yaml:"limit"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"maxRetries"`
	RateLimit  float64       `yaml:"rateLimit"`
	Cookie     string        `yaml:"cookie"`
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server          `yaml:"webServer"`
	Persistence Persistence     `yaml:"persistence"`
	Logger      LoggerConfig    `yaml:"logger"`
	Chart       ChartConfig     `yaml:"chart"`
	Dashboard   DashboardConfig `yaml:"dashboard"`
	Fetch       FetchConfig     `yaml:"fetch"`
	Cache       CacheConfig     `yaml:"cache"`
	Metrics     MetricsConfig   `yaml:"metrics"`
}
