package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Mode        ModeConfig        `yaml:"mode"`
	Engine      EngineConfig      `yaml:"engine"`
	Momentum    MomentumConfig    `yaml:"momentum"`
	Compression CompressionConfig `yaml:"compression"`
	Feed        FeedConfig        `yaml:"feed"`
	Venues      VenuesConfig      `yaml:"venues"`
	Execution   ExecutionConfig   `yaml:"execution"`
	Storage     StorageConfig     `yaml:"storage"`
	Log         LogConfig         `yaml:"log"`
}

// ModeConfig selecciona cómo se manejan las órdenes.
type ModeConfig struct {
	Simulation bool `yaml:"simulation"` // true: fills simulados, sin órdenes al venue
}

// EngineConfig controla los loops periódicos.
type EngineConfig struct {
	OddsRefreshMinutes  int `yaml:"odds_refresh_minutes"`
	LiveFixtureSeconds  int `yaml:"live_fixture_seconds"`
	StatsMinutes        int `yaml:"stats_minutes"`
	MonitorSeconds      int `yaml:"monitor_seconds"`
	IngestPollSeconds   int `yaml:"ingest_poll_seconds"`
	GoalDedupWindowSize int `yaml:"goal_dedup_window_size"`
}

// MomentumConfig controla la estrategia de momentum del underdog.
type MomentumConfig struct {
	UnderdogThreshold float64 `yaml:"underdog_threshold"` // prob pre-partido máxima para ser underdog
	MaxTradeSizeUSD   float64 `yaml:"max_trade_size_usd"`
	MaxPositions      int     `yaml:"max_positions"`
	TakeProfitPct     float64 `yaml:"take_profit_pct"`
	StopLossPct       float64 `yaml:"stop_loss_pct"`
	MaxDailyLossUSD   float64 `yaml:"max_daily_loss_usd"`
}

// CompressionConfig controla la estrategia de compresión tardía.
type CompressionConfig struct {
	MinConfidence     float64 `yaml:"min_confidence"`
	MaxTradeSizeUSD   float64 `yaml:"max_trade_size_usd"`
	MinProfitPct      float64 `yaml:"min_profit_pct"`
	MaxSecondsToClose int     `yaml:"max_seconds_to_close"`
	Sport             string  `yaml:"sport"`
}

// FeedConfig apunta al proveedor de datos deportivos.
type FeedConfig struct {
	BaseURL      string  `yaml:"base_url"`
	WebsocketURL string  `yaml:"websocket_url"` // vacío deshabilita el transporte push
	APIKey       string  `yaml:"api_key"`
	LeagueIDs    []int64 `yaml:"league_ids"` // vacío significa todas las ligas
}

// VenuesConfig contiene credenciales y endpoints por venue.
type VenuesConfig struct {
	Polymarket PolymarketConfig `yaml:"polymarket"`
	Kalshi     KalshiConfig     `yaml:"kalshi"`
}

// PolymarketConfig configura el venue de Polymarket.
type PolymarketConfig struct {
	Enabled   bool   `yaml:"enabled"`
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
	APIKey    string `yaml:"api_key"`
}

// KalshiConfig configura el venue de Kalshi.
type KalshiConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BaseURL  string `yaml:"base_url"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// ExecutionConfig controla la confirmación de órdenes.
type ExecutionConfig struct {
	FillPollSeconds    int `yaml:"fill_poll_seconds"`
	FillTimeoutSeconds int `yaml:"fill_timeout_seconds"`
}

// StorageConfig controla dónde se persiste el log de eventos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta del archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Las variables de entorno sobreescriben el YAML para credenciales
// y logging.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Helpers de duración para que los callers nunca conviertan unidades.

func (c *Config) OddsRefreshInterval() time.Duration {
	return time.Duration(c.Engine.OddsRefreshMinutes) * time.Minute
}

func (c *Config) LiveFixtureInterval() time.Duration {
	return time.Duration(c.Engine.LiveFixtureSeconds) * time.Second
}

func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.Engine.StatsMinutes) * time.Minute
}

func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.Engine.MonitorSeconds) * time.Second
}

func (c *Config) IngestPollInterval() time.Duration {
	return time.Duration(c.Engine.IngestPollSeconds) * time.Second
}

func (c *Config) FillPollInterval() time.Duration {
	return time.Duration(c.Execution.FillPollSeconds) * time.Second
}

func (c *Config) FillTimeout() time.Duration {
	return time.Duration(c.Execution.FillTimeoutSeconds) * time.Second
}

// applyEnvOverrides toma credenciales y ajustes de log del entorno.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FEED_API_KEY"); v != "" {
		cfg.Feed.APIKey = v
	}
	if v := os.Getenv("POLYMARKET_API_KEY"); v != "" {
		cfg.Venues.Polymarket.APIKey = v
	}
	if v := os.Getenv("KALSHI_EMAIL"); v != "" {
		cfg.Venues.Kalshi.Email = v
	}
	if v := os.Getenv("KALSHI_PASSWORD"); v != "" {
		cfg.Venues.Kalshi.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Engine.OddsRefreshMinutes <= 0 {
		cfg.Engine.OddsRefreshMinutes = 30
	}
	if cfg.Engine.LiveFixtureSeconds <= 0 {
		cfg.Engine.LiveFixtureSeconds = 30
	}
	if cfg.Engine.StatsMinutes <= 0 {
		cfg.Engine.StatsMinutes = 5
	}
	if cfg.Engine.MonitorSeconds <= 0 {
		cfg.Engine.MonitorSeconds = 5
	}
	if cfg.Engine.IngestPollSeconds <= 0 {
		cfg.Engine.IngestPollSeconds = 10
	}
	if cfg.Engine.GoalDedupWindowSize <= 0 {
		cfg.Engine.GoalDedupWindowSize = 1000
	}
	if cfg.Momentum.UnderdogThreshold <= 0 {
		cfg.Momentum.UnderdogThreshold = 0.40
	}
	if cfg.Momentum.MaxTradeSizeUSD <= 0 {
		cfg.Momentum.MaxTradeSizeUSD = 50
	}
	if cfg.Momentum.MaxPositions <= 0 {
		cfg.Momentum.MaxPositions = 5
	}
	if cfg.Momentum.TakeProfitPct <= 0 {
		cfg.Momentum.TakeProfitPct = 15
	}
	if cfg.Momentum.StopLossPct <= 0 {
		cfg.Momentum.StopLossPct = 10
	}
	if cfg.Momentum.MaxDailyLossUSD <= 0 {
		cfg.Momentum.MaxDailyLossUSD = 200
	}
	if cfg.Compression.MinConfidence <= 0 {
		cfg.Compression.MinConfidence = 0.90
	}
	if cfg.Compression.MaxTradeSizeUSD <= 0 {
		cfg.Compression.MaxTradeSizeUSD = 25
	}
	if cfg.Compression.MinProfitPct <= 0 {
		cfg.Compression.MinProfitPct = 2
	}
	if cfg.Compression.MaxSecondsToClose <= 0 {
		cfg.Compression.MaxSecondsToClose = 900
	}
	if cfg.Compression.Sport == "" {
		cfg.Compression.Sport = "soccer"
	}
	if cfg.Feed.BaseURL == "" {
		cfg.Feed.BaseURL = "https://v3.football.api-sports.io"
	}
	if cfg.Execution.FillPollSeconds <= 0 {
		cfg.Execution.FillPollSeconds = 1
	}
	if cfg.Execution.FillTimeoutSeconds <= 0 {
		cfg.Execution.FillTimeoutSeconds = 10
	}
	if cfg.Venues.Polymarket.CLOBBase == "" {
		cfg.Venues.Polymarket.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.Venues.Polymarket.GammaBase == "" {
		cfg.Venues.Polymarket.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "pitchbot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
