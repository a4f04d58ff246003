package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del backtester.
type Config struct {
	Backtest BacktestConfig `yaml:"backtest"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// BacktestConfig controla la ventana y el modelo económico del run.
type BacktestConfig struct {
	StartTime      string  `yaml:"start_time"` // RFC3339
	EndTime        string  `yaml:"end_time"`   // RFC3339
	StepSeconds    int     `yaml:"step_seconds"`
	InitialCash    float64 `yaml:"initial_cash"`
	EnableFees     *bool   `yaml:"enable_fees"` // nil = true: las fees van activas salvo opt-out explícito
	EnableInterest bool    `yaml:"enable_interest"`
	InterestAPY    float64 `yaml:"interest_apy"`
	KalshiMakerFee bool    `yaml:"kalshi_maker_fee"` // si los makers de Kalshi también pagan fee
}

// APIConfig apunta al gateway de datos históricos.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Tier    string `yaml:"tier"`    // free | dev | enterprise
	QPS     int    `yaml:"qps"`     // 0 = default del tier
	Per10s  int    `yaml:"per_10s"` // 0 = default del tier
}

// StorageConfig controla dónde se persisten los runs.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
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

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Window devuelve la ventana del backtest ya parseada.
func (c *Config) Window() (start, end time.Time, err error) {
	start, err = time.Parse(time.RFC3339, c.Backtest.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config.Window: start_time: %w", err)
	}
	end, err = time.Parse(time.RFC3339, c.Backtest.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config.Window: end_time: %w", err)
	}
	return start, end, nil
}

// Step devuelve el paso del clock como time.Duration.
func (c *Config) Step() time.Duration {
	return time.Duration(c.Backtest.StepSeconds) * time.Second
}

// FeesEnabled devuelve el estado efectivo del modelo de fees.
// Omitir enable_fees en el YAML equivale a true.
func (c *Config) FeesEnabled() bool {
	return c.Backtest.EnableFees == nil || *c.Backtest.EnableFees
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DOME_API_KEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv("DOME_API_TIER"); v != "" {
		cfg.API.Tier = v
	}
	if v := os.Getenv("BACKBOT_INITIAL_CASH"); v != "" {
		if cash, err := strconv.ParseFloat(v, 64); err == nil && cash > 0 {
			cfg.Backtest.InitialCash = cash
		}
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
	if cfg.Backtest.StepSeconds <= 0 {
		cfg.Backtest.StepSeconds = 3600
	}
	if cfg.Backtest.InitialCash <= 0 {
		cfg.Backtest.InitialCash = 10_000
	}
	if cfg.Backtest.InterestAPY <= 0 {
		cfg.Backtest.InterestAPY = 0.04
	}
	if cfg.API.Tier == "" {
		cfg.API.Tier = "free"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "backbot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// validate comprueba lo que no puede tener default razonable.
func validate(cfg *Config) error {
	if cfg.Backtest.StartTime == "" || cfg.Backtest.EndTime == "" {
		return fmt.Errorf("backtest.start_time and backtest.end_time are required")
	}
	start, end, err := cfg.Window()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("backtest.start_time must be before end_time")
	}
	return nil
}
