package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/TroExol/LDmarket/internal/domain"
)

// Config es la configuración completa del trader.
type Config struct {
	Trader   TraderConfig   `yaml:"trader"`
	API      APIConfig      `yaml:"api"`
	Settings SettingsConfig `yaml:"settings"`
	Storage  StorageConfig  `yaml:"storage"`
	Pushover PushoverConfig `yaml:"pushover"`
	Log      LogConfig      `yaml:"log"`
}

// TraderConfig controla los bucles periódicos del motor.
type TraderConfig struct {
	CreateIntervalSeconds   int `yaml:"create_interval_seconds"`   // creación de órdenes en reposo
	RepriceIntervalSeconds  int `yaml:"reprice_interval_seconds"`  // revisión/repricing de órdenes abiertas
	BookkeepIntervalSeconds int `yaml:"bookkeep_interval_seconds"` // lectura de notificaciones del marketplace
	ReloadIntervalSeconds   int `yaml:"reload_interval_seconds"`   // sondeo del fichero de settings
}

// APIConfig contiene los endpoints y credenciales del marketplace.
// Las credenciales nunca van en el YAML: se leen del entorno (o .env).
type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	WSURL     string `yaml:"ws_url"`
	Cookie    string `yaml:"-"` // LOOTDOG_COOKIE
	CSRFToken string `yaml:"-"` // LOOTDOG_CSRF_TOKEN
	WSToken   string `yaml:"-"` // LOOTDOG_WS_TOKEN
}

// SettingsConfig es la parte viva de la configuración: se relee del fichero
// mientras el trader corre. Mapea 1:1 a domain.Settings.
type SettingsConfig struct {
	CommissionPct float64 `yaml:"commission_pct"`

	DaysWent              int `yaml:"days_went"`
	MinSalesByWeek        int `yaml:"min_sales_by_week"`
	CountSalesByThreeDays int `yaml:"count_sales_by_three_days"`
	DaysSells             int `yaml:"days_sells"`

	Buy   BuyConfig   `yaml:"buy"`
	Order OrderConfig `yaml:"order"`

	MaxNotProfitOrders int      `yaml:"max_not_profit_orders"`
	Blacklist          []string `yaml:"blacklist"`
}

// BuyConfig controla el modo de compra instantánea.
type BuyConfig struct {
	Enabled      bool             `yaml:"enabled"`
	MinCost      float64          `yaml:"min_cost"`
	MaxCost      float64          `yaml:"max_cost"`
	MaxSameItems int              `yaml:"max_same_items"`
	Tiers        domain.TierTable `yaml:"tiers"`
}

// OrderConfig controla el modo de órdenes en reposo.
type OrderConfig struct {
	Enabled      bool             `yaml:"enabled"`
	MinCost      float64          `yaml:"min_cost"`
	MaxCost      float64          `yaml:"max_cost"`
	MaxSameItems int              `yaml:"max_same_items"`
	MaxOrders    int              `yaml:"max_orders"`
	MaxPages     int              `yaml:"max_pages"`
	Tiers        domain.TierTable `yaml:"tiers"`
}

// StorageConfig controla dónde se persisten las operaciones.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// PushoverConfig habilita notificaciones push. Vacío = deshabilitado.
// Las claves se leen del entorno (PUSHOVER_TOKEN / PUSHOVER_USER).
type PushoverConfig struct {
	Token string `yaml:"-"`
	User  string `yaml:"-"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del entorno sobreescriben los del YAML para las keys que correspondan.
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

	return &cfg, nil
}

// CreateInterval devuelve el intervalo de creación de órdenes como time.Duration.
func (c *Config) CreateInterval() time.Duration {
	return time.Duration(c.Trader.CreateIntervalSeconds) * time.Second
}

// RepriceInterval devuelve el intervalo de repricing como time.Duration.
func (c *Config) RepriceInterval() time.Duration {
	return time.Duration(c.Trader.RepriceIntervalSeconds) * time.Second
}

// BookkeepInterval devuelve el intervalo de notificaciones como time.Duration.
func (c *Config) BookkeepInterval() time.Duration {
	return time.Duration(c.Trader.BookkeepIntervalSeconds) * time.Second
}

// ReloadInterval devuelve el intervalo de sondeo de settings como time.Duration.
func (c *Config) ReloadInterval() time.Duration {
	return time.Duration(c.Trader.ReloadIntervalSeconds) * time.Second
}

// TradingSettings proyecta la sección viva del YAML a domain.Settings.
func (c *Config) TradingSettings() domain.Settings {
	return domain.Settings{
		CommissionPct: c.Settings.CommissionPct,

		DaysWent:              c.Settings.DaysWent,
		MinSalesByWeek:        c.Settings.MinSalesByWeek,
		CountSalesByThreeDays: c.Settings.CountSalesByThreeDays,
		DaysSells:             c.Settings.DaysSells,

		BuyEnabled:        c.Settings.Buy.Enabled,
		MinCostBuy:        c.Settings.Buy.MinCost,
		MaxCostBuy:        c.Settings.Buy.MaxCost,
		MaxSameItemsToBuy: c.Settings.Buy.MaxSameItems,
		BuyTiers:          c.Settings.Buy.Tiers,

		OrderEnabled:        c.Settings.Order.Enabled,
		MinCostOrder:        c.Settings.Order.MinCost,
		MaxCostOrder:        c.Settings.Order.MaxCost,
		MaxSameItemsToOrder: c.Settings.Order.MaxSameItems,
		OrderTiers:          c.Settings.Order.Tiers,
		MaxOrders:           c.Settings.Order.MaxOrders,
		MaxPages:            c.Settings.Order.MaxPages,

		MaxNotProfitOrders: c.Settings.MaxNotProfitOrders,
		Blacklist:          c.Settings.Blacklist,
	}
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOOTDOG_COOKIE"); v != "" {
		cfg.API.Cookie = v
	}
	if v := os.Getenv("LOOTDOG_CSRF_TOKEN"); v != "" {
		cfg.API.CSRFToken = v
	}
	if v := os.Getenv("LOOTDOG_WS_TOKEN"); v != "" {
		cfg.API.WSToken = v
	}
	if v := os.Getenv("PUSHOVER_TOKEN"); v != "" {
		cfg.Pushover.Token = v
	}
	if v := os.Getenv("PUSHOVER_USER"); v != "" {
		cfg.Pushover.User = v
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
	if cfg.Trader.CreateIntervalSeconds <= 0 {
		cfg.Trader.CreateIntervalSeconds = 60
	}
	if cfg.Trader.RepriceIntervalSeconds <= 0 {
		cfg.Trader.RepriceIntervalSeconds = 120
	}
	if cfg.Trader.BookkeepIntervalSeconds <= 0 {
		cfg.Trader.BookkeepIntervalSeconds = 30
	}
	if cfg.Trader.ReloadIntervalSeconds <= 0 {
		cfg.Trader.ReloadIntervalSeconds = 15
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://lootdog.io"
	}
	if cfg.API.WSURL == "" {
		cfg.API.WSURL = "wss://lootdog.io/connection/websocket"
	}
	if cfg.Settings.CommissionPct <= 0 {
		cfg.Settings.CommissionPct = 15
	}
	if cfg.Settings.DaysWent <= 0 {
		cfg.Settings.DaysWent = 7
	}
	if cfg.Settings.DaysSells <= 0 {
		cfg.Settings.DaysSells = 7
	}
	if len(cfg.Settings.Buy.Tiers) == 0 {
		cfg.Settings.Buy.Tiers = defaultTiers()
	}
	if len(cfg.Settings.Order.Tiers) == 0 {
		cfg.Settings.Order.Tiers = defaultTiers()
	}
	if cfg.Settings.Order.MaxOrders <= 0 {
		cfg.Settings.Order.MaxOrders = 10
	}
	if cfg.Settings.Order.MaxPages <= 0 {
		cfg.Settings.Order.MaxPages = 3
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "ldmarket.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// defaultTiers es la escala de profit mínimo por rango de precio que usa
// el marketplace por defecto: más margen exigido cuanto más barato el item.
func defaultTiers() domain.TierTable {
	return domain.TierTable{
		{UpTo: 10, Percent: 30},
		{UpTo: 300, Percent: 20},
		{UpTo: 700, Percent: 15},
		{UpTo: 1000, Percent: 12},
		{UpTo: 0, Percent: 10},
	}
}
