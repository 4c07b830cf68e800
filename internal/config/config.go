package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
)

// Config represents the application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Freshdesk FreshdeskConfig `mapstructure:"freshdesk"`
	Contracts ContractsConfig `mapstructure:"contracts"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Assistant AssistantConfig `mapstructure:"assistant"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	Timezone string `mapstructure:"timezone"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// FreshdeskConfig holds the helpdesk API connection settings. The API key is
// a static token used as the basic-auth username.
type FreshdeskConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	PortalURL string        `mapstructure:"portal_url"`
	PerPage   int           `mapstructure:"per_page"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ContractsConfig points at the support-contract workbook. The workbook has
// one tab per fiscal year plus a credentials tab used for login.
type ContractsConfig struct {
	WorkbookPath   string `mapstructure:"workbook_path"`
	CredentialsTab string `mapstructure:"credentials_tab"`
}

type CacheConfig struct {
	Backend    string        `mapstructure:"backend"` // memory or redis
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	LookupTTL  time.Duration `mapstructure:"lookup_ttl"`
	Redis      struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
		Prefix   string `mapstructure:"prefix"`
	} `mapstructure:"redis"`
}

type AuthConfig struct {
	JWT struct {
		Secret string        `mapstructure:"secret"`
		Issuer string        `mapstructure:"issuer"`
		TTL    time.Duration `mapstructure:"ttl"`
	} `mapstructure:"jwt"`
	Session struct {
		CookieName string `mapstructure:"cookie_name"`
		Secure     bool   `mapstructure:"secure"`
		HTTPOnly   bool   `mapstructure:"http_only"`
	} `mapstructure:"session"`
}

type AssistantConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// Load initializes the configuration with hot reload support
func Load(configPath string) error {
	var err error
	once.Do(func() {
		v := viper.New()

		v.SetConfigType("yaml")
		v.SetConfigName("config")
		v.AddConfigPath(configPath)
		if err = v.ReadInConfig(); err != nil {
			err = fmt.Errorf("failed to read config: %w", err)
			return
		}

		// Environment variable overrides
		v.SetEnvPrefix("SUPPORT_REPORTS")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		cfg = &Config{}
		if err = v.Unmarshal(cfg); err != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", err)
			return
		}

		// Watch for config changes
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			mu.Lock()
			defer mu.Unlock()

			newCfg := &Config{}
			if err := v.Unmarshal(newCfg); err != nil {
				fmt.Printf("Failed to reload config: %v\n", err)
				return
			}
			cfg = newCfg
			fmt.Printf("Configuration reloaded from %s\n", e.Name)
		})
	})

	return err
}

// Get returns the current configuration (thread-safe)
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// LoadFromFile loads configuration from a specific file (useful for testing)
func LoadFromFile(configFile string) error {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// GetRedisAddr returns the Redis server address
func (c *CacheConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// GetServerAddr returns the server listen address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction returns true if running in production mode
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}
