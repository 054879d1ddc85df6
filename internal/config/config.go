package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	// 闲置超过这么久的日志会话会被关闭
	SessionIdleMinutes int `mapstructure:"session_idle_minutes"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig selects the local key/value store of anonymous devices.
type StorageConfig struct {
	LocalDriver string      `mapstructure:"local_driver"` // sqlite | redis | memory
	KeyPrefix   string      `mapstructure:"key_prefix"`
	Redis       RedisConfig `mapstructure:"redis"`
}

// CloudConfig selects the document store of signed-in users.
type CloudConfig struct {
	Driver string `mapstructure:"driver"` // memory | postgres | none
	DSN    string `mapstructure:"dsn"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OAuthConfig struct {
	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	RedirectURL        string `mapstructure:"redirect_url"`
}

// Enabled reports whether Google sign in is configured.
func (o OAuthConfig) Enabled() bool {
	return o.GoogleClientID != "" && o.GoogleClientSecret != ""
}

type SecurityConfig struct {
	BcryptCost    int    `mapstructure:"bcrypt_cost"`
	EncryptionKey string `mapstructure:"encryption_key"`
	MaxLoginFails int    `mapstructure:"max_login_fails"`
	LockMinutes   int    `mapstructure:"lock_minutes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json
}

type BackupConfig struct {
	Dir string `mapstructure:"dir"`
}

// JournalConfig overrides the defaults of a device without stored settings.
type JournalConfig struct {
	ExpenseCategories []string `mapstructure:"expense_categories"`
	IncomeCategories  []string `mapstructure:"income_categories"`
	Players           []string `mapstructure:"players"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Cloud    CloudConfig    `mapstructure:"cloud"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Journal  JournalConfig  `mapstructure:"journal"`
}

var (
	appConfig *Config
	once      sync.Once
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.session_idle_minutes", 30)
	v.SetDefault("database.path", "data/lifebill.db")
	v.SetDefault("database.log_mode", false)
	v.SetDefault("storage.local_driver", "sqlite")
	v.SetDefault("storage.key_prefix", "life_journal")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("cloud.driver", "memory")
	v.SetDefault("jwt.issuer", "lifebill")
	v.SetDefault("jwt.expire_hours", 72)
	v.SetDefault("security.bcrypt_cost", 10)
	v.SetDefault("security.max_login_fails", 5)
	v.SetDefault("security.lock_minutes", 15)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("backup.dir", "data/backups")
}

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it looks for config.yaml in the working directory and
// does not fail when there is none.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		appConfig, err = load(path)
	})
	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

func load(path string) (*Config, error) {
	c, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Read loads the file and environment without the server checks of Validate.
// The CLI uses it directly since it never issues tokens.
func Read(path string) (*Config, error) {
	// .env 只在存在時載入
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	// environment overrides, e.g. LIFEBILL_SERVER_PORT=9000
	v.SetEnvPrefix("LIFEBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("config: jwt.secret is required")
	}
	switch c.Storage.LocalDriver {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("config: unknown storage.local_driver %q", c.Storage.LocalDriver)
	}
	switch c.Cloud.Driver {
	case "memory", "none":
	case "postgres":
		if c.Cloud.DSN == "" {
			return errors.New("config: cloud.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown cloud.driver %q", c.Cloud.Driver)
	}
	return nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}
