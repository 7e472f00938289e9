package configs

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config struct
type Config struct {
	App       `mapstructure:"app"`
	Storage   `mapstructure:"storage"`
	Postgres  `mapstructure:"postgres"`
	Redis     `mapstructure:"redis"`
	Transport `mapstructure:"transport"`
	Cache     `mapstructure:"cache"`
}

// App struct
type App struct {
	Debug bool   `mapstructure:"debug"`
	Env   string `mapstructure:"env"`
	Port  string `mapstructure:"port"`
}

// Storage struct - where the session blob is persisted
type Storage struct {
	// Driver is one of memory, file, postgres, sqlite, redis
	Driver string `mapstructure:"driver"`
	Key    string `mapstructure:"key"`
	// Path is the directory for the file driver and the database file for sqlite
	Path string `mapstructure:"path"`
}

// Postgres struct
type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DbName   string `mapstructure:"database"`
	SSLMode  bool   `mapstructure:"sslmode"`
}

// Redis struct
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Transport struct - marketplace API client
type Transport struct {
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"` // seconds
	MaxRetries int    `mapstructure:"max_retries"`
}

// Cache struct
type Cache struct {
	Retention int `mapstructure:"retention"` // seconds
}

var config Config

// InitViper func
func InitViper(path, env string) {
	getConfig(path, env)
}

// GetViper func
func GetViper() *Config {
	return &config
}

// ApplyLogLevel sets the logrus level from app.debug
func ApplyLogLevel(cfg *Config) {
	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
		return
	}
	logrus.SetLevel(logrus.InfoLevel)
}

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.env", "local")
	viper.SetDefault("app.port", "9089")
	viper.SetDefault("storage.driver", "memory")
	viper.SetDefault("storage.key", "persist:auth")
	viper.SetDefault("storage.path", "")
	viper.SetDefault("postgres.host", "")
	viper.SetDefault("postgres.port", "")
	viper.SetDefault("postgres.username", "")
	viper.SetDefault("postgres.password", "")
	viper.SetDefault("postgres.database", "")
	viper.SetDefault("postgres.sslmode", false)
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "booking:")
	viper.SetDefault("transport.base_url", "")
	viper.SetDefault("transport.timeout", 0)
	viper.SetDefault("transport.max_retries", 0)
	viper.SetDefault("cache.retention", 0)
}

func getConfig(path, env string) {
	viper.SetConfigName("config")
	viper.AddConfigPath(path)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()
	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(err)
		}
		logrus.Warn("Config file not found, using defaults and environment")
	} else {
		viper.WatchConfig()
		viper.OnConfigChange(onConfigChange)
	}
	err = viper.Unmarshal(&config)
	if err != nil {
		logrus.Fatalln(err)
	}
	ApplyLogLevel(&config)
}

// onConfigChange only re-applies the log level. The loaded config is read
// concurrently by request goroutines, so other changes need a restart.
func onConfigChange(e fsnotify.Event) {
	logrus.Info("Config file has changed: ", e.Name)
	var reloaded Config
	if err := viper.Unmarshal(&reloaded); err != nil {
		logrus.Error(err)
		return
	}
	ApplyLogLevel(&reloaded)
}
