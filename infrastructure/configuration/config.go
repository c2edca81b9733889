package configuration

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `mapstructure:"app"`
	YouTube     YouTube     `mapstructure:"youtube"`
	Harvest     Harvest     `mapstructure:"harvest"`
	Transcript  Transcript  `mapstructure:"transcript"`
	RedisClient RedisClient `mapstructure:"redisClient"`
	Database    Database    `mapstructure:"database"`
	Logger      Logger      `mapstructure:"logger"`
}

type App struct {
	Port int `mapstructure:"port"`

	// APIToken guards /api in serve mode; empty leaves it open.
	APIToken     string   `mapstructure:"apiToken"`
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

type YouTube struct {
	APIKeys []string `mapstructure:"apiKeys"`

	// Endpoint overrides the Data API base path, e.g. for a local stub.
	Endpoint  string   `mapstructure:"endpoint"`
	Languages []string `mapstructure:"languages"`
}

type Harvest struct {
	PageDelay         time.Duration `mapstructure:"pageDelay"`
	VideoDelay        time.Duration `mapstructure:"videoDelay"`
	Concurrency       int           `mapstructure:"concurrency"`
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond"`
	OutputDir         string        `mapstructure:"outputDir"`
	Format            string        `mapstructure:"format"`
}

type Transcript struct {
	BaseURL           string        `mapstructure:"baseURL"`
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type RedisClient struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Enabled reports whether a redis host was configured.
func (r RedisClient) Enabled() bool { return r.Host != "" }

// Addr is host:port.
func (r RedisClient) Addr() string { return fmt.Sprintf("%s:%s", r.Host, r.Port) }

type Database struct {
	Psql Db `mapstructure:"psql"`
}

type Db struct {
	Name     string `mapstructure:"name"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslMode"`
}

// Enabled reports whether a database host was configured.
func (d Db) Enabled() bool { return d.Host != "" }

type Logger struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

// DefaultLanguages is the transcript language preference used when none is configured.
var DefaultLanguages = []string{"ja", "ja-JP", "en", "en-US"}

// New returns a viper instance carrying defaults, env binding and the config
// search path. Flags may be bound onto it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configName())
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("../")
	v.AddConfigPath("../../")
	v.AutomaticEnv()

	v.SetDefault("app.port", 10001)
	v.SetDefault("app.allowOrigins", []string{"http://localhost:4200"})
	v.SetDefault("youtube.languages", DefaultLanguages)
	v.SetDefault("harvest.pageDelay", 500*time.Millisecond)
	v.SetDefault("harvest.videoDelay", time.Second)
	v.SetDefault("harvest.concurrency", 1)
	v.SetDefault("harvest.requestsPerSecond", 5.0)
	v.SetDefault("harvest.outputDir", "output")
	v.SetDefault("harvest.format", "md")
	v.SetDefault("transcript.baseURL", "https://www.youtube.com")
	v.SetDefault("transcript.requestsPerSecond", 2.0)
	v.SetDefault("transcript.timeout", 30*time.Second)
	v.SetDefault("redisClient.port", "6379")
	v.SetDefault("redisClient.ttl", 7*24*time.Hour)
	v.SetDefault("database.psql.port", "5432")
	v.SetDefault("database.psql.sslMode", "disable")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.level", "info")

	bindEnv(v)
	return v
}

// bindEnv maps the flat environment names onto nested keys.
func bindEnv(v *viper.Viper) {
	pairs := map[string]string{
		"app.port":               "APP_PORT",
		"app.apiToken":           "APP_API_TOKEN",
		"youtube.endpoint":       "YOUTUBE_API_ENDPOINT",
		"harvest.outputDir":      "OUTPUT_DIR",
		"harvest.concurrency":    "HARVEST_CONCURRENCY",
		"transcript.baseURL":     "TRANSCRIPT_BASE_URL",
		"redisClient.host":       "REDIS_HOST",
		"redisClient.port":       "REDIS_PORT",
		"redisClient.password":   "REDIS_PASSWORD",
		"database.psql.name":     "DB_NAME",
		"database.psql.host":     "DB_HOST",
		"database.psql.port":     "DB_PORT",
		"database.psql.user":     "DB_USER",
		"database.psql.password": "DB_PASSWORD",
		"logger.format":          "LOG_FORMAT",
		"logger.level":           "LOG_LEVEL",
	}
	for key, env := range pairs {
		_ = v.BindEnv(key, env)
	}
}

// Load reads the config file (if any) and decodes the result into Config.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		logger.GetLogger().Debug("Config file not found, using defaults and environment")
	} else {
		logger.GetLogger().WithField("config", v.ConfigFileUsed()).Info("Config file loaded")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(c.YouTube.Languages) == 0 {
		c.YouTube.Languages = DefaultLanguages
	}
	if c.Harvest.Concurrency < 1 {
		c.Harvest.Concurrency = 1
	}
	return &c, nil
}

func configName() string {
	name := "config"
	if env := os.Getenv("ENV"); env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}
