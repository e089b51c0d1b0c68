package config

import (
	"errors"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env            string        `yaml:"env" env:"ENV" env-default:"local"`
	DSN            string        `yaml:"dsn" env:"DATABASE_URL" env-required:"true"`
	AllowedOrigins string        `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	StaticDir      string        `yaml:"static_dir" env:"STATIC_DIR" env-default:"./static"`
	LeadRateLimit  float64       `yaml:"lead_rate_limit" env:"LEAD_RATE_LIMIT" env-default:"0.2"`
	HTTP           HTTPConfig    `yaml:"http"`
	Admin          AdminConfig   `yaml:"admin"`
	Media          MediaConfig   `yaml:"media"`
	Redis          RedisConf     `yaml:"redis"`
	Seafile        SeafileConfig `yaml:"seafile"`
	Ozon           OzonConfig    `yaml:"ozon"`
	Telegram       TelegramConf  `yaml:"telegram"`
}

type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8000"`
}

type AdminConfig struct {
	Username     string `yaml:"username" env:"ADMIN_USERNAME" env-required:"true"`
	Password     string `yaml:"password" env:"ADMIN_PASSWORD"`
	PasswordHash string `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
	// Secret подписывает cookie сессии; если не задан, берётся ADMIN_PASSWORD.
	Secret     string        `yaml:"session_secret" env:"SESSION_SECRET"`
	CookieName string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"admin_session"`
	SessionTTL time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"168h"`
}

var (
	ErrAdminPasswordRequired = errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	ErrSessionSecretRequired = errors.New("SESSION_SECRET is required when only ADMIN_PASSWORD_HASH is set")
)

// finalize проверяет учётные данные администратора и подставляет секрет сессии.
func (c *Config) finalize() error {
	if c.Admin.Password == "" && c.Admin.PasswordHash == "" {
		return ErrAdminPasswordRequired
	}

	if c.Admin.Secret == "" {
		if c.Admin.Password == "" {
			return ErrSessionSecretRequired
		}
		c.Admin.Secret = c.Admin.Password
	}

	return nil
}

type MediaConfig struct {
	CacheDir string        `yaml:"cache_dir" env:"MEDIA_CACHE_DIR" env-default:"./static/cache/machines"`
	BaseURL  string        `yaml:"base_url" env:"MEDIA_BASE_URL" env-default:"/static/cache/machines"`
	LinkTTL  time.Duration `yaml:"link_ttl" env:"SEAFILE_LINK_TTL" env-default:"30m"`
	// VerifyTLS включает проверку сертификата при скачивании медиа.
	VerifyTLS bool `yaml:"verify_tls" env:"MEDIA_VERIFY_TLS"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redispassword" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB"`
}

type SeafileConfig struct {
	Server string `yaml:"server" env:"SEAFILE_SERVER"`
	RepoID string `yaml:"repo_id" env:"SEAFILE_REPO_ID"`
	Token  string `yaml:"token" env:"SEAFILE_TOKEN"`
}

func (c SeafileConfig) Enabled() bool {
	return c.Server != "" && c.RepoID != "" && c.Token != ""
}

type OzonConfig struct {
	BaseURL  string        `yaml:"base_url" env:"OZON_BASE_URL"`
	ClientID string        `yaml:"client_id" env:"OZON_CLIENT_ID"`
	APIKey   string        `yaml:"api_key" env:"OZON_API_KEY"`
	PriceTTL time.Duration `yaml:"price_ttl" env:"OZON_PRICE_TTL" env-default:"1h"`
}

func (c OzonConfig) Enabled() bool {
	return c.ClientID != "" && c.APIKey != ""
}

type TelegramConf struct {
	BaseURL  string `yaml:"base_url" env:"TELEGRAM_BASE_URL"`
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

func (c TelegramConf) Enabled() bool {
	return c.BotToken != "" && c.ChatID != ""
}

// Origins разбирает ALLOWED_ORIGINS; пустое значение означает "*".
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	if len(origins) == 0 {
		return []string{"*"}
	}

	return origins
}

// MustLoad читает файл из --config / CONFIG_PATH, если он задан, иначе только окружение.
func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		return MustLoadEnv()
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	if err := cfg.finalize(); err != nil {
		panic("invalid config: " + err.Error())
	}

	return &cfg
}

func MustLoadEnv() *Config {
	cfg, err := LoadEnv()
	if err != nil {
		panic("cannot read config: " + err.Error())
	}

	return cfg
}

func LoadEnv() (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	if f := flag.Lookup("config"); f != nil {
		res = f.Value.String()
	} else {
		flag.StringVar(&res, "config", "", "path to config file")
		flag.Parse()
	}

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
