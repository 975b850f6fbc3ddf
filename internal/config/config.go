package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config — вся конфигурация шлюза. Передаётся явно в конструкторы, глобального состояния нет.
//
// YAML example:
//
//	listen_addr: ":8080"
//	admin_addr: "127.0.0.1:9090"
//	base_path: "/share/"
//	store_dir: "/var/lib/share"
//	secret: "this is your secret string"
//	chunk_size: 4096
//	max_upload_size: "100MiB"
//	log:
//	  level: info
//	  format: text
//	gc:
//	  enabled: true
//	  interval: 30m
//	  older_than: 24h
type Config struct {
	ListenAddr    string    `yaml:"listen_addr" json:"listen_addr"`
	AdminAddr     string    `yaml:"admin_addr" json:"admin_addr"`
	BasePath      string    `yaml:"base_path" json:"base_path"`
	StoreDir      string    `yaml:"store_dir" json:"store_dir"`
	Secret        string    `yaml:"secret" json:"-"`
	ChunkSize     int       `yaml:"chunk_size" json:"chunk_size"`
	MaxUploadSize string    `yaml:"max_upload_size" json:"max_upload_size"`
	Log           LogConfig `yaml:"log" json:"log"`
	GC            GCConfig  `yaml:"gc" json:"gc"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // text | json | logfmt
}

// GCConfig управляет фоновым удалением осиротевших контентных файлов (без sidecar'а).
type GCConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Interval  string `yaml:"interval" json:"interval"`
	OlderThan string `yaml:"older_than" json:"older_than"`
}

// Default возвращает конфигурацию с безопасными локальными значениями.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		BasePath:   "/share/",
		StoreDir:   "./data",
		ChunkSize:  4096,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		GC: GCConfig{
			Enabled:   false,
			Interval:  "30m",
			OlderThan: "24h",
		},
	}
}

// Load читает .env (если есть), YAML-конфигурацию, применяет ENV-переопределения и валидирует результат.
// Отсутствующий файл конфигурации не ошибка: используются значения по умолчанию.
func Load() (*Config, error) {
	if err := godotenv.Load(getenv("SHARE_ENV_FILE", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	return LoadFile(getenv("SHARE_CONFIG", "./config.yaml"))
}

// LoadFile читает конфигурацию из path, затем применяет переменные окружения.
func LoadFile(path string) (*Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&c); err != nil {
		return nil, err
	}
	c.BasePath = NormalizeBasePath(c.BasePath)

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// ENV override
func applyEnv(c *Config) error {
	if v := os.Getenv("SHARE_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("SHARE_ADMIN_ADDR"); v != "" {
		c.AdminAddr = v
	}
	if v := os.Getenv("SHARE_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("SHARE_STORE_DIR"); v != "" {
		c.StoreDir = v
	}
	if v := os.Getenv("SHARE_SECRET"); v != "" {
		c.Secret = v
	}
	if v := os.Getenv("SHARE_CHUNK_SIZE"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("SHARE_CHUNK_SIZE: %w", err)
		}
		c.ChunkSize = n
	}
	if v := os.Getenv("SHARE_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
	if v := os.Getenv("SHARE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SHARE_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("SHARE_GC_ENABLED"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("SHARE_GC_ENABLED: %w", err)
		}
		c.GC.Enabled = b
	}
	if v := os.Getenv("SHARE_GC_INTERVAL"); v != "" {
		c.GC.Interval = v
	}
	if v := os.Getenv("SHARE_GC_OLDER_THAN"); v != "" {
		c.GC.OlderThan = v
	}

	return nil
}

// Validate проверяет, что с конфигурацией можно стартовать.
func (c *Config) Validate() error {
	var errs []error
	if c.Secret == "" {
		errs = append(errs, errors.New("secret is not configured"))
	}
	if strings.TrimSpace(c.StoreDir) == "" {
		errs = append(errs, errors.New("store_dir is not configured"))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize))
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		errs = append(errs, fmt.Errorf("base_path must be absolute, got %q", c.BasePath))
	}
	if _, err := c.MaxUploadBytes(); err != nil {
		errs = append(errs, err)
	}
	if c.GC.Enabled {
		if _, _, err := c.GC.Durations(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// MaxUploadBytes разбирает max_upload_size ("100MiB", "1GB", "1048576"); 0 — без ограничения.
func (c *Config) MaxUploadBytes() (int64, error) {
	s := strings.TrimSpace(c.MaxUploadSize)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("max_upload_size %q: %w", c.MaxUploadSize, err)
	}

	return int64(n), nil
}

// Durations возвращает период запуска GC и возраст, после которого сирота удаляется.
func (g GCConfig) Durations() (every, olderThan time.Duration, err error) {
	if every, err = time.ParseDuration(g.Interval); err != nil {
		return 0, 0, fmt.Errorf("gc.interval: %w", err)
	}
	if olderThan, err = time.ParseDuration(g.OlderThan); err != nil {
		return 0, 0, fmt.Errorf("gc.older_than: %w", err)
	}
	if every <= 0 || olderThan <= 0 {
		return 0, 0, errors.New("gc durations must be positive")
	}

	return every, olderThan, nil
}

// NormalizeBasePath приводит путь монтирования к виду "/prefix/".
func NormalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}

	return p
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
