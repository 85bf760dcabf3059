package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

var (
	ErrInvalidDelay       = errors.New("invalid delay: min delay must be non-negative and not greater than max delay")
	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be at least 1")
	ErrInvalidTimeout     = errors.New("invalid timeout: must be positive")
	ErrInvalidBodySize    = errors.New("invalid max body size: must be positive")
	ErrEmptyOutput        = errors.New("output path must not be empty")
)

// Config is the crawler configuration. Every field can be set from a YAML file
// or the environment; CLI flags override both.
type Config struct {
	// Environment selects the logger flavour (development, production).
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	Crawl struct {
		// BaseURL is the site root that category paths and next-page links are resolved against.
		BaseURL string `env:"CRAWLER_BASE_URL" env-default:"https://ru.wikipedia.org/" yaml:"baseURL"`
		// CategoryPath is appended to BaseURL to form the start URL.
		CategoryPath string `env:"CRAWLER_CATEGORY_PATH" env-default:"wiki/Категория:Животные_по_алфавиту" yaml:"categoryPath"`
		// StartURL overrides BaseURL+CategoryPath when set.
		StartURL string `env:"CRAWLER_START_URL" yaml:"startURL"`
		// CategoryTitle must equal the title attribute of the next-page anchor.
		CategoryTitle string `env:"CRAWLER_CATEGORY_TITLE" env-default:"Категория:Животные по алфавиту" yaml:"categoryTitle"`
		// NextPageLabel must equal the visible text of the next-page anchor.
		NextPageLabel string `env:"CRAWLER_NEXT_PAGE_LABEL" env-default:"Следующая страница" yaml:"nextPageLabel"`
		// EntrySelector selects the anchors holding entry titles.
		EntrySelector string        `env:"CRAWLER_ENTRY_SELECTOR" env-default:"#mw-pages div.mw-category-group li a" yaml:"entrySelector"`
		MinDelay      time.Duration `env:"CRAWLER_MIN_DELAY" env-default:"500ms" yaml:"minDelay"`
		MaxDelay      time.Duration `env:"CRAWLER_MAX_DELAY" env-default:"2s" yaml:"maxDelay"`
		// MaxAttempts bounds consecutive fetch attempts on a single cursor.
		MaxAttempts    int           `env:"CRAWLER_MAX_ATTEMPTS" env-default:"5" yaml:"maxAttempts"`
		RetryBaseDelay time.Duration `env:"CRAWLER_RETRY_BASE_DELAY" env-default:"1s" yaml:"retryBaseDelay"`
		RetryMaxDelay  time.Duration `env:"CRAWLER_RETRY_MAX_DELAY" env-default:"30s" yaml:"retryMaxDelay"`
		RespectRobots  bool          `env:"CRAWLER_RESPECT_ROBOTS" env-default:"false" yaml:"respectRobots"`
		ParseTimeout   time.Duration `env:"CRAWLER_PARSE_TIMEOUT" env-default:"5s" yaml:"parseTimeout"`
	} `yaml:"crawl"`

	HTTP struct {
		Timeout        time.Duration `env:"HTTP_TIMEOUT" env-default:"15s" yaml:"timeout"`
		MaxBodySize    int64         `env:"HTTP_MAX_BODY_SIZE" env-default:"4194304" yaml:"maxBodySize"`
		AcceptLanguage string        `env:"HTTP_ACCEPT_LANGUAGE" env-default:"ru,en;q=0.8" yaml:"acceptLanguage"`
		// UserAgentSource is "weighted" (embedded list) or "fake" (fake-useragent).
		UserAgentSource string `env:"CRAWLER_USER_AGENT_SOURCE" env-default:"weighted" yaml:"userAgentSource"`
		// UserAgent pins a fixed user agent and disables randomisation.
		UserAgent string `env:"CRAWLER_USER_AGENT" yaml:"userAgent"`
	} `yaml:"http"`

	Output struct {
		Path        string `env:"CRAWLER_OUTPUT" env-default:"beasts.csv" yaml:"path"`
		MetricsFile string `env:"CRAWLER_METRICS_FILE" yaml:"metricsFile"`
	} `yaml:"output"`
}

// Load reads configPath (when not empty) and the environment into a Config.
func Load(configPath string) (*Config, error) {
	var cfg Config
	var err error
	if configPath != "" {
		err = cleanenv.ReadConfig(configPath, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}

// Validate checks value ranges that cleanenv cannot express.
func (c *Config) Validate() error {
	if c.Crawl.MinDelay < 0 || c.Crawl.MinDelay > c.Crawl.MaxDelay {
		return ErrInvalidDelay
	}
	if c.Crawl.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if c.HTTP.Timeout <= 0 || c.Crawl.ParseTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.HTTP.MaxBodySize <= 0 {
		return ErrInvalidBodySize
	}
	if c.Output.Path == "" {
		return ErrEmptyOutput
	}
	return nil
}
