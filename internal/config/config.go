package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// ErrInvalidLocale is returned when a configured locale is not a BCP 47 tag.
var ErrInvalidLocale = errors.New("invalid locale")

type Config struct {
	DefaultLocale string
	Locales       []string
	LocaleDir     string
	LocaleFormat  string
	RewriteMode   string
	RulesFile     string
	WorkerCount   int
	DatabaseURL   string
	LogLevel      string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		Locales:       getEnvList("LOCALES"),
		LocaleDir:     getEnv("LOCALE_DIR", "config/locales"),
		LocaleFormat:  getEnv("LOCALE_FORMAT", "yaml"),
		RewriteMode:   getEnv("REWRITE_MODE", "spans"),
		RulesFile:     getEnv("RULES_FILE", ""),
		WorkerCount:   getEnvInt("WORKER_COUNT", 8),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

// AllLocales returns the default locale followed by the extra locales,
// without duplicates.
func (c *Config) AllLocales() []string {
	seen := map[string]bool{c.DefaultLocale: true}
	out := []string{c.DefaultLocale}
	for _, l := range c.Locales {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// Validate checks every locale is a well-formed language tag and normalizes
// them to their canonical form.
func (c *Config) Validate() error {
	tag, err := language.Parse(c.DefaultLocale)
	if err != nil {
		return fmt.Errorf("config: DEFAULT_LOCALE %q: %w", c.DefaultLocale, ErrInvalidLocale)
	}
	c.DefaultLocale = tag.String()

	for i, l := range c.Locales {
		tag, err := language.Parse(l)
		if err != nil {
			return fmt.Errorf("config: LOCALES entry %q: %w", l, ErrInvalidLocale)
		}
		c.Locales[i] = tag.String()
	}

	if c.WorkerCount < 1 {
		c.WorkerCount = 1
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
