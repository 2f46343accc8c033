package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/DoyleJ11/battlebees-backend/internal/dictionary"
	"github.com/DoyleJ11/battlebees-backend/internal/engine"
)

const (
	DictionaryHTTP     = "http"
	DictionaryWordList = "wordlist"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Port           string
	AllowedOrigins []string

	LettersCSV  string // empty: embedded corpus
	DatabaseURL string // empty: no Postgres corpus

	DictionaryMode    string
	DictionaryURL     string
	DictionaryTimeout time.Duration
	DictionaryWords   string

	PangramBonus      int
	CountdownInterval time.Duration
	Debug             bool
}

// Load reads the optional .env files, then the environment. Variables already
// set in the environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from any env source.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		Port:            get("PORT", "8080"),
		AllowedOrigins:  splitList(get("ALLOWED_ORIGINS", "")),
		LettersCSV:      get("LETTERS_CSV", ""),
		DatabaseURL:     get("DATABASE_URL", ""),
		DictionaryMode:  strings.ToLower(get("DICTIONARY_MODE", DictionaryHTTP)),
		DictionaryURL:   get("DICTIONARY_URL", dictionary.DefaultBaseURL),
		DictionaryWords: get("DICTIONARY_WORDS", ""),
	}

	var err error
	if cfg.DictionaryTimeout, err = duration(get("DICTIONARY_TIMEOUT", dictionary.DefaultTimeout.String())); err != nil {
		return Config{}, fmt.Errorf("%w: DICTIONARY_TIMEOUT: %v", ErrInvalid, err)
	}
	if cfg.CountdownInterval, err = duration(get("COUNTDOWN_INTERVAL", "1s")); err != nil {
		return Config{}, fmt.Errorf("%w: COUNTDOWN_INTERVAL: %v", ErrInvalid, err)
	}
	if cfg.PangramBonus, err = strconv.Atoi(get("PANGRAM_BONUS", strconv.Itoa(engine.DefaultPangramBonus))); err != nil || cfg.PangramBonus < 0 {
		return Config{}, fmt.Errorf("%w: PANGRAM_BONUS must be a non-negative integer", ErrInvalid)
	}
	if cfg.Debug, err = strconv.ParseBool(get("DEBUG", "false")); err != nil {
		return Config{}, fmt.Errorf("%w: DEBUG: %v", ErrInvalid, err)
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("%w: PORT %q", ErrInvalid, cfg.Port)
	}

	switch cfg.DictionaryMode {
	case DictionaryHTTP:
	case DictionaryWordList:
		if cfg.DictionaryWords == "" {
			return Config{}, fmt.Errorf("%w: DICTIONARY_WORDS is required in wordlist mode", ErrInvalid)
		}
	default:
		return Config{}, fmt.Errorf("%w: DICTIONARY_MODE %q", ErrInvalid, cfg.DictionaryMode)
	}
	return cfg, nil
}

func (c Config) Addr() string { return ":" + c.Port }

func duration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
