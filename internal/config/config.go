package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"catalog-sync/internal/domain"

	"dario.cat/mergo"
	"github.com/rs/zerolog/log"
	"github.com/titanous/json5"
)

type Config struct {
	// Catalog API
	APIURL         string   `json:"apiUrl"`
	SiteURL        string   `json:"siteUrl"`
	PageSize       int      `json:"pageSize"`
	MaxEmptyPages  int      `json:"maxEmptyPages"`
	MaxPages       int      `json:"maxPages"` // 0 = until the empty-page threshold
	MaxConns       int      `json:"maxConns"`
	PageDelay      Duration `json:"pageDelay"`
	RequestTimeout Duration `json:"requestTimeout"`
	RetryCount     int      `json:"retryCount"`

	// Storage
	Store    string `json:"store"` // "csv" or "sqlite"
	CSVFile  string `json:"csvFile"`
	JSONFile string `json:"jsonFile"`
	DBFile   string `json:"dbFile"`
	LogFile  string `json:"logFile"`
	Timezone string `json:"timezone"`

	// Default search payload
	Filter domain.Filter `json:"filter"`

	SFTP SFTP `json:"sftp"`
}

type SFTP struct {
	Host                  string `json:"host"`
	Port                  int    `json:"port"`
	User                  string `json:"user"`
	Pass                  string `json:"pass"`
	Dir                   string `json:"dir"`
	InsecureIgnoreHostKey bool   `json:"insecureIgnoreHostKey"`
}

const (
	StoreCSV    = "csv"
	StoreSQLite = "sqlite"
)

// Load reads defaults and environment variables.
func Load() Config {
	return Config{
		APIURL:         getenv("CATALOG_API_URL", "https://mftplus.com/ajax/default/calendar?need=search"),
		SiteURL:        getenv("CATALOG_SITE_URL", "https://mftplus.com"),
		PageSize:       getenvInt("CATALOG_PAGE_SIZE", 9),
		MaxEmptyPages:  getenvInt("CATALOG_MAX_EMPTY_PAGES", 2),
		MaxPages:       getenvInt("CATALOG_MAX_PAGES", 0),
		MaxConns:       getenvInt("CATALOG_MAX_CONNS", 5),
		PageDelay:      Duration(getenvDuration("CATALOG_PAGE_DELAY", 200*time.Millisecond)),
		RequestTimeout: Duration(getenvDuration("CATALOG_REQUEST_TIMEOUT", 30*time.Second)),
		RetryCount:     getenvInt("CATALOG_RETRY_COUNT", 0),

		Store:    getenv("CATALOG_STORE", StoreCSV),
		CSVFile:  getenv("CATALOG_CSV_FILE", "mftplus_courses_async.csv"),
		JSONFile: getenv("CATALOG_JSON_FILE", "mftplus_courses_async.json"),
		DBFile:   getenv("CATALOG_DB_FILE", "catalog.db"),
		LogFile:  getenv("CATALOG_LOG_FILE", "COURSE_LOG.md"),
		Timezone: getenv("CATALOG_TIMEZONE", "Asia/Tehran"),

		SFTP: SFTP{
			Host:                  os.Getenv("SFTP_HOST"),
			Port:                  getenvInt("SFTP_PORT", 22),
			User:                  os.Getenv("SFTP_USER"),
			Pass:                  os.Getenv("SFTP_PASS"),
			Dir:                   getenv("SFTP_DIR", "/"),
			InsecureIgnoreHostKey: getenvBool("SFTP_INSECURE_IGNORE_HOST_KEY", false),
		},
	}
}

// Resolve layers the config file at path (and its .local override) on top of Load.
// Keys present in a file win even when their value is zero; absent keys keep
// the env/default value. A missing file is only an error when required is set.
func Resolve(path string, required bool) (Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	err := ReadInto(path, &cfg)
	if errors.Is(err, os.ErrNotExist) {
		if required {
			return cfg, fmt.Errorf("config: %s not found", path)
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// MergeFilter applies the non-empty fields of override on top of base, so a
// --sort flag keeps the place list from the config file.
func MergeFilter(base, override domain.Filter) (domain.Filter, error) {
	out := base
	if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
		return base, fmt.Errorf("config: merge filter: %w", err)
	}
	return out, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return errors.New("config: apiUrl is required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("config: pageSize must be positive, got %d", c.PageSize)
	}
	if c.MaxEmptyPages <= 0 {
		return fmt.Errorf("config: maxEmptyPages must be positive, got %d", c.MaxEmptyPages)
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("config: retryCount must not be negative, got %d", c.RetryCount)
	}
	switch c.Store {
	case StoreCSV:
		if c.CSVFile == "" {
			return errors.New("config: csvFile is required for the csv store")
		}
	case StoreSQLite:
		if c.DBFile == "" {
			return errors.New("config: dbFile is required for the sqlite store")
		}
	default:
		return fmt.Errorf("config: unknown store %q", c.Store)
	}
	return nil
}

// ReadInto decodes a JSON5 file, `name` should come with a file extension,
// on top of whatever out already holds. <name>.local.<ext> next to it is
// decoded afterwards and overrides the base file key by key.
// Returns os.ErrNotExist when neither exists.
func ReadInto[T any](name string, out *T) error {
	found := false
	for _, file := range []string{name, localName(name)} {
		b, err := os.ReadFile(file)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		if len(bytes.TrimSpace(b)) == 0 {
			continue
		}
		if err := json5.Unmarshal(b, out); err != nil {
			return fmt.Errorf("parse %s: %w", file, err)
		}
		if file != name {
			log.Info().Str("local", file).Msg("merging config with local overrides")
		}
		found = true
	}

	if !found {
		return os.ErrNotExist
	}
	return nil
}

func localName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

// Duration decodes "200ms"-style strings as well as integer nanoseconds.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 1 && b[0] == '\'' && b[len(b)-1] == '\'' {
		// JSON5 single-quoted string
		v, err := time.ParseDuration(string(b[1 : len(b)-1]))
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
