package config

import (
	"errors"
	"fmt"
	"net/textproto"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"periodicd/pkg/periodic"
)

// Config holds application configuration values.
type Config struct {
	Env  string `validate:"required,oneof=dev prod"`
	HTTP struct {
		Addr string `validate:"required"`
		// ControlToken, when set, is required by the job control endpoints.
		ControlToken string
		ControlRate  time.Duration `validate:"gte=0"`
	}
	Log struct {
		ConsoleLevel string `validate:"required,oneof=debug info warn error"`
		FileLevel    string `validate:"required,oneof=debug info warn error"`
		File         string
	}
	Probe struct {
		Interval       time.Duration `validate:"gt=0"`
		StartDelay     time.Duration `validate:"gte=0"`
		Timeout        time.Duration `validate:"gt=0"`
		IgnoreFailures bool
		SQLitePath     string
		PostgresDSN    string
		HTTPURL        string `validate:"omitempty,url"`
		// HTTPHeaders are sent with every request of the HTTP target.
		HTTPHeaders map[string]string
	}
}

var validate = validator.New()

// ErrNoProbeTargets is returned when no probe target is configured.
var ErrNoProbeTargets = errors.New("at least one of PROBE_SQLITE_PATH, PROBE_PG_DSN, PROBE_HTTP_URL is required")

// Load reads configuration from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	var err error
	c.Env = getenv("ENV", "prod")
	c.HTTP.Addr = getenv("HTTP_ADDR", ":8080")
	c.HTTP.ControlToken = os.Getenv("HTTP_CONTROL_TOKEN")
	if c.HTTP.ControlRate, err = time.ParseDuration(getenv("HTTP_CONTROL_RATE", "1s")); err != nil {
		return Config{}, err
	}
	c.Log.ConsoleLevel = strings.ToLower(getenv("LOG_CONSOLE_LEVEL", "info"))
	c.Log.FileLevel = strings.ToLower(getenv("LOG_FILE_LEVEL", "debug"))
	c.Log.File = getenv("LOG_FILE", "data/logs/periodicd.log")

	if c.Probe.Interval, err = periodic.ParseInterval(getenv("PROBE_INTERVAL", "@every 30s")); err != nil {
		return Config{}, err
	}
	if c.Probe.StartDelay, err = time.ParseDuration(getenv("PROBE_START_DELAY", "0s")); err != nil {
		return Config{}, err
	}
	if c.Probe.Timeout, err = time.ParseDuration(getenv("PROBE_TIMEOUT", "5s")); err != nil {
		return Config{}, err
	}
	if c.Probe.IgnoreFailures, err = strconv.ParseBool(getenv("PROBE_IGNORE_FAILURES", "true")); err != nil {
		return Config{}, err
	}
	c.Probe.SQLitePath = os.Getenv("PROBE_SQLITE_PATH")
	c.Probe.PostgresDSN = os.Getenv("PROBE_PG_DSN")
	c.Probe.HTTPURL = os.Getenv("PROBE_HTTP_URL")
	if c.Probe.HTTPHeaders, err = parseHeaders(os.Getenv("PROBE_HTTP_HEADERS")); err != nil {
		return Config{}, err
	}

	if err := validate.Struct(c); err != nil {
		return Config{}, err
	}
	if c.Probe.SQLitePath == "" && c.Probe.PostgresDSN == "" && c.Probe.HTTPURL == "" {
		return Config{}, ErrNoProbeTargets
	}
	return c, nil
}

// parseHeaders reads "Name: value; Other: value" pairs.
func parseHeaders(s string) (map[string]string, error) {
	h := make(map[string]string)
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			return nil, fmt.Errorf("PROBE_HTTP_HEADERS: malformed header %q", pair)
		}
		h[textproto.CanonicalMIMEHeaderKey(name)] = strings.TrimSpace(value)
	}
	return h, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
