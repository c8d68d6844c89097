package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dnldd/trendbracket/shared"
	"github.com/joho/godotenv"
)

const (
	// defaultTimeframe is the default timeframe of tracked markets.
	defaultTimeframe = "15m"
	// defaultLookbackDays is the default number of days of bars analyzed.
	defaultLookbackDays = 10
	// defaultRefreshInterval is the default interval between market analyses.
	defaultRefreshInterval = time.Minute * 15
)

// Config is the configuration struct for the service.
type Config struct {
	// Markets represents the tracked markets.
	Markets []string
	// Timeframe is the timeframe of the tracked market bars.
	Timeframe string
	// FMPAPIkey is the FMP service API Key.
	FMPAPIKey string
	// LookbackDays is the number of days of bars analyzed on every refresh.
	LookbackDays int
	// RefreshInterval is the interval between analyses of the tracked markets.
	RefreshInterval time.Duration
	// ParamsFilepath is the filepath to the strategy parameters, optional.
	ParamsFilepath string
	// Backtest is the backtesting flag.
	Backtest bool
	// BacktestDataFilepath is the filepath to the backtest data.
	BacktestDataFilepath string
	// DBEndpoint is the database endpoint, closed positions are not persisted when empty.
	DBEndpoint string
	// DBUser is the database user.
	DBUser string
	// DBPass is the database user pass.
	DBPass string
	// MetricsAddr is the metrics server address, metrics are not served when empty.
	MetricsAddr string

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	_, err := shared.ParseTimeframe(cfg.Timeframe)
	if err != nil {
		errs = errors.Join(errs, err)
	}

	switch cfg.Backtest {
	case true:
		if cfg.BacktestDataFilepath == "" {
			errs = errors.Join(errs, fmt.Errorf("backtest data filepath cannot be an empty string"))
		}
	case false:
		if len(cfg.Markets) == 0 {
			errs = errors.Join(errs, fmt.Errorf("no markets provided for analyzer service"))
		}
		if cfg.FMPAPIKey == "" {
			errs = errors.Join(errs, fmt.Errorf("fmp api key cannot be an empty string"))
		}
		if cfg.LookbackDays <= 0 {
			errs = errors.Join(errs, fmt.Errorf("lookback days must be positive, got %d", cfg.LookbackDays))
		}
		if cfg.RefreshInterval <= 0 {
			errs = errors.Join(errs, fmt.Errorf("refresh interval must be positive, got %s", cfg.RefreshInterval))
		}
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
// Environment variables named after the flag override the provided fallback default.
func (cfg *Config) registerFlag(name string, value interface{}, fallback string, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	if defValue == "" {
		defValue = fallback
	}

	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Int64:
		// Only handle time.Duration
		dur, ok := value.(*time.Duration)
		if !ok {
			return fmt.Errorf("%s: unsupported int64 type", name)
		}
		var def time.Duration
		if defValue != "" {
			var err error
			def, err = time.ParseDuration(defValue)
			if err != nil {
				return fmt.Errorf("%s: parsing duration: %w", name, err)
			}
		}
		flag.DurationVar(dur, name, def, usage)
	case reflect.Slice:
		// Only handle []string
		if val.Elem().Type().Elem().Kind() == reflect.String {
			var def []string
			if defValue != "" {
				def = strings.Split(defValue, ",")
			}
			flag.Func(name, usage, func(s string) error {
				*value.(*[]string) = strings.Split(s, ",")
				return nil
			})
			// Set default if not provided via flag
			if len(def) > 0 {
				*value.(*[]string) = def
			}
		} else {
			return fmt.Errorf("%s: unsupported slice type", name)
		}
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	flags := []struct {
		name     string
		value    interface{}
		fallback string
		usage    string
	}{
		{"markets", &cfg.Markets, "", "the tracked markets"},
		{"timeframe", &cfg.Timeframe, defaultTimeframe, "the timeframe of tracked market bars"},
		{"fmpapikey", &cfg.FMPAPIKey, "", "the FMP api key"},
		{"lookbackdays", &cfg.LookbackDays, strconv.Itoa(defaultLookbackDays), "the days of bars analyzed on every refresh"},
		{"refreshinterval", &cfg.RefreshInterval, defaultRefreshInterval.String(), "the interval between market analyses"},
		{"paramsfilepath", &cfg.ParamsFilepath, "", "the strategy parameters filepath"},
		{"backtest", &cfg.Backtest, "", "the backtest flag"},
		{"backtestdatafilepath", &cfg.BacktestDataFilepath, "", "the backtest data filepath"},
		{"dbendpoint", &cfg.DBEndpoint, "", "the database endpoint"},
		{"dbuser", &cfg.DBUser, "", "the database user"},
		{"dbpass", &cfg.DBPass, "", "the database user pass"},
		{"metricsaddr", &cfg.MetricsAddr, "", "the metrics server address"},
	}

	for _, f := range flags {
		err = cfg.registerFlag(f.name, f.value, f.fallback, f.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	return cfg.Validate()
}
