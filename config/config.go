// Package config loads tsbind settings from defaults, a config file, .env,
// TSBIND_* environment variables and command line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/tsbind/java/javadoc"
)

var log = commonlog.GetLogger("tsbind.config")

var (
	ErrInvalidWorkers   = errors.New("invalid worker count")
	ErrInvalidDocFormat = errors.New("invalid doc format")
	ErrEmptyIndent      = errors.New("empty indent")
	ErrInvalidDebounce  = errors.New("invalid debounce")
)

type Config struct {
	Sources             []string      `mapstructure:"sources"`
	OutDir              string        `mapstructure:"out_dir"`
	Include             []string      `mapstructure:"include"`
	Exclude             []string      `mapstructure:"exclude"`
	Workers             int           `mapstructure:"workers"`
	Indent              string        `mapstructure:"indent"`
	DocFormat           string        `mapstructure:"doc_format"`
	Strict              bool          `mapstructure:"strict"`
	NullableAnnotations []string      `mapstructure:"nullable_annotations"`
	FailOnError         bool          `mapstructure:"fail_on_error"`
	Debounce            time.Duration `mapstructure:"debounce"`
}

func Default() *Config {
	return &Config{
		Sources:             []string{"."},
		OutDir:              "types",
		Workers:             runtime.NumCPU(),
		Indent:              "    ",
		DocFormat:           "plain",
		NullableAnnotations: []string{"Nullable", "CheckForNull"},
		Debounce:            300 * time.Millisecond,
	}
}

// flagNames maps config keys to the command line flags that override them.
var flagNames = map[string]string{
	"out_dir":              "out",
	"include":              "include",
	"exclude":              "exclude",
	"workers":              "workers",
	"indent":               "indent",
	"doc_format":           "doc-format",
	"strict":               "strict",
	"nullable_annotations": "nullable",
	"fail_on_error":        "fail-on-error",
	"debounce":             "debounce",
}

type Loader struct {
	RootDir string
	// Flags, if set, override every other source for the flags that were
	// given on the command line.
	Flags *pflag.FlagSet
}

func NewLoader(rootDir string, flags *pflag.FlagSet) *Loader {
	return &Loader{RootDir: rootDir, Flags: flags}
}

// Load merges, in increasing priority: defaults, tsbind.{yaml,toml,json} or
// .tsbind.yaml in the root directory, TSBIND_* environment variables
// (including those from a .env file), and flags.
func (l *Loader) Load() (*Config, error) {
	dotenv := filepath.Join(l.RootDir, ".env")
	if err := godotenv.Load(dotenv); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "read %s", dotenv)
	}

	v := viper.New()
	hidden := filepath.Join(l.RootDir, ".tsbind.yaml")
	if _, err := os.Stat(hidden); err == nil {
		v.SetConfigFile(hidden)
	} else {
		v.SetConfigName("tsbind")
		v.AddConfigPath(l.RootDir)
	}

	v.SetEnvPrefix("TSBIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("sources", defaults.Sources)
	v.SetDefault("out_dir", defaults.OutDir)
	v.SetDefault("include", defaults.Include)
	v.SetDefault("exclude", defaults.Exclude)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("indent", defaults.Indent)
	v.SetDefault("doc_format", defaults.DocFormat)
	v.SetDefault("strict", defaults.Strict)
	v.SetDefault("nullable_annotations", defaults.NullableAnnotations)
	v.SetDefault("fail_on_error", defaults.FailOnError)
	v.SetDefault("debounce", defaults.Debounce)

	for key := range flagNames {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrapf(err, "bind env for %s", key)
		}
	}
	if err := v.BindEnv("sources"); err != nil {
		return nil, errors.Wrap(err, "bind env for sources")
	}

	if l.Flags != nil {
		for key, name := range flagNames {
			if f := l.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag --%s", name)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	} else {
		log.Debugf("using config file %s", v.ConfigFileUsed())
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Load loads the configuration rooted at the working directory.
func Load(flags *pflag.FlagSet) (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "get working directory")
	}
	return NewLoader(wd, flags).Load()
}

func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, errors.Wrapf(ErrInvalidWorkers, "must be at least 1, got %d", c.Workers))
	}
	if _, ok := javadoc.ForName(c.DocFormat); !ok {
		errs = append(errs, errors.Wrapf(ErrInvalidDocFormat, "must be 'plain', 'markdown' or 'none', got %q", c.DocFormat))
	}
	if c.Indent == "" {
		errs = append(errs, ErrEmptyIndent)
	}
	if c.Debounce < 0 {
		errs = append(errs, errors.Wrapf(ErrInvalidDebounce, "must not be negative, got %s", c.Debounce))
	}
	return errors.Join(errs...)
}

// DocFilter returns the documentation filter named by DocFormat.
func (c *Config) DocFilter() javadoc.Filter {
	f, ok := javadoc.ForName(c.DocFormat)
	if !ok {
		return javadoc.PlainText{}
	}
	return f
}
