// Package config loads sqlpp.toml or sqlpp.yaml, the file that tells the
// command-line tool and sqlpp.Open where the server is and how to talk to it.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/letsencrypt/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/carlosnayan/sqlpp/internal/dialect"
)

// FileNames are searched, in order, when no path is given.
var FileNames = []string{"sqlpp.toml", "sqlpp.yaml", "sqlpp.yml"}

// Config is the whole configuration file.
type Config struct {
	Datasource *DatasourceConfig `toml:"datasource" yaml:"datasource" validate:"required"`
	Options    OptionsConfig     `toml:"options" yaml:"options"`
	Log        []string          `toml:"log" yaml:"log" validate:"dive,oneof=query info warn warning error"`
	// ErrorMode is "errors" (the default) or "sentinel".
	ErrorMode string `toml:"error_mode" yaml:"error_mode" validate:"omitempty,oneof=errors sentinel"`
	Metrics   string `toml:"metrics" yaml:"metrics" validate:"omitempty,hostname_port"`

	path string
}

// DatasourceConfig names the server. Either URL or the discrete fields are
// used; discrete fields override what the URL says.
type DatasourceConfig struct {
	Provider string `toml:"provider" yaml:"provider" validate:"required,provider"`
	URL      string `toml:"url" yaml:"url"`
	Host     string `toml:"host" yaml:"host"`
	Socket   string `toml:"socket" yaml:"socket"`
	Port     int    `toml:"port" yaml:"port" validate:"gte=0,lte=65535"`
	User     string `toml:"user" yaml:"user"`
	Password string `toml:"password" yaml:"password"`
	Database string `toml:"database" yaml:"database"`
}

// OptionsConfig mirrors the connection options.
type OptionsConfig struct {
	Compress        bool       `toml:"compress" yaml:"compress"`
	ConnectTimeout  Duration   `toml:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout     Duration   `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    Duration   `toml:"write_timeout" yaml:"write_timeout"`
	MultiStatements bool       `toml:"multi_statements" yaml:"multi_statements"`
	Reconnect       bool       `toml:"reconnect" yaml:"reconnect"`
	LocalFiles      bool       `toml:"local_files" yaml:"local_files"`
	FoundRows       bool       `toml:"found_rows" yaml:"found_rows"`
	Charset         string     `toml:"charset" yaml:"charset" validate:"omitempty,alphanum"`
	DefaultFile     string     `toml:"read_default_file" yaml:"read_default_file"`
	DefaultGroup    string     `toml:"read_default_group" yaml:"read_default_group"`
	SSL             *SSLConfig `toml:"ssl" yaml:"ssl"`
}

// SSLConfig holds paths to the TLS material.
type SSLConfig struct {
	Key    string `toml:"key" yaml:"key" validate:"required_with=Cert"`
	Cert   string `toml:"cert" yaml:"cert" validate:"required_with=Key"`
	CA     string `toml:"ca" yaml:"ca"`
	CAPath string `toml:"capath" yaml:"capath"`
	Cipher string `toml:"cipher" yaml:"cipher"`
}

// Duration is a time.Duration written as "5s" in either file format.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Path returns the file the configuration was read from.
func (c *Config) Path() string { return c.path }

// Load reads configPath, or the first of FileNames found walking up from
// the working directory when configPath is empty. A .env file found the
// same way is loaded first so the file can refer to its variables.
func Load(configPath string) (*Config, error) {
	loadDotEnv()

	if configPath == "" {
		found, err := Find()
		if err != nil {
			return nil, err
		}
		configPath = found
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", configPath, err)
	}
	cfg, err := Parse(data, filepath.Ext(configPath))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configPath, err)
	}
	cfg.path = configPath
	return cfg, nil
}

// Parse decodes data in the format named by ext (".toml", ".yaml" or
// ".yml"), expands environment references and validates the result.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".toml", "":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown config format %q", ext)
	}
	cfg.expandEnvVars()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Find walks up from the working directory looking for a config file.
func Find() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	if p, ok := walkUp(wd, FileNames...); ok {
		return p, nil
	}
	return "", fmt.Errorf("no %s found", strings.Join(FileNames, " or "))
}

func walkUp(dir string, names ...string) (string, bool) {
	for {
		for _, name := range names {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// loadDotEnv loads the nearest .env. Variables already set win.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	if p, ok := walkUp(wd, ".env"); ok {
		_ = godotenv.Load(p)
	}
}

func (c *Config) expandEnvVars() {
	if ds := c.Datasource; ds != nil {
		for _, s := range []*string{&ds.URL, &ds.Host, &ds.Socket, &ds.User, &ds.Password, &ds.Database} {
			*s = expandString(*s)
		}
	}
	if ssl := c.Options.SSL; ssl != nil {
		for _, s := range []*string{&ssl.Key, &ssl.Cert, &ssl.CA, &ssl.CAPath} {
			*s = expandString(*s)
		}
	}
	c.Options.DefaultFile = expandString(c.Options.DefaultFile)
}

// expandString replaces env("VAR"), env('VAR'), ${VAR} and $VAR.
func expandString(s string) string {
	for _, open := range []string{`env("`, `env('`} {
		closing := string(open[4]) + ")"
		for {
			start := strings.Index(s, open)
			if start < 0 {
				break
			}
			end := strings.Index(s[start+len(open):], closing)
			if end < 0 {
				break
			}
			end += start + len(open)
			s = s[:start] + os.Getenv(s[start+len(open):end]) + s[end+len(closing):]
		}
	}
	return os.ExpandEnv(s)
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
		_, ok := dialect.Lookup(fl.Field().String())
		return ok
	})
	return v
}

// Validate checks field constraints and fills defaults.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	ds := c.Datasource
	if ds.URL == "" && ds.Host == "" && ds.Socket == "" && ds.Database == "" {
		return fmt.Errorf("invalid configuration: datasource needs a url, host, socket or database")
	}
	if c.ErrorMode == "" {
		c.ErrorMode = "errors"
	}
	return nil
}

// Params turns the datasource into connect parameters.
func (d *DatasourceConfig) Params() (dialect.Params, error) {
	var p dialect.Params
	if d.URL != "" {
		var err error
		p, err = ParseURL(d.Provider, d.URL)
		if err != nil {
			return dialect.Params{}, err
		}
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&p.Host, d.Host)
	override(&p.Socket, d.Socket)
	override(&p.User, d.User)
	override(&p.Password, d.Password)
	override(&p.Database, d.Database)
	if d.Port != 0 {
		p.Port = d.Port
	}
	return p, nil
}
