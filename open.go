package sqlpp

import (
	"context"
	"os"

	"github.com/carlosnayan/sqlpp/internal/config"
	"github.com/carlosnayan/sqlpp/internal/errors"
	"github.com/carlosnayan/sqlpp/internal/logger"
)

// Open reads a sqlpp.toml or sqlpp.yaml file and connects as it says. An
// empty configPath searches upwards from the working directory. Settings
// in extra are applied after those taken from the file.
func Open(ctx context.Context, configPath string, extra ...Setting) (*Connection, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrBadOption, err)
	}
	return OpenConfig(ctx, cfg, extra...)
}

// OpenConfig connects using an already loaded configuration.
func OpenConfig(ctx context.Context, cfg *config.Config, extra ...Setting) (*Connection, error) {
	p, err := cfg.Datasource.Params()
	if err != nil {
		return nil, errors.Wrap(errors.ErrBadOption, err)
	}
	mode, _ := errors.ParseMode(cfg.ErrorMode)
	settings := []Setting{
		WithErrorMode(mode),
		WithOptions(ConnectionOptions(cfg.Options)...),
	}
	if len(cfg.Log) > 0 {
		settings = append(settings, WithLogger(logger.NewLogger(cfg.Log, os.Stderr)))
	}
	settings = append(settings, extra...)
	return Connect(ctx, cfg.Datasource.Provider, p, settings...)
}

// ConnectionOptions turns the [options] table of a config file into
// connection options.
func ConnectionOptions(o config.OptionsConfig) []Option {
	var opts []Option
	if o.DefaultFile != "" {
		opts = append(opts, ReadDefaultFile{Path: o.DefaultFile, Group: o.DefaultGroup})
	}
	if o.Compress {
		opts = append(opts, Compress{})
	}
	if o.ConnectTimeout.Duration > 0 {
		opts = append(opts, ConnectTimeout(o.ConnectTimeout.Duration))
	}
	if o.ReadTimeout.Duration > 0 {
		opts = append(opts, ReadTimeout(o.ReadTimeout.Duration))
	}
	if o.WriteTimeout.Duration > 0 {
		opts = append(opts, WriteTimeout(o.WriteTimeout.Duration))
	}
	if ssl := o.SSL; ssl != nil {
		opts = append(opts, SSL{Key: ssl.Key, Cert: ssl.Cert, CA: ssl.CA, CAPath: ssl.CAPath, Cipher: ssl.Cipher})
	}
	if o.MultiStatements {
		opts = append(opts, MultiStatements(true))
	}
	if o.Reconnect {
		opts = append(opts, Reconnect(true))
	}
	if o.LocalFiles {
		opts = append(opts, LocalFiles(true))
	}
	if o.FoundRows {
		opts = append(opts, FoundRows(true))
	}
	if o.Charset != "" {
		opts = append(opts, Charset(o.Charset))
	}
	return opts
}
