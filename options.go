package sqlpp

import (
	"database/sql"
	"io"
	"time"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/carlosnayan/sqlpp/internal/cache"
	"github.com/carlosnayan/sqlpp/internal/dialect"
	"github.com/carlosnayan/sqlpp/internal/driver"
	"github.com/carlosnayan/sqlpp/internal/errors"
	"github.com/carlosnayan/sqlpp/internal/logger"
	"github.com/carlosnayan/sqlpp/internal/query"
)

// Params are the server coordinates passed to Connect.
type Params = dialect.Params

// TLS holds SSL material as file paths for the SSL option.
type TLS = dialect.TLS

// Connection options. Apply them with SetOption before Connect, or pass
// them to WithOptions.
type (
	Option          = driver.Option
	OptionKind      = driver.OptionKind
	Compress        = driver.Compress
	ConnectTimeout  = driver.ConnectTimeout
	ReadTimeout     = driver.ReadTimeout
	WriteTimeout    = driver.WriteTimeout
	SSL             = driver.SSL
	ReadDefaultFile = driver.ReadDefaultFile
	MultiStatements = driver.MultiStatements
	Reconnect       = driver.Reconnect
	LocalFiles      = driver.LocalFiles
	FoundRows       = driver.FoundRows
	Charset         = driver.Charset
)

const (
	KindCompress        = driver.KindCompress
	KindConnectTimeout  = driver.KindConnectTimeout
	KindReadTimeout     = driver.KindReadTimeout
	KindWriteTimeout    = driver.KindWriteTimeout
	KindSSL             = driver.KindSSL
	KindReadDefaultFile = driver.KindReadDefaultFile
	KindMultiStatements = driver.KindMultiStatements
	KindReconnect       = driver.KindReconnect
	KindLocalFiles      = driver.KindLocalFiles
	KindFoundRows       = driver.KindFoundRows
	KindCharset         = driver.KindCharset
)

type settings struct {
	log        *logger.Logger
	clk        clock.Clock
	registerer prometheus.Registerer
	mode       errors.Mode
	open       driver.Opener
	maxRows    int
	templates  *cache.TemplateCache
	repeats    *query.RepeatDetector
	options    []Option
}

// Setting configures a Connection at construction.
type Setting func(*settings)

// WithLogger sets the logger. The package default logger is used otherwise.
func WithLogger(l *logger.Logger) Setting {
	return func(s *settings) { s.log = l }
}

// WithClock sets the clock used for timings and template cache expiry.
func WithClock(clk clock.Clock) Setting {
	return func(s *settings) { s.clk = clk }
}

// WithRegisterer registers the connection metrics with r.
func WithRegisterer(r prometheus.Registerer) Setting {
	return func(s *settings) { s.registerer = r }
}

// WithErrorMode sets how failures are reported.
func WithErrorMode(m ErrorMode) Setting {
	return func(s *settings) { s.mode = m }
}

// WithOpener replaces sql.Open, mostly for tests.
func WithOpener(open func(driverName, dsn string) (*sql.DB, error)) Setting {
	return func(s *settings) { s.open = open }
}

// WithMaxRows caps how many rows Store buffers. Negative means no cap.
func WithMaxRows(n int) Setting {
	return func(s *settings) { s.maxRows = n }
}

// WithTemplateCache shares parsed templates between connections.
func WithTemplateCache(c *cache.TemplateCache) Setting {
	return func(s *settings) { s.templates = c }
}

// WithRepeatDetector warns when the same statement shape is sent as plain
// text over and over.
func WithRepeatDetector(d *query.RepeatDetector) Setting {
	return func(s *settings) { s.repeats = d }
}

// WithOptions applies connection options before the first Connect.
func WithOptions(opts ...Option) Setting {
	return func(s *settings) { s.options = append(s.options, opts...) }
}

// Logger, TemplateCache and RepeatDetector are the collaborators accepted
// by the settings above.
type (
	Logger         = logger.Logger
	TemplateCache  = cache.TemplateCache
	RepeatDetector = query.RepeatDetector
)

// NewLogger writes the named levels ("query", "info", "warn", "error") to w.
func NewLogger(levels []string, w io.Writer) *Logger { return logger.NewLogger(levels, w) }

// NewTemplateCache keeps up to maxSize parsed templates for ttl each.
func NewTemplateCache(maxSize int, ttl time.Duration) *TemplateCache {
	return cache.NewTemplateCache(maxSize, ttl, nil)
}

// NewRepeatDetector flags a statement shape sent threshold times within
// window.
func NewRepeatDetector(threshold int, window time.Duration) *RepeatDetector {
	return query.NewRepeatDetector(threshold, window, nil)
}
