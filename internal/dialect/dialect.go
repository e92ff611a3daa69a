package dialect

import (
	"strings"
	"time"

	"github.com/carlosnayan/sqlpp/value"
)

// Params are the connect-time coordinates of a server.
type Params struct {
	Host     string
	Socket   string
	Port     int
	User     string
	Password string
	Database string
}

// TLS holds SSL material as file paths.
type TLS struct {
	Key    string
	Cert   string
	CA     string
	CAPath string
	Cipher string
}

// Settings is the flattened view of the connection options that shape the
// DSN. Zero values mean "driver default".
type Settings struct {
	Compress        bool
	ConnectTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	TLS             *TLS
	MultiStatements bool
	LocalFiles      bool
	FoundRows       bool
	Charset         string
}

// Dialect hides the differences between the supported servers: how to reach
// them, how to escape text for them and how to ask them administrative
// questions. Statement builders return "" when the server has no equivalent.
type Dialect interface {
	// Name retorna o nome do dialeto (ex: "postgresql", "mysql", "sqlite")
	Name() string

	// GetDriverName retorna o nome do driver Go para database/sql
	GetDriverName() string

	// BuildDSN turns connect params and settings into a driver DSN.
	BuildDSN(p Params, s Settings) (string, error)

	// QuoteIdentifier cita um identificador (tabela, coluna, etc.)
	QuoteIdentifier(name string) string

	// QuoteString cita uma string literal
	QuoteString(value string) string

	// EscapeString escapes text for use between single quotes.
	EscapeString(s string) string

	// MapColumnType maps a database type name as reported by the driver.
	MapColumnType(dbType string) value.Type

	// ErrorNumber extracts the native error number, 0 when there is none.
	ErrorNumber(err error) int

	ShutdownSQL() string
	KillSQL(id int64) string
	ThreadIDSQL() string
	SelectDBSQL(name string) string
	CreateDBSQL(name string) string
	DropDBSQL(name string) string
	VersionSQL() string
	CharsetSQL(charset string) string
}

// Lookup returns the dialect for a provider name.
func Lookup(provider string) (Dialect, bool) {
	switch strings.ToLower(provider) {
	case "mysql", "mariadb":
		return &MySQLDialect{}, true
	case "postgresql", "postgres", "pgx":
		return &PostgreSQLDialect{}, true
	case "sqlite", "sqlite3":
		return &SQLiteDialect{}, true
	}
	return nil, false
}
