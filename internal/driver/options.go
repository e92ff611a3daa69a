package driver

import (
	"fmt"
	"time"

	"github.com/carlosnayan/sqlpp/internal/dialect"
)

// OptionKind identifies an option type. At most one option of each kind is
// kept by SetOptionDefault.
type OptionKind int

const (
	KindCompress OptionKind = iota
	KindConnectTimeout
	KindReadTimeout
	KindWriteTimeout
	KindSSL
	KindReadDefaultFile
	KindMultiStatements
	KindReconnect
	KindLocalFiles
	KindFoundRows
	KindCharset
)

var kindNames = [...]string{
	KindCompress:        "compress",
	KindConnectTimeout:  "connect_timeout",
	KindReadTimeout:     "read_timeout",
	KindWriteTimeout:    "write_timeout",
	KindSSL:             "ssl",
	KindReadDefaultFile: "read_default_file",
	KindMultiStatements: "multi_statements",
	KindReconnect:       "reconnect",
	KindLocalFiles:      "local_files",
	KindFoundRows:       "found_rows",
	KindCharset:         "charset",
}

func (k OptionKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("option(%d)", int(k))
}

// postConnect reports whether the kind may be changed on a live connection.
func (k OptionKind) postConnect() bool {
	return k == KindReconnect || k == KindCharset
}

// connectState is what the option list resolves to before connecting.
type connectState struct {
	params    dialect.Params
	settings  dialect.Settings
	reconnect bool
}

// Option is a connection option. Options applied before Connect shape the
// handshake; see OptionKind for which survive a live connection.
type Option interface {
	Kind() OptionKind
	apply(st *connectState) error
}

// Compress turns on protocol compression.
type Compress struct{}

func (Compress) Kind() OptionKind { return KindCompress }
func (Compress) apply(st *connectState) error {
	st.settings.Compress = true
	return nil
}

type ConnectTimeout time.Duration

func (ConnectTimeout) Kind() OptionKind { return KindConnectTimeout }
func (o ConnectTimeout) apply(st *connectState) error {
	st.settings.ConnectTimeout = time.Duration(o)
	return nil
}

type ReadTimeout time.Duration

func (ReadTimeout) Kind() OptionKind { return KindReadTimeout }
func (o ReadTimeout) apply(st *connectState) error {
	st.settings.ReadTimeout = time.Duration(o)
	return nil
}

type WriteTimeout time.Duration

func (WriteTimeout) Kind() OptionKind { return KindWriteTimeout }
func (o WriteTimeout) apply(st *connectState) error {
	st.settings.WriteTimeout = time.Duration(o)
	return nil
}

// SSL holds paths to the TLS material, plus an optional cipher list.
type SSL dialect.TLS

func (SSL) Kind() OptionKind { return KindSSL }
func (o SSL) apply(st *connectState) error {
	tls := dialect.TLS(o)
	st.settings.TLS = &tls
	return nil
}

// ReadDefaultFile loads connect parameters from a my.cnf style file. Group
// defaults to "client". Explicit parameters win over the file.
type ReadDefaultFile struct {
	Path  string
	Group string
}

func (ReadDefaultFile) Kind() OptionKind { return KindReadDefaultFile }
func (o ReadDefaultFile) apply(st *connectState) error {
	values, err := readOptionFile(o.Path, o.Group)
	if err != nil {
		return err
	}
	return values.applyTo(st)
}

// MultiStatements lets one Exec/Store carry several statements.
type MultiStatements bool

func (MultiStatements) Kind() OptionKind { return KindMultiStatements }
func (o MultiStatements) apply(st *connectState) error {
	st.settings.MultiStatements = bool(o)
	return nil
}

// Reconnect lets Ping re-establish a dropped session once.
type Reconnect bool

func (Reconnect) Kind() OptionKind { return KindReconnect }
func (o Reconnect) apply(st *connectState) error {
	st.reconnect = bool(o)
	return nil
}

// LocalFiles allows LOAD DATA LOCAL INFILE.
type LocalFiles bool

func (LocalFiles) Kind() OptionKind { return KindLocalFiles }
func (o LocalFiles) apply(st *connectState) error {
	st.settings.LocalFiles = bool(o)
	return nil
}

// FoundRows makes UPDATE report matched rather than changed rows.
type FoundRows bool

func (FoundRows) Kind() OptionKind { return KindFoundRows }
func (o FoundRows) apply(st *connectState) error {
	st.settings.FoundRows = bool(o)
	return nil
}

type Charset string

func (Charset) Kind() OptionKind { return KindCharset }
func (o Charset) apply(st *connectState) error {
	st.settings.Charset = string(o)
	return nil
}

// resolve applies opts over p in order, so later options win.
func resolve(p dialect.Params, opts []Option) (connectState, error) {
	st := connectState{params: p}
	for _, o := range opts {
		if err := o.apply(&st); err != nil {
			return connectState{}, err
		}
	}
	return st, nil
}
