package dialect

import (
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/carlosnayan/sqlpp/value"
)

// mapColumnType covers the type names reported by the mysql, pgx and sqlite3
// drivers through sql.ColumnType.DatabaseTypeName.
func mapColumnType(dbType string) value.Type {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	unsigned := strings.HasPrefix(t, "UNSIGNED ")
	t = strings.TrimPrefix(t, "UNSIGNED ")

	switch t {
	case "TINYINT":
		if unsigned {
			return value.TypeUint8
		}
		return value.TypeInt8
	case "SMALLINT", "INT2", "YEAR":
		if unsigned {
			return value.TypeUint16
		}
		return value.TypeInt16
	case "MEDIUMINT", "INT", "INTEGER", "INT4":
		if unsigned {
			return value.TypeUint32
		}
		return value.TypeInt32
	case "BIGINT", "INT8", "SERIAL", "BIGSERIAL":
		if unsigned {
			return value.TypeUint64
		}
		return value.TypeInt64
	case "BIT":
		return value.TypeUint64
	case "FLOAT", "FLOAT4", "REAL":
		return value.TypeFloat32
	case "DOUBLE", "FLOAT8", "DOUBLE PRECISION":
		return value.TypeFloat64
	case "DECIMAL", "NUMERIC", "MONEY":
		return value.TypeDecimal
	case "BOOL", "BOOLEAN":
		return value.TypeBool
	case "DATE":
		return value.TypeDate
	case "DATETIME", "TIMESTAMP", "TIMESTAMPTZ":
		return value.TypeDateTime
	case "TIME", "TIMETZ", "INTERVAL":
		return value.TypeTime
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY", "BYTEA", "GEOMETRY":
		return value.TypeBlob
	case "NULL":
		return value.TypeNull
	case "":
		return value.TypeUnknown
	}
	return value.TypeString
}

func buildTLSConfig(t *TLS, serverName string) (*tls.Config, error) {
	cfg := &tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12}

	if t.Cert != "" || t.Key != "" {
		pair, err := tls.LoadX509KeyPair(t.Cert, t.Key)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{pair}
	}

	if t.CA != "" || t.CAPath != "" {
		pool := x509.NewCertPool()
		files := []string{}
		if t.CA != "" {
			files = append(files, t.CA)
		}
		if t.CAPath != "" {
			matches, err := filepath.Glob(filepath.Join(t.CAPath, "*.pem"))
			if err != nil {
				return nil, fmt.Errorf("scan ca path: %w", err)
			}
			files = append(files, matches...)
		}
		for _, f := range files {
			pem, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("read ca file: %w", err)
			}
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("no certificates found in %s", f)
			}
		}
		cfg.RootCAs = pool
	}

	if t.Cipher != "" {
		suites, err := cipherSuites(t.Cipher)
		if err != nil {
			return nil, err
		}
		cfg.CipherSuites = suites
	}
	return cfg, nil
}

// cipherSuites resolves a colon separated list of Go cipher suite names.
func cipherSuites(list string) ([]uint16, error) {
	known := map[string]uint16{}
	for _, cs := range tls.CipherSuites() {
		known[cs.Name] = cs.ID
	}
	var ids []uint16
	for _, name := range strings.Split(list, ":") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("unknown cipher suite %q", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// tlsConfigName derives a stable registry key from the TLS material.
func tlsConfigName(t *TLS) string {
	h := sha1.Sum([]byte(strings.Join([]string{t.Key, t.Cert, t.CA, t.CAPath, t.Cipher}, "\x00")))
	return "sqlpp-" + hex.EncodeToString(h[:8])
}
