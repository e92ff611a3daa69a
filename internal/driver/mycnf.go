package driver

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/carlosnayan/sqlpp/internal/dialect"
	"github.com/carlosnayan/sqlpp/internal/errors"
)

// optionFile is the subset of a my.cnf group that maps onto connect params.
type optionFile map[string]string

// readOptionFile reads the named group of a MySQL option file. Keys are
// normalized to use '_' so "ssl-ca" and "ssl_ca" are the same key.
// !include and !includedir directives are followed.
func readOptionFile(path, group string) (optionFile, error) {
	if group == "" {
		group = "client"
	}
	values := optionFile{}
	if err := values.load(path, group, 0); err != nil {
		return nil, err
	}
	return values, nil
}

func (o optionFile) load(path, group string, depth int) error {
	if depth > 8 {
		return errors.New(errors.ErrBadOption, "option file includes nest too deep at %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.New(errors.ErrBadOption, "read default file: %v", err)
	}
	defer f.Close()

	in := false
	sc := bufio.NewScanner(f)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "", line[0] == '#', line[0] == ';':
			continue
		case strings.HasPrefix(line, "!includedir "):
			dir := strings.TrimSpace(strings.TrimPrefix(line, "!includedir "))
			matches, _ := filepath.Glob(filepath.Join(dir, "*.cnf"))
			for _, m := range matches {
				if err := o.load(m, group, depth+1); err != nil {
					return err
				}
			}
			continue
		case strings.HasPrefix(line, "!include "):
			if err := o.load(strings.TrimSpace(strings.TrimPrefix(line, "!include ")), group, depth+1); err != nil {
				return err
			}
			continue
		case line[0] == '[':
			end := strings.IndexByte(line, ']')
			if end < 0 {
				return errors.New(errors.ErrBadOption, "%s:%d: unterminated group header", path, lineNo)
			}
			in = strings.EqualFold(strings.TrimSpace(line[1:end]), group)
			continue
		}
		if !in {
			continue
		}
		key, val, _ := strings.Cut(line, "=")
		key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
		o[key] = unquote(strings.TrimSpace(val))
	}
	if err := sc.Err(); err != nil {
		return errors.New(errors.ErrBadOption, "read default file: %v", err)
	}
	return nil
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	if i := strings.Index(v, " #"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return v
}

// applyTo fills the parameters the caller left empty and the settings the
// file names.
func (o optionFile) applyTo(st *connectState) error {
	fill := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v, ok := o[k]; ok {
				*dst = v
				return
			}
		}
	}
	fill(&st.params.Host, "host")
	fill(&st.params.Socket, "socket")
	fill(&st.params.User, "user")
	fill(&st.params.Password, "password")
	fill(&st.params.Database, "database")
	if v, ok := o["port"]; ok && st.params.Port == 0 {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New(errors.ErrBadOption, "port %q in default file", v)
		}
		st.params.Port = port
	}

	if _, ok := o["compress"]; ok {
		st.settings.Compress = true
	}
	if v, ok := o["connect_timeout"]; ok {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return errors.New(errors.ErrBadOption, "connect_timeout %q in default file", v)
		}
		st.settings.ConnectTimeout = time.Duration(secs) * time.Second
	}
	if v, ok := o["default_character_set"]; ok {
		st.settings.Charset = v
	}

	var tls dialect.TLS
	fill(&tls.Key, "ssl_key")
	fill(&tls.Cert, "ssl_cert")
	fill(&tls.CA, "ssl_ca")
	fill(&tls.CAPath, "ssl_capath")
	fill(&tls.Cipher, "ssl_cipher")
	if tls != (dialect.TLS{}) && st.settings.TLS == nil {
		st.settings.TLS = &tls
	}
	return nil
}
