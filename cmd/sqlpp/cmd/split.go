package cmd

import "strings"

// splitStatements splits a script on semicolons outside quoted strings,
// quoted identifiers and "--" or "#" line comments. Empty statements are
// dropped.
func splitStatements(script string) []string {
	var statements []string
	var current strings.Builder
	quote := byte(0)
	comment := false

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(script); i++ {
		ch := script[i]
		switch {
		case comment:
			if ch == '\n' {
				comment = false
				current.WriteByte(ch)
			}
		case quote != 0:
			current.WriteByte(ch)
			if ch == '\\' && quote != '`' && i+1 < len(script) {
				i++
				current.WriteByte(script[i])
			} else if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			current.WriteByte(ch)
		case ch == '#' || ch == '-' && strings.HasPrefix(script[i:], "-- "):
			comment = true
		case ch == ';':
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return statements
}

// returnsRows guesses from the leading keyword whether stmt produces a
// result set.
func returnsRows(stmt string) bool {
	word := stmt
	if i := strings.IndexAny(word, " \t\r\n("); i >= 0 {
		word = word[:i]
	}
	switch strings.ToUpper(word) {
	case "SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "WITH", "VALUES", "TABLE", "PRAGMA":
		return true
	}
	return false
}
