package value

import (
	"strings"
)

// number is a decimal literal split into its parts by scanNumber. The
// grammar is fixed: the decimal separator is always '.', whatever locale the
// process runs under.
type number struct {
	neg   bool
	whole string
	frac  string
	dot   bool
	exp   string
}

// scanNumber recognises [ws][+-]digits[.digits][(e|E)[+-]digits][ws].
// At least one digit must appear before the exponent.
func scanNumber(s string) (number, bool) {
	s = strings.TrimSpace(s)
	var n number
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		n.neg = s[i] == '-'
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	n.whole = s[start:i]
	if i < len(s) && s[i] == '.' {
		n.dot = true
		i++
		start = i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		n.frac = s[start:i]
	}
	if n.whole == "" && n.frac == "" {
		return number{}, false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		start = i
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		digits := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == digits {
			return number{}, false
		}
		n.exp = s[start:i]
	}
	if i != len(s) {
		return number{}, false
	}
	return n, true
}

// integral returns the text to hand to strconv for an integer conversion.
// A fractional part is tolerated only when it is all zeros ("123.00").
func (n number) integral() (string, bool) {
	if n.exp != "" || strings.Trim(n.frac, "0") != "" {
		return "", false
	}
	whole := n.whole
	if whole == "" {
		whole = "0"
	}
	if n.neg {
		return "-" + whole, true
	}
	return whole, true
}

// float returns a canonical literal for strconv.ParseFloat.
func (n number) float() string {
	var b strings.Builder
	if n.neg {
		b.WriteByte('-')
	}
	if n.whole == "" {
		b.WriteByte('0')
	} else {
		b.WriteString(n.whole)
	}
	if n.frac != "" {
		b.WriteByte('.')
		b.WriteString(n.frac)
	}
	if n.exp != "" {
		b.WriteByte('e')
		b.WriteString(n.exp)
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
