package testing

import (
	"os"
	"strings"
)

// Providers lists the providers real-server tests run against: the comma
// separated TEST_PROVIDER, or all of them.
func Providers() []string {
	env := os.Getenv("TEST_PROVIDER")
	if env == "" {
		return []string{"mysql", "postgresql", "sqlite"}
	}
	var out []string
	for _, p := range strings.Split(env, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// StockCreateFor adapts StockCreate to provider's column types.
func StockCreateFor(provider string) string {
	if provider == "postgresql" {
		return strings.ReplaceAll(StockCreate, " double", " double precision")
	}
	return StockCreate
}
