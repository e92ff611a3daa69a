package builder

import (
	"strings"
	"time"

	"github.com/carlosnayan/sqlpp/internal/logger"
)

// slowQuery is the duration above which a statement is reported as slow.
const slowQuery = 1000 * time.Millisecond

// detectQueryType returns the leading keyword of a statement.
func detectQueryType(query string) string {
	upper := strings.ToUpper(strings.TrimSpace(query))
	for _, kw := range []string{"SELECT", "INSERT", "REPLACE", "UPDATE", "DELETE", "CREATE", "DROP", "ALTER", "SHOW", "USE", "SET", "CALL"} {
		if strings.HasPrefix(upper, kw) {
			return kw
		}
	}
	return "UNKNOWN"
}

func (q *Query) getLogger() *logger.Logger {
	if q.cfg.Logger != nil {
		return q.cfg.Logger
	}
	return logger.GetDefaultLogger()
}

// logTiming reports how long the session took with sql. The statement text
// itself is logged by the connection.
func (q *Query) logTiming(sql string, start time.Time) {
	log := q.getLogger()
	took := q.cfg.Clock.Since(start)
	queryType := detectQueryType(sql)
	if log.Enabled(logger.LogLevelInfo) {
		log.Info("%s executed in %v", queryType, took)
	}
	if took > slowQuery {
		log.Warn("Slow query detected: %s took %v", queryType, took)
	}
}

// observe feeds the statement to the repeat detector. A plain text query
// sent over and over is a candidate for a parsed template.
func (q *Query) observe(sql string) {
	if q.cfg.Repeats == nil || q.tmpl != nil {
		return
	}
	if alert := q.cfg.Repeats.Record(sql); alert != nil {
		q.getLogger().Warn("%s", alert.String())
	}
}

// SetLogger sets the logger for this query.
func (q *Query) SetLogger(l *logger.Logger) *Query {
	q.cfg.Logger = l
	return q
}
