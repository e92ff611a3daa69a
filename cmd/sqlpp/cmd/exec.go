package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carlosnayan/sqlpp"
	"github.com/carlosnayan/sqlpp/cli"
	"github.com/carlosnayan/sqlpp/internal/formatter"
	"github.com/carlosnayan/sqlpp/internal/logger"
)

var (
	execFileFlag   string
	execStreamFlag bool
	execWatchFlag  bool
)

var execCmd = &cli.Command{
	Name:  "exec",
	Short: "Execute SQL and print the results",
	Long: `Executes one or more SQL statements separated by semicolons.
Statements that return rows are printed as tables; others report the
number of affected rows. With --watch the file is executed again every
time it changes, until interrupted.`,
	Usage: "sqlpp exec [--file path] [--stream] [--watch] [sql]",
	Flags: []*cli.Flag{
		{
			Name:  "file",
			Short: "f",
			Usage: "SQL file to execute",
			Value: &execFileFlag,
		},
		{
			Name:  "stream",
			Usage: "Print rows as they arrive instead of buffering a table",
			Value: &execStreamFlag,
		},
		{
			Name:  "watch",
			Short: "w",
			Usage: "Execute the file again whenever it changes",
			Value: &execWatchFlag,
		},
	},
	Run: runExec,
}

func runExec(args []string) error {
	defer func() { execFileFlag, execStreamFlag, execWatchFlag = "", false, false }()
	if execWatchFlag && execFileFlag == "" {
		return fmt.Errorf("--watch needs --file")
	}

	ctx, cancel := commandContext()
	defer cancel()

	cfg, conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if execWatchFlag {
		if cfg.Metrics != "" {
			stop := serveMetrics(cfg.Metrics)
			defer stop()
		}
		return watchScript(ctx, conn, execFileFlag)
	}

	script, err := readScript(args)
	if err != nil {
		return err
	}
	return runScript(ctx, conn, script)
}

// readScript takes the SQL from --file, the arguments or stdin, in that
// order.
func readScript(args []string) (string, error) {
	var script string
	switch {
	case execFileFlag != "":
		data, err := os.ReadFile(execFileFlag)
		if err != nil {
			return "", fmt.Errorf("error reading file: %w", err)
		}
		script = string(data)
	case len(args) > 0:
		script = strings.Join(args, " ")
	default:
		scanner := bufio.NewScanner(os.Stdin)
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("error reading stdin: %w", err)
		}
		script = strings.Join(lines, "\n")
	}
	if strings.TrimSpace(script) == "" {
		return "", fmt.Errorf("no SQL provided")
	}
	return script, nil
}

func runScript(ctx context.Context, conn *sqlpp.Connection, script string) error {
	for _, stmt := range splitStatements(script) {
		if err := runStatement(ctx, conn, stmt); err != nil {
			return fmt.Errorf("error executing SQL: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}

func runStatement(ctx context.Context, conn *sqlpp.Connection, stmt string) error {
	if !returnsRows(stmt) {
		res, err := conn.Exec(ctx, stmt)
		if err != nil {
			return err
		}
		fmt.Fprint(app.Out, formatter.FormatExec(res))
		return nil
	}

	if execStreamFlag {
		return streamRows(ctx, conn, stmt)
	}

	res, err := conn.Store(ctx, stmt)
	if err != nil {
		return err
	}
	fmt.Fprint(app.Out, formatter.FormatResult(res))
	for conn.MoreResults() {
		res, err := conn.StoreNext(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(app.Out, formatter.FormatResult(res))
	}
	return nil
}

func streamRows(ctx context.Context, conn *sqlpp.Connection, stmt string) error {
	use, err := conn.Use(ctx, stmt)
	if err != nil {
		return err
	}
	defer use.Close()

	fmt.Fprintln(app.Out, strings.Join(use.FieldNames().Names(), "\t"))
	n := 0
	for row, err := range use.All() {
		if err != nil {
			return err
		}
		fmt.Fprintln(app.Out, formatter.FormatRow(row))
		n++
	}
	fmt.Fprint(app.Out, formatter.RowCount(n))
	return nil
}

// watchScript runs path now and again after every write to it. Failures
// are reported and watching goes on.
func watchScript(ctx context.Context, conn *sqlpp.Connection, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	clean := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(clean)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	run := func() {
		script, err := readScript(nil)
		if err == nil {
			err = runScript(ctx, conn, script)
		}
		if err != nil {
			fmt.Fprintln(app.Err, Warning(err.Error()))
		}
		fmt.Fprintln(app.Out, Info("Watching "+path+" for changes..."))
	}

	execFileFlag = path
	run()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != clean || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			run()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch %s: %v", path, err)
		}
	}
}

// serveMetrics exposes the prometheus default registry on addr until the
// returned function is called.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
