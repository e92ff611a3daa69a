package cmd

import (
	"fmt"
	"strconv"

	"github.com/carlosnayan/sqlpp/cli"
)

var pingCmd = &cli.Command{
	Name:  "ping",
	Short: "Check that the server is alive",
	Run:   runPing,
}

var statusCmd = &cli.Command{
	Name:  "status",
	Short: "Show the server version and session state",
	Run:   runStatus,
}

var killCmd = &cli.Command{
	Name:  "kill",
	Short: "Terminate a server thread",
	Usage: "sqlpp kill <thread-id>",
	Run:   runKill,
}

var shutdownCmd = &cli.Command{
	Name:  "shutdown",
	Short: "Ask the server to shut down",
	Long:  `Asks the server to shut down. The account needs the SHUTDOWN privilege.`,
	Run:   runShutdown,
}

func runPing(args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	_, conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("server is not responding: %w", err)
	}
	fmt.Fprintln(app.Out, Success("Server is alive"))
	return nil
}

func runStatus(args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	_, conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ServerVersion(ctx); err != nil {
		return fmt.Errorf("error reading server version: %w", err)
	}
	id, err := conn.ThreadID(ctx)
	if err != nil {
		return fmt.Errorf("error reading thread id: %w", err)
	}
	fmt.Fprintln(app.Out, conn.Status())
	fmt.Fprintf(app.Out, "%s %d\n", Info("Thread id:"), id)
	return nil
}

func runKill(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: sqlpp kill <thread-id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid thread id %q", args[0])
	}

	ctx, cancel := commandContext()
	defer cancel()

	_, conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Kill(ctx, id); err != nil {
		return fmt.Errorf("error killing thread %d: %w", id, err)
	}
	fmt.Fprintf(app.Out, "%s thread %d\n", Success("Killed"), id)
	return nil
}

func runShutdown(args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	_, conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	fmt.Fprintln(app.Out, Success("Server is shutting down"))
	return nil
}
