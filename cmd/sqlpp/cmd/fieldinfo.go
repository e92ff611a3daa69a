package cmd

import (
	"fmt"

	"github.com/carlosnayan/sqlpp/cli"
	"github.com/carlosnayan/sqlpp/internal/formatter"
)

var fieldinfoCmd = &cli.Command{
	Name:  "fieldinfo",
	Short: "Show the column metadata of a table",
	Long: `Selects no rows from a table and prints what the server reports for
each column: SQL type, Go type, nullability and length. The table
defaults to the sample "stock" table created by resetdb.`,
	Usage: "sqlpp fieldinfo [table]",
	Run:   runFieldinfo,
}

func runFieldinfo(args []string) error {
	table := sampleTable
	if len(args) > 0 {
		table = args[0]
	}

	ctx, cancel := commandContext()
	defer cancel()

	_, conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	q := conn.Query("select * from %0:table limit 0")
	if err := q.Parse(); err != nil {
		return err
	}
	res, err := q.Store(ctx, table)
	if err != nil {
		return fmt.Errorf("error reading fields of %s: %w", table, err)
	}
	fmt.Fprintf(app.Out, "Fields of %s:\n", Highlight(table))
	fmt.Fprint(app.Out, formatter.FormatFields(res.Fields()))
	return nil
}
