package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carlosnayan/sqlpp/cli"
)

const (
	sampleDatabase = "sqlpp_sample"
	sampleTable    = "stock"
	sampleCreate   = "create table stock (item char(20) not null, num bigint, weight double, price double, sdate date)"
	sampleInsert   = "insert into stock (item, num, weight, price, sdate) values (%0q:item, %1:num, %2:weight, %3:price, %4q:sdate)"
)

// sampleStock is the content of the sample table.
var sampleStock = [][]any{
	{"Nürnberger Brats", int64(92), 1.5, 8.79, "2005-03-10"},
	{"Pickle Relish", int64(87), 1.5, 1.75, "1998-09-04"},
	{"Hot Mustard", int64(75), 0.95, 0.97, "1998-05-25"},
	{"Hotdog Buns", int64(65), 1.1, 1.1, "1998-04-23"},
}

var (
	resetdbDatabaseFlag string
	resetdbScratchFlag  bool
)

var resetdbCmd = &cli.Command{
	Name:  "resetdb",
	Short: "Create the sample database and fill the stock table",
	Long: `Drops the sample database if it exists, creates it again with a
"stock" table and inserts the sample rows through a query template.
With --scratch a uniquely named database is used instead.`,
	Usage: "sqlpp resetdb [--database name] [--scratch]",
	Flags: []*cli.Flag{
		{
			Name:  "database",
			Short: "d",
			Usage: "Database to create (default: sqlpp_sample)",
			Value: &resetdbDatabaseFlag,
		},
		{
			Name:  "scratch",
			Usage: "Create a uniquely named database",
			Value: &resetdbScratchFlag,
		},
	},
	Run: runResetdb,
}

func runResetdb(args []string) error {
	name := resetdbDatabaseFlag
	if name == "" {
		name = sampleDatabase
	}
	if resetdbScratchFlag {
		name = scratchDatabase()
	}
	resetdbDatabaseFlag, resetdbScratchFlag = "", false

	ctx, cancel := commandContext()
	defer cancel()

	_, conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.DropDB(ctx, name); err == nil {
		fmt.Fprintln(app.Out, Info("Dropped existing database "+name))
	}
	if err := conn.CreateDB(ctx, name); err != nil {
		return fmt.Errorf("error creating database %s: %w", name, err)
	}
	if err := conn.SelectDB(ctx, name); err != nil {
		return fmt.Errorf("error selecting database %s: %w", name, err)
	}
	if _, err := conn.Exec(ctx, sampleCreate); err != nil {
		return fmt.Errorf("error creating table: %w", err)
	}

	insert := conn.Query(sampleInsert)
	if err := insert.Parse(); err != nil {
		return err
	}
	for _, row := range sampleStock {
		if _, err := insert.Exec(ctx, row...); err != nil {
			return fmt.Errorf("error populating stock table: %w", err)
		}
	}

	fmt.Fprintf(app.Out, "%s %s with %d rows in %s\n",
		Success("Created"), Highlight(sampleTable), len(sampleStock), Highlight(name))
	return nil
}

// scratchDatabase returns a database name unlikely to collide with another
// run.
func scratchDatabase() string {
	return sampleDatabase + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
