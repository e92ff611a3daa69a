// Package sqlpp is a typed client access layer for SQL servers.
//
// sqlpp includes:
//   - Connection: one server session with explicit state, a busy lock and
//     connect-time options
//   - builder.Query: SQL text built with automatic quoting, and reusable
//     %N templates with defaults
//   - result: stored and streamed result sets whose values convert to Go
//     types without locale surprises
//   - value: the type-adapting value buffer and Null[T]
//
// Example usage:
//
//	conn, err := sqlpp.Connect(ctx, "mysql", sqlpp.Params{
//	    Host: "localhost", User: "root", Database: "sqlpp_sample",
//	})
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	q := conn.Query("select item, num from stock where weight < %0")
//	if err := q.Parse(); err != nil {
//	    return err
//	}
//	res, err := q.Store(ctx, 1.5)
//	for _, row := range res.Rows() {
//	    item, _ := row.Field("item")
//	    fmt.Println(item)
//	}
//
// CLI Commands:
//
//	sqlpp exec "select * from stock"   # Run a statement and print the rows
//	sqlpp fieldinfo stock              # Show column metadata of a table
//	sqlpp resetdb                      # Recreate the sample database
//	sqlpp ping | status | kill | shutdown
package sqlpp

const Version = "0.1.0"
