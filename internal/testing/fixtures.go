package testing

// StockDatabase is the sample database the fixtures describe.
const StockDatabase = "sqlpp_sample"

// StockCreate is the DDL for the sample table.
const StockCreate = "create table stock (item char(20) not null, num bigint, weight double, price double, sdate date)"

// StockColumns describes the sample table as a MySQL server reports it.
var StockColumns = []Column{
	{Name: "item", Type: "CHAR", Length: 20},
	{Name: "num", Type: "BIGINT", Nullable: true},
	{Name: "weight", Type: "DOUBLE", Nullable: true},
	{Name: "price", Type: "DOUBLE", Nullable: true},
	{Name: "sdate", Type: "DATE", Nullable: true},
}

// StockRows is the sample data in wire form.
func StockRows() [][]any {
	return [][]any{
		{[]byte("Nürnberger Brats"), []byte("92"), []byte("1.5"), []byte("8.79"), []byte("2005-03-10")},
		{[]byte("Pickle Relish"), []byte("87"), []byte("1.5"), []byte("1.75"), []byte("1998-09-04")},
		{[]byte("Hot Mustard"), []byte("75"), []byte("0.95"), []byte("0.97"), []byte("1998-05-25")},
		{[]byte("Hotdog Buns"), []byte("65"), []byte("1.1"), []byte("1.1"), []byte("1998-04-23")},
	}
}

// ServeStock scripts query to return the whole sample table.
func ServeStock(srv *Server, query string) {
	srv.OnQuery(query, StockColumns, StockRows()...)
}
