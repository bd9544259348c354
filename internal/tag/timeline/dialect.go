package timeline

import "fmt"

// Dialect abstracts the SQL that differs between database backends.
type Dialect interface {
	// DriverName returns the database/sql driver name.
	DriverName() string

	// Placeholder returns the parameter placeholder for the 1-based index.
	Placeholder(index int) string

	// CreateTableSQL returns the DDL for the log2timeline table.
	CreateTableSQL() string

	// CreateIndexSQL returns DDL to create an index on a table column.
	CreateIndexSQL(indexName, tableName, column string) string

	// InsertEventSQL returns the parameterized INSERT statement for one event.
	InsertEventSQL() string
}

// SQLiteDialect implements Dialect for SQLite databases.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string           { return "sqlite" }
func (d *SQLiteDialect) Placeholder(index int) string { return "?" }

func (d *SQLiteDialect) CreateTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS log2timeline (
		timezone TEXT, MACB TEXT, source TEXT, sourcetype TEXT,
		type TEXT, user TEXT, host TEXT, desc TEXT, filename TEXT,
		inode TEXT, notes TEXT, format TEXT, extra TEXT,
		datetime DATETIME, reportnotes TEXT, inreport TEXT,
		tag TEXT, color TEXT, offset INT, store_number INT,
		store_index INT, vss_store_number INT, URL TEXT,
		record_number TEXT, event_identifier TEXT, event_type TEXT,
		source_name TEXT, user_sid TEXT, computer_name TEXT,
		bookmark INT DEFAULT 0
	)`
}

func (d *SQLiteDialect) CreateIndexSQL(indexName, tableName, column string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", indexName, tableName, column)
}

func (d *SQLiteDialect) InsertEventSQL() string {
	return insertEventSQL(d, "user", "desc", "offset")
}

// PostgresDialect implements Dialect for PostgreSQL databases.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string           { return "pgx" }
func (d *PostgresDialect) Placeholder(index int) string { return fmt.Sprintf("$%d", index) }

func (d *PostgresDialect) CreateTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS log2timeline (
		id SERIAL PRIMARY KEY,
		timezone TEXT, MACB TEXT, source TEXT, sourcetype TEXT,
		type TEXT, "user" TEXT, host TEXT, "desc" TEXT, filename TEXT,
		inode TEXT, notes TEXT, format TEXT, extra TEXT,
		datetime TIMESTAMP, reportnotes TEXT, inreport TEXT,
		tag TEXT, color TEXT, "offset" INT, store_number INT,
		store_index INT, vss_store_number INT, URL TEXT,
		record_number TEXT, event_identifier TEXT, event_type TEXT,
		source_name TEXT, user_sid TEXT, computer_name TEXT,
		bookmark INT DEFAULT 0
	)`
}

func (d *PostgresDialect) CreateIndexSQL(indexName, tableName, column string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", indexName, tableName, pgQuoteCol(column))
}

func (d *PostgresDialect) InsertEventSQL() string {
	return insertEventSQL(d, `"user"`, `"desc"`, `"offset"`)
}

// pgQuoteCol quotes column names that are reserved words in PostgreSQL.
func pgQuoteCol(name string) string {
	switch name {
	case "user", "desc", "offset":
		return `"` + name + `"`
	default:
		return name
	}
}

// insertColumns is the number of columns written per event.
const insertColumns = 30

func insertEventSQL(d Dialect, user, desc, offset string) string {
	placeholders := ""
	for i := 1; i <= insertColumns; i++ {
		if i > 1 {
			placeholders += ", "
		}
		placeholders += d.Placeholder(i)
	}

	return fmt.Sprintf(`INSERT INTO log2timeline (
		timezone, MACB, source, sourcetype, type, %s, host, %s, filename,
		inode, notes, format, extra, datetime, reportnotes, inreport, tag, color,
		%s, store_number, store_index, vss_store_number, URL, record_number,
		event_identifier, event_type, source_name, user_sid, computer_name, bookmark
	) VALUES (%s)`, user, desc, offset, placeholders)
}
