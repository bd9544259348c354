package timeline

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Drivers accepted by CreateStore.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultIndexFields are the columns indexed in a new timeline.
var DefaultIndexFields = []string{"host", "user", "source", "sourcetype", "type", "datetime"}

// Store is a log2timeline database that activity can be exported to.
type Store interface {
	StageEvents(events []*Event) (Pending, error)
	InsertEvents(events []*Event) (int, error)
	CountEvents() (int64, error)
	Close() error
}

// Pending is a batch of staged events, invisible to other readers until
// Commit.
type Pending interface {
	Len() int
	Commit() error
	Rollback() error
}

// SQLStore is a Store backed by database/sql.
type SQLStore struct {
	conn    *sql.DB
	dialect Dialect
}

// CreateStore opens the timeline identified by driver and pathOrConnStr,
// creating its schema if needed. For SQLite pathOrConnStr is a file path, for
// PostgreSQL a connection string to an existing database.
func CreateStore(driver, pathOrConnStr string) (Store, error) {
	var (
		s   *SQLStore
		err error
	)
	switch driver {
	case DriverSQLite:
		s, err = CreateSQLite(pathOrConnStr)
	case DriverPostgres:
		s, err = CreatePostgres(pathOrConnStr)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}

// CreateSQLite creates or opens a SQLite timeline at path.
func CreateSQLite(path string) (*SQLStore, error) {
	return create(&SQLiteDialect{}, path)
}

// CreatePostgres creates the timeline schema on an existing PostgreSQL
// database.
func CreatePostgres(connStr string) (*SQLStore, error) {
	return create(&PostgresDialect{}, connStr)
}

func create(d Dialect, dsn string) (*SQLStore, error) {
	conn, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLStore{conn: conn, dialect: d}
	if err := s.createSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

func (s *SQLStore) createSchema() error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.dialect.CreateTableSQL()); err != nil {
		return fmt.Errorf("creating log2timeline table: %w", err)
	}

	for _, field := range DefaultIndexFields {
		if _, err := tx.Exec(s.dialect.CreateIndexSQL(field+"_idx", "log2timeline", field)); err != nil {
			return fmt.Errorf("creating index on %s: %w", field, err)
		}
	}

	return tx.Commit()
}

type pendingTx struct {
	tx *sql.Tx
	n  int
}

func (p *pendingTx) Len() int { return p.n }

func (p *pendingTx) Commit() error {
	if err := p.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (p *pendingTx) Rollback() error {
	if err := p.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// StageEvents inserts events inside a transaction that is left open. Either
// all events are stored on Commit or none.
func (s *SQLStore) StageEvents(events []*Event) (Pending, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	stmt, err := tx.Prepare(s.dialect.InsertEventSQL())
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, e := range events {
		_, err := stmt.Exec(
			e.Timezone, e.MACB, e.Source, e.SourceType, e.Type,
			e.User, e.Host, e.Desc, e.Filename, e.Inode,
			e.Notes, e.Format, e.Extra, e.Datetime, e.ReportNotes,
			e.InReport, e.Tag, e.Color, e.Offset, e.StoreNumber,
			e.StoreIndex, e.VSSStoreNumber, e.URL, e.RecordNumber,
			e.EventID, e.EventType, e.SourceName, e.UserSID, e.ComputerName,
			e.Bookmark,
		)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("inserting event %d: %w", inserted+1, err)
		}
		inserted++
	}

	return &pendingTx{tx: tx, n: inserted}, nil
}

// InsertEvents stages events and commits them.
func (s *SQLStore) InsertEvents(events []*Event) (int, error) {
	p, err := s.StageEvents(events)
	if err != nil {
		return 0, err
	}

	if err := p.Commit(); err != nil {
		return 0, err
	}

	return p.Len(), nil
}

// CountEvents returns the number of events in the timeline.
func (s *SQLStore) CountEvents() (int64, error) {
	var n int64
	err := s.conn.QueryRow("SELECT COUNT(*) FROM log2timeline").Scan(&n)
	return n, err
}

// queryEvents returns events whose notes column equals runID, in insertion
// order.
func (s *SQLStore) queryEvents(runID string) ([]*Event, error) {
	cols := []string{
		"timezone", "MACB", "source", "sourcetype", "type", "user", "host", "desc", "filename",
		"notes", "format", "extra", "datetime", "URL", "record_number", "event_type",
		"source_name", "computer_name",
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = c
		if _, ok := s.dialect.(*PostgresDialect); ok {
			quoted[i] = pgQuoteCol(c)
		}
	}

	query := "SELECT " + strings.Join(quoted, ", ") + " FROM log2timeline WHERE notes = " +
		s.dialect.Placeholder(1) + " ORDER BY CAST(record_number AS INTEGER)"

	rows, err := s.conn.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var datetime sql.NullString
		if err := rows.Scan(
			&e.Timezone, &e.MACB, &e.Source, &e.SourceType, &e.Type, &e.User, &e.Host, &e.Desc, &e.Filename,
			&e.Notes, &e.Format, &e.Extra, &datetime, &e.URL, &e.RecordNumber, &e.EventType,
			&e.SourceName, &e.ComputerName,
		); err != nil {
			return nil, err
		}
		e.Datetime = datetime.String
		events = append(events, e)
	}

	return events, rows.Err()
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
