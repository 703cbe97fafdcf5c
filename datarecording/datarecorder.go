// Package datarecording records simulation traces in SQLite databases so
// that command streams and calibration results can be inspected with
// standard tooling after a run.
package datarecording

import (
	"database/sql"
	"fmt"
	"log"
	"reflect"
	"strings"

	"github.com/fatih/structs"
	// Blank import to register the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// A DataRecorder can write trace entries into tables.
type DataRecorder interface {
	// CreateTable creates a table whose columns are derived from the
	// fields of the sample entry.
	CreateTable(table string, sampleEntry any)

	// InsertData inserts one entry into a previously created table.
	InsertData(table string, entry any)

	// ListTables returns the names of all created tables.
	ListTables() []string

	// Flush writes all buffered entries to the database.
	Flush()

	// Close flushes and closes the database.
	Close()
}

type tableState struct {
	columns []string
	pending []any
}

type sqliteRecorder struct {
	db     *sql.DB
	dbName string

	tables map[string]*tableState

	batchSize int
}

// NewDataRecorder creates a DataRecorder backed by a SQLite database. The
// database file is named after the given prefix plus a unique suffix. The
// recorder flushes at process exit.
func NewDataRecorder(prefix string) DataRecorder {
	dbName := fmt.Sprintf("%s_%s.sqlite3", prefix, xid.New().String())

	db, err := sql.Open("sqlite3", dbName)
	if err != nil {
		log.Panic(err)
	}

	r := &sqliteRecorder{
		db:        db,
		dbName:    dbName,
		tables:    make(map[string]*tableState),
		batchSize: 100000,
	}

	atexit.Register(func() { r.Close() })

	return r
}

func (r *sqliteRecorder) CreateTable(table string, sampleEntry any) {
	if _, ok := r.tables[table]; ok {
		log.Panicf("table %s already exists", table)
	}

	fields := structs.Fields(sampleEntry)

	columns := make([]string, 0, len(fields))
	defs := make([]string, 0, len(fields))
	for _, f := range fields {
		columns = append(columns, f.Name())
		defs = append(defs, f.Name()+" "+sqlType(f.Value()))
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (%s)",
		table, strings.Join(defs, ", "))

	_, err := r.db.Exec(stmt)
	if err != nil {
		log.Panic(err)
	}

	r.tables[table] = &tableState{columns: columns}
}

func sqlType(v any) string {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Int64, reflect.Uint, reflect.Uint8, reflect.Uint16,
		reflect.Uint32, reflect.Uint64, reflect.Bool:
		return "INTEGER"
	case reflect.Float32, reflect.Float64:
		return "REAL"
	default:
		return "TEXT"
	}
}

func (r *sqliteRecorder) InsertData(table string, entry any) {
	t, ok := r.tables[table]
	if !ok {
		log.Panicf("table %s does not exist", table)
	}

	t.pending = append(t.pending, entry)
	if len(t.pending) >= r.batchSize {
		r.flushTable(table, t)
	}
}

func (r *sqliteRecorder) ListTables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}

	return names
}

func (r *sqliteRecorder) Flush() {
	for name, t := range r.tables {
		r.flushTable(name, t)
	}
}

func (r *sqliteRecorder) flushTable(name string, t *tableState) {
	if len(t.pending) == 0 {
		return
	}

	tx, err := r.db.Begin()
	if err != nil {
		log.Panic(err)
	}

	placeholders := strings.TrimSuffix(
		strings.Repeat("?, ", len(t.columns)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		name, strings.Join(t.columns, ", "), placeholders))
	if err != nil {
		log.Panic(err)
	}

	for _, entry := range t.pending {
		values := structs.Values(entry)

		_, err := stmt.Exec(values...)
		if err != nil {
			log.Panic(err)
		}
	}

	err = tx.Commit()
	if err != nil {
		log.Panic(err)
	}

	t.pending = nil
}

func (r *sqliteRecorder) Close() {
	r.Flush()

	err := r.db.Close()
	if err != nil {
		log.Panic(err)
	}
}

// DBName returns the name of the database file behind a recorder created by
// NewDataRecorder, or the empty string for other implementations.
func DBName(r DataRecorder) string {
	if s, ok := r.(*sqliteRecorder); ok {
		return s.dbName
	}

	return ""
}
