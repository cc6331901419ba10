package fixity

import (
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	_ "github.com/cznic/ql/driver"
	"github.com/pkg/errors"
)

// qlDB keeps the history in the QL embedded database. It is meant for a
// single user on one machine.
type qlDB struct {
	db *sql.DB
}

var _ DB = &qlDB{}

const qlInit = `
	CREATE TABLE IF NOT EXISTS events (
		bag string,
		recorded time,
		operation string,
		status string,
		nok int64,
		nmismatch int64,
		nmissing int64,
		nunexpected int64,
		notes string
	);
	CREATE INDEX IF NOT EXISTS eventbag ON events (bag);
	CREATE INDEX IF NOT EXISTS eventrecorded ON events (recorded);
`

// memCount makes the name of each in-memory database unique, since the
// driver shares databases opened under the same name.
var memCount int64

// NewQlDB opens or creates the QL database in filename. The name "memory"
// makes a database which only lives as long as the process.
func NewQlDB(filename string) (*qlDB, error) {
	var db *sql.DB
	var err error
	if filename == "memory" {
		name := fmt.Sprintf("mem%d.db", atomic.AddInt64(&memCount, 1))
		db, err = sql.Open("ql-mem", name)
	} else {
		db, err = sql.Open("ql", filename)
	}
	if err == nil {
		_, err = performExec(db, qlInit)
	}
	if err != nil {
		log.Error("open QL", "file", filename, "err", err)
		return nil, errors.Wrap(err, "open QL")
	}
	return &qlDB{db: db}, nil
}

func (q *qlDB) Record(e *Event) error {
	const query = `INSERT INTO events VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9)`

	result, err := performExec(q.db, query, e.Bag, e.When, e.Operation, e.Status,
		int64(e.OK), int64(e.Mismatch), int64(e.Missing), int64(e.Unexpected), e.Notes)
	if err != nil {
		return errors.Wrap(err, "record event")
	}
	e.ID, err = result.LastInsertId()
	return err
}

func (q *qlDB) History(bag string, limit int) ([]Event, error) {
	const query = `
		SELECT id(), bag, recorded, operation, status, nok, nmismatch, nmissing, nunexpected, notes
		FROM events
		WHERE bag == ?1
		ORDER BY recorded DESC`

	rows, err := q.db.Query(query, bag)
	if err != nil {
		return nil, errors.Wrap(err, "history")
	}
	defer rows.Close()
	var result []Event
	for rows.Next() {
		if limit > 0 && len(result) == limit {
			break
		}
		var e Event
		var nok, nmismatch, nmissing, nunexpected int64
		err = rows.Scan(&e.ID, &e.Bag, &e.When, &e.Operation, &e.Status,
			&nok, &nmismatch, &nmissing, &nunexpected, &e.Notes)
		if err != nil {
			return nil, errors.Wrap(err, "history")
		}
		e.OK, e.Mismatch, e.Missing, e.Unexpected = int(nok), int(nmismatch), int(nmissing), int(nunexpected)
		result = append(result, e)
	}
	return result, rows.Err()
}

func (q *qlDB) Last(bag string) (*Event, error) {
	events, err := q.History(bag, 1)
	if err != nil || len(events) == 0 {
		return nil, err
	}
	return &events[0], nil
}

func (q *qlDB) Close() error {
	return q.db.Close()
}

// performExec runs query in its own transaction, which QL requires for
// every change to the database.
func performExec(db *sql.DB, query string, args ...interface{}) (sql.Result, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	var result sql.Result
	result, err = tx.Exec(query, args...)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	err = tx.Commit()
	return result, err
}
