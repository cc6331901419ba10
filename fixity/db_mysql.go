package fixity

import (
	"database/sql"

	// no _ in import mysql since we need mysql.NullTime
	"github.com/BurntSushi/migration"
	"github.com/charmbracelet/log"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// mysqlDB keeps the history in a MySQL database, which may be shared by
// many machines.
type mysqlDB struct {
	db *sql.DB
}

var _ DB = &mysqlDB{}

// List of migrations to perform. Add new ones to the end.
// DO NOT change the order of items already in this list.
var mysqlMigrations = []migration.Migrator{
	mysqlschema1,
	mysqlschema2,
}

var mysqlVersioning = dbVersion{
	GetSQL:    `SELECT max(version) FROM migration_version`,
	SetSQL:    `INSERT INTO migration_version (version, applied) VALUES (?, now())`,
	CreateSQL: `CREATE TABLE migration_version (version INTEGER, applied datetime)`,
}

// NewMysqlDB connects to the MySQL database named by dial, creating or
// upgrading the tables as needed.
func NewMysqlDB(dial string) (*mysqlDB, error) {
	db, err := migration.OpenWith(
		"mysql",
		dial,
		mysqlMigrations,
		mysqlVersioning.Get,
		mysqlVersioning.Set)
	if err != nil {
		log.Error("open MySQL", "err", err)
		return nil, errors.Wrap(err, "open MySQL")
	}
	return &mysqlDB{db: db}, nil
}

func (ms *mysqlDB) Record(e *Event) error {
	const query = `INSERT INTO events
		(bag, recorded, operation, status, nok, nmismatch, nmissing, nunexpected, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := ms.db.Exec(query, e.Bag, e.When, e.Operation, e.Status,
		e.OK, e.Mismatch, e.Missing, e.Unexpected, e.Notes)
	if err != nil {
		return errors.Wrap(err, "record event")
	}
	e.ID, err = result.LastInsertId()
	return err
}

func (ms *mysqlDB) History(bag string, limit int) ([]Event, error) {
	query := `
		SELECT id, bag, recorded, operation, status, nok, nmismatch, nmissing, nunexpected, notes
		FROM events
		WHERE bag = ?
		ORDER BY recorded DESC, id DESC`
	args := []interface{}{bag}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := ms.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "history")
	}
	defer rows.Close()
	var result []Event
	for rows.Next() {
		var e Event
		var when mysql.NullTime
		err = rows.Scan(&e.ID, &e.Bag, &when, &e.Operation, &e.Status,
			&e.OK, &e.Mismatch, &e.Missing, &e.Unexpected, &e.Notes)
		if err != nil {
			return nil, errors.Wrap(err, "history")
		}
		if when.Valid {
			e.When = when.Time
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (ms *mysqlDB) Last(bag string) (*Event, error) {
	events, err := ms.History(bag, 1)
	if err != nil || len(events) == 0 {
		return nil, err
	}
	return &events[0], nil
}

func (ms *mysqlDB) Close() error {
	return ms.db.Close()
}

// database migrations. each one is a go function. Add them to the
// list mysqlMigrations at top of this file for them to be run.

func mysqlschema1(tx migration.LimitedTx) error {
	var s = []string{
		`CREATE TABLE IF NOT EXISTS events (
		id int PRIMARY KEY AUTO_INCREMENT,
		bag varchar(1024),
		recorded datetime,
		operation varchar(32),
		status varchar(32),
		nok int,
		nmismatch int,
		nmissing int,
		nunexpected int,
		notes text)`,
	}
	return execlist(tx, s)
}

func mysqlschema2(tx migration.LimitedTx) error {
	var s = []string{
		`CREATE INDEX events_bag ON events (bag(255))`,
		`ALTER TABLE events CHANGE COLUMN notes notes LONGTEXT`,
	}
	return execlist(tx, s)
}

// execlist exec's each item in the list, return if there is an error.
// Used to work around mysql driver not handling compound exec statements.
func execlist(tx migration.LimitedTx, stms []string) error {
	var err error
	for _, s := range stms {
		_, err = tx.Exec(s)
		if err != nil {
			break
		}
	}
	return err
}
