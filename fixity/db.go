// Package fixity keeps a history of the operations run against bags: when
// a bag was made, rebagged, or validated, and what was found. The history
// can be kept in an embedded QL database or in MySQL.
package fixity

import (
	"strings"
	"time"

	"github.com/BurntSushi/migration"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/ndlib/bagr/bagit"
)

// Operations recorded in an Event.
const (
	OpBag      = "bag"
	OpRebag    = "rebag"
	OpValidate = "validate"
)

// Statuses recorded in an Event.
const (
	StatusOK        = "ok"
	StatusInvalid   = "invalid"
	StatusChanged   = "changed"
	StatusUnchanged = "unchanged"
	StatusError     = "error"
)

// Event is one operation run against a bag. The counts are only filled in
// for validations.
type Event struct {
	ID         int64
	Bag        string
	When       time.Time
	Operation  string
	Status     string
	OK         int
	Mismatch   int
	Missing    int
	Unexpected int
	Notes      string
}

// DB stores events. Bags are identified by the path they were given on.
type DB interface {
	// Record adds e to the history.
	Record(e *Event) error
	// History returns the newest limit events for bag, newest first. A
	// limit of zero or less returns all of them.
	History(bag string, limit int) ([]Event, error)
	// Last returns the newest event for bag, or nil if there is none.
	Last(bag string) (*Event, error)
	Close() error
}

// Open connects to the history database named by dsn. "memory" keeps the
// history in memory, "mysql:<dial>" uses a MySQL server, and anything else
// is the name of a QL database file.
func Open(dsn string) (DB, error) {
	switch {
	case dsn == "":
		return nil, errors.New("no fixity database given")
	case strings.HasPrefix(dsn, "mysql:"):
		return NewMysqlDB(strings.TrimPrefix(dsn, "mysql:"))
	}
	return NewQlDB(dsn)
}

// ValidationEvent summarizes a validation report of the bag in dir.
func ValidationEvent(dir string, r *bagit.Report, when time.Time) *Event {
	e := &Event{
		Bag:        dir,
		When:       when,
		Operation:  OpValidate,
		Status:     StatusOK,
		OK:         r.Count(bagit.StatusOK),
		Mismatch:   r.Count(bagit.StatusMismatch),
		Missing:    r.Count(bagit.StatusMissing),
		Unexpected: r.Count(bagit.StatusUnexpected),
	}
	if problems := r.Problems(); len(problems) > 0 {
		e.Status = StatusInvalid
		var notes []string
		for _, p := range problems {
			notes = append(notes, p.Error())
		}
		e.Notes = strings.Join(notes, "\n")
	}
	return e
}

// we need to adapt the migration version functions to work with MySQL.
// This code is slightly modified from github.com/BurntSushi/migration

type dbVersion struct {
	// SQL to get the version of this db, returns one row and one column
	GetSQL string
	// SQL to insert a new version of this db. takes one parameter, the new
	// version
	SetSQL string
	// the SQL to create the version table for this db
	CreateSQL string
}

func (d dbVersion) Get(tx migration.LimitedTx) (int, error) {
	var version int
	err := tx.QueryRow(d.GetSQL).Scan(&version)
	if err != nil {
		// we assume error means there is no migration table
		log.Debug("no migration version", "err", err)
		return 0, nil
	}
	return version, nil
}

func (d dbVersion) Set(tx migration.LimitedTx, version int) error {
	if _, err := tx.Exec(d.SetSQL, version); err != nil {
		if _, err := tx.Exec(d.CreateSQL); err != nil {
			return err
		}
		_, err = tx.Exec(d.SetSQL, version)
		return err
	}
	return nil
}
