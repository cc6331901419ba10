package fixity

import (
	"testing"
	"time"
)

func TestQlHistory(t *testing.T) {
	db, err := Open("memory")
	if err != nil {
		t.Fatalf("Received %s", err.Error())
	}
	defer db.Close()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var table = []struct {
		bag    string
		offset time.Duration
		op     string
		status string
	}{
		{"/bags/one", 0, OpBag, StatusOK},
		{"/bags/one", time.Hour, OpValidate, StatusOK},
		{"/bags/two", time.Hour, OpBag, StatusOK},
		{"/bags/one", 2 * time.Hour, OpValidate, StatusInvalid},
		{"/bags/one", 3 * time.Hour, OpRebag, StatusChanged},
	}
	for _, tab := range table {
		e := &Event{Bag: tab.bag, When: start.Add(tab.offset), Operation: tab.op, Status: tab.status}
		if err := db.Record(e); err != nil {
			t.Fatalf("Record: %s", err.Error())
		}
	}

	events, err := db.History("/bags/one", 0)
	if err != nil {
		t.Fatalf("History: %s", err.Error())
	}
	if len(events) != 4 {
		t.Fatalf("Received %d events, expected 4", len(events))
	}
	if events[0].Operation != OpRebag || events[3].Operation != OpBag {
		t.Errorf("Received events out of order: %v", events)
	}
	if !events[0].When.Equal(start.Add(3 * time.Hour)) {
		t.Errorf("Received time %v", events[0].When)
	}

	events, err = db.History("/bags/one", 2)
	if err != nil {
		t.Fatalf("History: %s", err.Error())
	}
	if len(events) != 2 || events[1].Status != StatusInvalid {
		t.Errorf("Received %v", events)
	}

	last, err := db.Last("/bags/two")
	if err != nil || last == nil || last.Operation != OpBag {
		t.Errorf("Received %v, %v", last, err)
	}
	last, err = db.Last("/bags/none")
	if err != nil || last != nil {
		t.Errorf("Received %v, %v, expected nothing", last, err)
	}
}

func TestQlCounts(t *testing.T) {
	db, err := Open("memory")
	if err != nil {
		t.Fatalf("Received %s", err.Error())
	}
	defer db.Close()
	e := &Event{Bag: "b", When: time.Now(), Operation: OpValidate, Status: StatusInvalid,
		OK: 10, Mismatch: 1, Missing: 2, Unexpected: 3, Notes: "data/a is missing"}
	if err := db.Record(e); err != nil {
		t.Fatal(err)
	}
	last, err := db.Last("b")
	if err != nil {
		t.Fatal(err)
	}
	if last.OK != 10 || last.Mismatch != 1 || last.Missing != 2 || last.Unexpected != 3 || last.Notes != e.Notes {
		t.Errorf("Received %+v, expected %+v", last, e)
	}
}

func TestOpenEmpty(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Errorf("Received nil, expected error")
	}
}
