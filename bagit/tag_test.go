package bagit

import (
	"errors"
	"testing"
)

func TestNewTag(t *testing.T) {
	var table = []struct {
		label, value string
		invalid      bool
	}{
		{"Bagging-Date", "2024-01-01", false},
		{"Contact-Name", "", false},
		{"", "empty label", false},
		{"Odd Label", "inner space is fine", false},
		{" Leading", "x", true},
		{"Trailing ", "x", true},
		{"\tTab", "x", true},
		{"Line\nBreak", "x", true},
		{"Carriage\rReturn", "x", true},
		{"Label", "value\nwith newline", true},
		{"Label", "value\r", true},
	}
	for _, test := range table {
		_, err := NewTag(test.label, test.value)
		var ite *InvalidTagError
		if errors.As(err, &ite) != test.invalid {
			t.Errorf("NewTag(%q, %q) = %v, expected invalid %v", test.label, test.value, err, test.invalid)
		}
	}
}

func TestTagListLookup(t *testing.T) {
	tl := new(TagList)
	tl.AddTag("Contact-Name", "first")
	tl.AddTag("External-Identifier", "abc")
	tl.AddTag("contact-name", "second")

	tag, ok := tl.Get("CONTACT-NAME")
	if !ok || tag.Value() != "first" {
		t.Errorf("Get returned %v, %v, expected first", tag, ok)
	}
	var values []string
	for tag := range tl.All("Contact-Name") {
		values = append(values, tag.Value())
	}
	if len(values) != 2 || values[0] != "first" || values[1] != "second" {
		t.Errorf("All returned %v", values)
	}
	if n := tl.Remove("contact-NAME"); n != 2 {
		t.Errorf("Remove returned %d, expected 2", n)
	}
	if tl.Len() != 1 {
		t.Errorf("Len is %d, expected 1", tl.Len())
	}
	if _, ok := tl.Get("Contact-Name"); ok {
		t.Errorf("Contact-Name still present after Remove")
	}
}

func TestTagListAllStopsEarly(t *testing.T) {
	tl := new(TagList)
	for _, v := range []string{"a", "b", "c"} {
		tl.AddTag("X", v)
	}
	var n int
	for range tl.All("x") {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterated %d times, expected 1", n)
	}
}

func TestTagListEqual(t *testing.T) {
	a := mustTag(t, "A", "1")
	b := mustTag(t, "B", "2")
	var table = []struct {
		x, y  *TagList
		equal bool
	}{
		{NewTagList(), NewTagList(), true},
		{NewTagList(a, b), NewTagList(a, b), true},
		{NewTagList(a, b), NewTagList(b, a), false},
		{NewTagList(a), NewTagList(a, b), false},
		{NewTagList(a), NewTagList(mustTag(t, "a", "1")), false},
	}
	for i, tab := range table {
		if got := tab.x.Equal(tab.y); got != tab.equal {
			t.Errorf("%d: Received %v, expected %v", i, got, tab.equal)
		}
	}
}

func mustTag(t *testing.T, label, value string) Tag {
	t.Helper()
	tag, err := NewTag(label, value)
	if err != nil {
		t.Fatal(err)
	}
	return tag
}

func TestTagString(t *testing.T) {
	tag, err := NewTag("Bagging-Date", "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if tag.String() != "Bagging-Date: 2024-01-01" {
		t.Errorf("Received %q", tag.String())
	}
}
