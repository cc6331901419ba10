package bagit

import (
	"iter"
	"strings"
)

// Tag is a single label and value pair from a tag file. Tags are immutable;
// use NewTag to create one.
type Tag struct {
	label string
	value string
}

// NewTag creates a tag after checking that the label has no leading or
// trailing whitespace, and that neither part contains a CR or LF.
func NewTag(label, value string) (Tag, error) {
	if err := validateLabel(label); err != nil {
		return Tag{}, err
	}
	if strings.ContainsAny(value, "\r\n") {
		// CR/LF only appear in a value once it is serialized
		return Tag{}, &InvalidTagError{Label: label, Reason: "value must not contain CR or LF characters"}
	}
	return Tag{label: label, value: value}, nil
}

func validateLabel(label string) error {
	switch {
	case label == "":
		return nil
	case isSpaceOrTab(label[0]) || isSpaceOrTab(label[len(label)-1]):
		return &InvalidTagError{Label: label, Reason: "label must not start or end with whitespace"}
	case strings.ContainsAny(label, "\r\n"):
		return &InvalidTagError{Label: label, Reason: "label must not contain CR or LF characters"}
	}
	return nil
}

func isSpaceOrTab(c byte) bool {
	return c == ' ' || c == '\t'
}

// Label returns the tag's label, as it was written.
func (t Tag) Label() string { return t.label }

// Value returns the tag's value.
func (t Tag) Value() string { return t.value }

// Is reports whether the tag has the given label. Labels are case insensitive.
func (t Tag) Is(label string) bool {
	return strings.EqualFold(t.label, label)
}

func (t Tag) String() string {
	return t.label + ": " + t.value
}

// TagList is an ordered list of tags. A label may appear more than once.
// The zero value is an empty list ready to use.
type TagList struct {
	tags []Tag
}

// NewTagList returns a list holding the given tags, in order.
func NewTagList(tags ...Tag) *TagList {
	return &TagList{tags: append([]Tag(nil), tags...)}
}

// Len returns the number of tags in the list.
func (tl *TagList) Len() int {
	return len(tl.tags)
}

// Tags returns a copy of the tags in the list.
func (tl *TagList) Tags() []Tag {
	return append([]Tag(nil), tl.tags...)
}

// Add appends tag to the end of the list.
func (tl *TagList) Add(tag Tag) {
	tl.tags = append(tl.tags, tag)
}

// AddTag validates and appends a new tag.
func (tl *TagList) AddTag(label, value string) error {
	tag, err := NewTag(label, value)
	if err != nil {
		return err
	}
	tl.Add(tag)
	return nil
}

// Get returns the first tag with the given label. Labels are case insensitive.
func (tl *TagList) Get(label string) (Tag, bool) {
	for _, tag := range tl.tags {
		if tag.Is(label) {
			return tag, true
		}
	}
	return Tag{}, false
}

// All yields every tag with the given label, in list order. The sequence
// reads the live list, so it must be consumed before the list is changed.
func (tl *TagList) All(label string) iter.Seq[Tag] {
	return func(yield func(Tag) bool) {
		for _, tag := range tl.tags {
			if tag.Is(label) && !yield(tag) {
				return
			}
		}
	}
}

// Remove deletes every tag with the given label and returns how many were
// removed. Labels are case insensitive.
func (tl *TagList) Remove(label string) int {
	kept := tl.tags[:0]
	for _, tag := range tl.tags {
		if !tag.Is(label) {
			kept = append(kept, tag)
		}
	}
	n := len(tl.tags) - len(kept)
	// clear the tail so removed tags are not kept alive
	clear(tl.tags[len(kept):])
	tl.tags = kept
	return n
}

// Equal reports whether both lists hold the same tags in the same order.
// Labels are compared exactly here, not case-insensitively.
func (tl *TagList) Equal(other *TagList) bool {
	if tl.Len() != other.Len() {
		return false
	}
	for i := range tl.tags {
		if tl.tags[i] != other.tags[i] {
			return false
		}
	}
	return true
}
