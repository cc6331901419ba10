package bagit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Version is a BagIt version number, e.g. "1.0".
type Version struct {
	Major int
	Minor int
}

// ParseVersion parses a version of the form "<major>.<minor>".
func ParseVersion(s string) (Version, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return Version{}, errors.Errorf("version %q is not of the form <major>.<minor>", s)
	}
	var v Version
	var err error
	if v.Major, err = parseVersionPart(major); err != nil {
		return Version{}, errors.Wrapf(err, "version %q", s)
	}
	if v.Minor, err = parseVersionPart(minor); err != nil {
		return Version{}, errors.Wrapf(err, "version %q", s)
	}
	return v, nil
}

func parseVersionPart(s string) (int, error) {
	// strconv accepts a leading sign, which a version number may not have
	if s == "" || s[0] < '0' || s[0] > '9' {
		return 0, errors.Errorf("invalid number %q", s)
	}
	return strconv.Atoi(s)
}

// Compare returns -1, 0, or +1 depending on whether v is less than, equal
// to, or greater than w.
func (v Version) Compare(w Version) int {
	switch {
	case v.Major < w.Major:
		return -1
	case v.Major > w.Major:
		return 1
	case v.Minor < w.Minor:
		return -1
	case v.Minor > w.Minor:
		return 1
	}
	return 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
