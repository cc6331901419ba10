package bagit

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNoPayload means the bag's base directory has no "data" directory.
	ErrNoPayload = errors.New("bag has no payload directory")

	// ErrBagExists means CreateBag was asked to bag a directory which
	// already holds a bag declaration.
	ErrBagExists = errors.New("bag declaration already exists")

	// ErrNoManifest means a bag has no payload manifest in a supported
	// algorithm.
	ErrNoManifest = errors.New("bag has no payload manifest")
)

// MissingTagError means a mandatory tag was not found in a tag file.
type MissingTagError struct {
	Label string
}

func (e *MissingTagError) Error() string {
	return fmt.Sprintf("missing required tag %s", e.Label)
}

// UnsupportedVersionError means a bag declares a BagIt version other than 1.0.
type UnsupportedVersionError struct {
	Value string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported BagIt version %q", e.Value)
}

// UnsupportedEncodingError means a bag declares a tag file encoding other
// than UTF-8.
type UnsupportedEncodingError struct {
	Value string
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("unsupported tag file encoding %q", e.Value)
}

// InvalidTagError means a tag label or value breaks the tag invariants.
type InvalidTagError struct {
	Label  string
	Reason string
}

func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("invalid tag %q: %s", e.Label, e.Reason)
}

// MalformedLineError reports the first line of a tag file which could not
// be parsed. Err holds the underlying *InvalidTagError when the line had the
// right shape but an invalid label or value.
type MalformedLineError struct {
	Path   string
	Line   int
	Reason string
	Err    error
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("%s line %d: %s", e.Path, e.Line, e.Reason)
}

func (e *MalformedLineError) Unwrap() error { return e.Err }

// MalformedManifestLineError reports a manifest line which is not a digest
// and a path separated by whitespace.
type MalformedManifestLineError struct {
	Path   string
	Line   int
	Reason string
}

func (e *MalformedManifestLineError) Error() string {
	return fmt.Sprintf("%s line %d: %s", e.Path, e.Line, e.Reason)
}

// DuplicatePathError means a manifest lists the same file twice.
type DuplicatePathError struct {
	Manifest string
	Path     string
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("%s lists %s more than once", e.Manifest, e.Path)
}

// DuplicateManifestError means a bag holds two manifest files for one
// algorithm, with names differing only in case.
type DuplicateManifestError struct {
	Algorithm Algorithm
	Names     []string
}

func (e *DuplicateManifestError) Error() string {
	return fmt.Sprintf("more than one manifest for %s: %s", e.Algorithm, strings.Join(e.Names, ", "))
}

// DigestMismatchError means a file's content does not match its manifest.
type DigestMismatchError struct {
	Path      string
	Algorithm Algorithm
	Expected  string
	Actual    string
}

func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("%s: %s digest is %s, expected %s", e.Path, e.Algorithm, e.Actual, e.Expected)
}

// MissingPayloadFileError means a file listed in a manifest is not on disk.
type MissingPayloadFileError struct {
	Path string
}

func (e *MissingPayloadFileError) Error() string {
	return fmt.Sprintf("%s is listed in a manifest but missing", e.Path)
}

// UnexpectedPayloadFileError means a payload file is in no payload manifest.
type UnexpectedPayloadFileError struct {
	Path string
}

func (e *UnexpectedPayloadFileError) Error() string {
	return fmt.Sprintf("%s is not listed in any payload manifest", e.Path)
}

// IncompleteManifestError means a payload file is listed in some payload
// manifests but not in others.
type IncompleteManifestError struct {
	Path    string
	Missing []Algorithm
}

func (e *IncompleteManifestError) Error() string {
	return fmt.Sprintf("%s is not listed in the %v payload manifests", e.Path, e.Missing)
}

// OxumMismatchError means the Payload-Oxum tag disagrees with the payload.
type OxumMismatchError struct {
	Expected PayloadOxum
	Actual   PayloadOxum
}

func (e *OxumMismatchError) Error() string {
	return fmt.Sprintf("Payload-Oxum is %s, payload has %s", e.Expected, e.Actual)
}

// UnsupportedAlgorithmError means a digest algorithm name is not known.
type UnsupportedAlgorithmError struct {
	Name string
}

func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("unsupported digest algorithm %q", e.Name)
}

// IOError wraps a file system error with the path it happened on.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func ioError(path string, err error) error {
	if err == nil {
		return nil
	}
	var ioe *IOError
	if errors.As(err, &ioe) {
		return err
	}
	return &IOError{Path: path, Err: errors.WithStack(err)}
}
