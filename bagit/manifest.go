package bagit

import (
	"bufio"
	"encoding/hex"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// Manifest maps bag relative file paths to their digests for a single
// algorithm. Payload manifests list files under "data/"; tag manifests list
// the tag files.
type Manifest struct {
	Algorithm Algorithm
	name      string
	entries   map[string]string
}

// ManifestEntry is one line of a manifest.
type ManifestEntry struct {
	Path   string
	Digest string
}

// NewManifest returns an empty manifest. name is the manifest's file name,
// and is only used in error messages.
func NewManifest(name string, a Algorithm) *Manifest {
	return &Manifest{
		Algorithm: a,
		name:      name,
		entries:   make(map[string]string),
	}
}

// ManifestName returns the file name of the payload manifest for a.
func ManifestName(a Algorithm) string {
	return PayloadManifestPrefix + "-" + string(a) + ".txt"
}

// TagManifestName returns the file name of the tag manifest for a.
func TagManifestName(a Algorithm) string {
	return TagManifestPrefix + "-" + string(a) + ".txt"
}

// Name returns the manifest's file name.
func (m *Manifest) Name() string { return m.name }

// Len returns the number of entries.
func (m *Manifest) Len() int { return len(m.entries) }

// Add records the digest for a path. It is an error to add the same path
// twice.
func (m *Manifest) Add(p, digest string) error {
	if _, ok := m.entries[p]; ok {
		return &DuplicatePathError{Manifest: m.name, Path: p}
	}
	m.entries[p] = strings.ToLower(digest)
	return nil
}

// Digest returns the digest recorded for path p.
func (m *Manifest) Digest(p string) (string, bool) {
	d, ok := m.entries[p]
	return d, ok
}

// Paths returns every path in the manifest, sorted.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.entries))
	for p := range m.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Entries returns the manifest entries sorted by path.
func (m *Manifest) Entries() []ManifestEntry {
	var result []ManifestEntry
	for _, p := range m.Paths() {
		result = append(result, ManifestEntry{Path: p, Digest: m.entries[p]})
	}
	return result
}

// Equal reports whether both manifests use the same algorithm and list the
// same paths with the same digests.
func (m *Manifest) Equal(other *Manifest) bool {
	if m.Algorithm != other.Algorithm || len(m.entries) != len(other.entries) {
		return false
	}
	for p, d := range m.entries {
		if other.entries[p] != d {
			return false
		}
	}
	return true
}

// ManifestChanges lists how one manifest differs from another.
type ManifestChanges struct {
	Added    []string
	Removed  []string
	Modified []string
}

// Empty is true if there were no changes.
func (c ManifestChanges) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// DiffManifests compares an old manifest with an updated one. Either may be nil,
// which is treated as an empty manifest. The lists are sorted.
func DiffManifests(old, updated *Manifest) ManifestChanges {
	var c ManifestChanges
	if old == nil {
		old = &Manifest{}
	}
	if updated == nil {
		updated = &Manifest{}
	}
	for _, p := range updated.Paths() {
		d, ok := old.entries[p]
		switch {
		case !ok:
			c.Added = append(c.Added, p)
		case d != updated.entries[p]:
			c.Modified = append(c.Modified, p)
		}
	}
	for _, p := range old.Paths() {
		if _, ok := updated.entries[p]; !ok {
			c.Removed = append(c.Removed, p)
		}
	}
	return c
}

var (
	pathEncoder = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	pathDecoder = strings.NewReplacer("%25", "%", "%0D", "\r", "%0d", "\r", "%0A", "\n", "%0a", "\n")
)

// FormatManifest serializes m, one "<digest>  <path>" line per entry sorted
// by path, without line terminators. Line breaks and percent signs in paths
// are percent-encoded.
func FormatManifest(m *Manifest) []string {
	var lines []string
	for _, e := range m.Entries() {
		// The 2 spaces is to be identical to the GNU md5sum output.
		lines = append(lines, e.Digest+"  "+pathEncoder.Replace(e.Path))
	}
	return lines
}

// WriteManifest writes m to w, each line ending in LF.
func WriteManifest(w io.Writer, m *Manifest) error {
	bw := bufio.NewWriter(w)
	for _, line := range FormatManifest(m) {
		bw.WriteString(line)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteManifestFile creates or truncates the file at p and writes m to it.
func WriteManifestFile(p string, m *Manifest) error {
	log.Info("writing manifest", "path", p, "entries", m.Len())
	f, err := os.Create(p)
	if err != nil {
		return ioError(p, err)
	}
	err = WriteManifest(f, m)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return ioError(p, err)
}

// ReadManifestFile parses the manifest at p.
func ReadManifestFile(p string, a Algorithm) (*Manifest, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, ioError(p, err)
	}
	defer f.Close()
	return ReadManifest(f, filepath.Base(p), a)
}

// ReadManifest parses a manifest from r. name is used in error messages.
// Each line must be a hex digest, one or more spaces or tabs, and a bag
// relative path. If name is that of a payload manifest, every path must be
// inside the data directory.
func ReadManifest(r io.Reader, name string, a Algorithm) (*Manifest, error) {
	m := NewManifest(name, a)
	payload := strings.HasPrefix(name, PayloadManifestPrefix+"-")
	var lineno int
	err := scanLines(r, func(line string) error {
		lineno++
		p, digest, reason := parseManifestLine(line)
		if reason == "" && payload && !strings.HasPrefix(p, DataDir+"/") {
			reason = "payload path " + p + " is not inside " + DataDir + "/"
		}
		if reason != "" {
			return &MalformedManifestLineError{Path: name, Line: lineno, Reason: reason}
		}
		return m.Add(p, digest)
	})
	if err != nil {
		var mmle *MalformedManifestLineError
		var dpe *DuplicatePathError
		if errors.As(err, &mmle) || errors.As(err, &dpe) {
			return nil, err
		}
		return nil, ioError(name, err)
	}
	return m, nil
}

// parseManifestLine splits a manifest line. A non-empty reason means the
// line is malformed.
func parseManifestLine(line string) (p, digest, reason string) {
	i := strings.IndexAny(line, " \t")
	if i <= 0 {
		return "", "", "line must be a digest and a path separated by whitespace"
	}
	digest = line[:i]
	p = strings.TrimLeft(line[i:], " \t")
	if p == "" {
		return "", "", "line has a digest but no path"
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return "", "", "digest is not hexadecimal"
	}
	p = pathDecoder.Replace(p)
	if !validBagPath(p) {
		return "", "", "path " + p + " is not inside the bag"
	}
	return p, digest, ""
}

// validBagPath reports whether p is a clean relative path staying inside the
// bag's base directory.
func validBagPath(p string) bool {
	if path.IsAbs(p) || strings.HasPrefix(p, `\`) || filepath.VolumeName(p) != "" {
		return false
	}
	return path.Clean(p) == p && p != "." && p != ".." && !strings.HasPrefix(p, "../")
}

// manifestFiles finds the manifest files with the given prefix in dir and
// returns the file name for each algorithm. The algorithm part of a name is
// case insensitive, so two files naming the same algorithm are an error.
// Files naming an algorithm this package does not support are logged and
// skipped.
func manifestFiles(dir, prefix string) (map[Algorithm]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioError(dir, err)
	}
	files := make(map[Algorithm]string)
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ".txt") {
			continue
		}
		algname := strings.TrimSuffix(strings.TrimPrefix(name, prefix+"-"), ".txt")
		a, err := ParseAlgorithm(algname)
		if err != nil {
			log.Warn("skipping manifest with unsupported algorithm", "file", name)
			continue
		}
		if other, ok := files[a]; ok {
			return nil, &DuplicateManifestError{Algorithm: a, Names: []string{other, name}}
		}
		files[a] = name
	}
	return files, nil
}
