package bagit

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// Status classifies one file in a validation report.
type Status int

const (
	// StatusOK means every digest listed for the file matches.
	StatusOK Status = iota
	// StatusMismatch means the file is present but a digest differs.
	StatusMismatch
	// StatusMissing means the file is listed in a manifest but not on disk.
	StatusMissing
	// StatusUnexpected means a payload file is in no payload manifest.
	StatusUnexpected
)

var statusNames = [...]string{"ok", "mismatch", "missing", "unexpected"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// MarshalText lets a Status appear by name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Check is the comparison of one file against one manifest. Actual is empty
// if the file could not be digested.
type Check struct {
	Algorithm Algorithm `json:"algorithm"`
	Expected  string    `json:"expected"`
	Actual    string    `json:"actual,omitempty"`
}

// OK reports whether the digests agree.
func (c Check) OK() bool {
	return c.Actual != "" && c.Actual == c.Expected
}

// Result is the outcome for one file. Checks are ordered by algorithm name.
type Result struct {
	Path   string  `json:"path"`
	Status Status  `json:"status"`
	Checks []Check `json:"checks,omitempty"`
}

// Mismatch returns the first check, in algorithm order, whose digests
// differ.
func (r Result) Mismatch() (Check, bool) {
	for _, c := range r.Checks {
		if r.Status == StatusMismatch && !c.OK() {
			return c, true
		}
	}
	return Check{}, false
}

// Incomplete names a payload file missing from some payload manifests.
type Incomplete struct {
	Path    string      `json:"path"`
	Missing []Algorithm `json:"missing"`
}

// OxumCheck compares the Payload-Oxum tag with the payload on disk.
type OxumCheck struct {
	Declared PayloadOxum `json:"declared"`
	Actual   PayloadOxum `json:"actual"`
}

// OK reports whether the tag matches the payload.
func (o OxumCheck) OK() bool { return o.Declared == o.Actual }

// Report is the complete outcome of verifying a bag. Validation never stops
// at the first bad file, so a Report lists every problem found.
type Report struct {
	Dir        string       `json:"dir"`
	Algorithms []Algorithm  `json:"algorithms"`
	Payload    []Result     `json:"payload"`
	Tags       []Result     `json:"tags,omitempty"`
	Incomplete []Incomplete `json:"incomplete,omitempty"`
	Oxum       *OxumCheck   `json:"oxum,omitempty"`
}

// Count returns how many payload files have the given status.
func (r *Report) Count(s Status) int {
	var n int
	for _, res := range r.Payload {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Valid is true if no problems were found.
func (r *Report) Valid() bool {
	return len(r.Problems()) == 0
}

// Problems returns an error for every problem in the report: payload files
// first, then manifest gaps, the oxum, and tag files.
func (r *Report) Problems() []error {
	var errs []error
	for _, res := range r.Payload {
		if err := res.problem(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, inc := range r.Incomplete {
		errs = append(errs, &IncompleteManifestError{Path: inc.Path, Missing: inc.Missing})
	}
	if r.Oxum != nil && !r.Oxum.OK() {
		errs = append(errs, &OxumMismatchError{Expected: r.Oxum.Declared, Actual: r.Oxum.Actual})
	}
	for _, res := range r.Tags {
		if err := res.problem(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (r Result) problem() error {
	switch r.Status {
	case StatusMismatch:
		c, _ := r.Mismatch()
		return &DigestMismatchError{Path: r.Path, Algorithm: c.Algorithm, Expected: c.Expected, Actual: c.Actual}
	case StatusMissing:
		return &MissingPayloadFileError{Path: r.Path}
	case StatusUnexpected:
		return &UnexpectedPayloadFileError{Path: r.Path}
	}
	return nil
}

// Verify checks a single payload manifest against the payload of the bag
// in dir. See VerifyPayload.
func Verify(ctx context.Context, dir string, m *Manifest, opts *Options) (*Report, error) {
	return VerifyPayload(ctx, dir, []*Manifest{m}, opts)
}

// VerifyPayload recomputes the digest of every file listed in the
// manifests, and walks the payload to find files no manifest lists. The
// manifests are not changed. A returned error means the check itself could
// not be done; problems with the bag are only recorded in the report.
func VerifyPayload(ctx context.Context, dir string, manifests []*Manifest, opts *Options) (*Report, error) {
	files, err := walkPayload(dir)
	if err != nil {
		return nil, err
	}
	results, err := checkFiles(ctx, dir, manifests, opts)
	if err != nil {
		return nil, err
	}
	r := &Report{Dir: dir}
	for _, m := range sortManifests(manifests) {
		r.Algorithms = append(r.Algorithms, m.Algorithm)
	}
	listed := make(map[string]bool, len(results))
	for _, res := range results {
		listed[res.Path] = true
	}
	for _, f := range files {
		if !listed[f.Path] {
			results = append(results, Result{Path: f.Path, Status: StatusUnexpected})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	r.Payload = results
	r.Incomplete = incomplete(manifests)
	log.Info("verified payload", "dir", dir, "files", len(results),
		"mismatch", r.Count(StatusMismatch), "missing", r.Count(StatusMissing),
		"unexpected", r.Count(StatusUnexpected))
	return r, nil
}

// checkFiles digests every file listed in any of the manifests and compares
// the digests. The results are sorted by path.
func checkFiles(ctx context.Context, dir string, manifests []*Manifest, opts *Options) ([]Result, error) {
	manifests = sortManifests(manifests)
	byPath := make(map[string][]*Manifest)
	for _, m := range manifests {
		for _, p := range m.Paths() {
			byPath[p] = append(byPath[p], m)
		}
	}
	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	results := make([]Result, len(paths))
	var tasks []digestTask
	var taskIndex []int
	for i, p := range paths {
		results[i] = Result{Path: p}
		var algs []Algorithm
		for _, m := range byPath[p] {
			d, _ := m.Digest(p)
			results[i].Checks = append(results[i].Checks, Check{Algorithm: m.Algorithm, Expected: d})
			algs = append(algs, m.Algorithm)
		}
		abs := filepath.Join(dir, filepath.FromSlash(p))
		info, err := os.Lstat(abs)
		switch {
		case errors.Is(err, fs.ErrNotExist), err == nil && !info.Mode().IsRegular():
			results[i].Status = StatusMissing
			continue
		case err != nil:
			return nil, ioError(abs, err)
		}
		tasks = append(tasks, digestTask{abs: abs, algs: algs})
		taskIndex = append(taskIndex, i)
	}

	digests, err := digestAll(ctx, tasks, opts)
	if err != nil {
		return nil, err
	}
	for t, i := range taskIndex {
		res := &results[i]
		for c := range res.Checks {
			res.Checks[c].Actual = digests[t].digests[res.Checks[c].Algorithm]
			if !res.Checks[c].OK() {
				res.Status = StatusMismatch
			}
		}
	}
	return results, nil
}

// incomplete lists the paths which are in some but not all manifests.
func incomplete(manifests []*Manifest) []Incomplete {
	manifests = sortManifests(manifests)
	seen := make(map[string]bool)
	var result []Incomplete
	for _, m := range manifests {
		for _, p := range m.Paths() {
			if seen[p] {
				continue
			}
			seen[p] = true
			var missing []Algorithm
			for _, other := range manifests {
				if _, ok := other.Digest(p); !ok {
					missing = append(missing, other.Algorithm)
				}
			}
			if len(missing) > 0 {
				result = append(result, Incomplete{Path: p, Missing: missing})
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result
}

func sortManifests(manifests []*Manifest) []*Manifest {
	result := append([]*Manifest(nil), manifests...)
	sort.Slice(result, func(i, j int) bool { return result[i].Algorithm < result[j].Algorithm })
	return result
}

// Validate opens the bag in dir and checks everything that can be checked:
// the bag declaration and bag-info are well formed, every payload manifest
// matches the payload, the Payload-Oxum (if present) matches the payload,
// and every tag file listed in a tag manifest matches. Structural errors,
// such as a malformed tag file, are returned as errors. Problems with file
// content are collected into the report.
func Validate(ctx context.Context, dir string, opts *Options) (*Report, error) {
	bag, err := OpenBag(dir)
	if err != nil {
		return nil, err
	}
	r, err := VerifyPayload(ctx, dir, bag.PayloadManifests(), opts)
	if err != nil {
		return nil, err
	}
	if tag, ok := bag.Info.PayloadOxum(); ok {
		declared, err := ParsePayloadOxum(tag.Value())
		if err != nil {
			return nil, &InvalidTagError{Label: tag.Label(), Reason: err.Error()}
		}
		var actual PayloadOxum
		files, err := walkPayload(dir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			actual.Octets += f.Size
			actual.Files++
		}
		r.Oxum = &OxumCheck{Declared: declared, Actual: actual}
	}
	if len(bag.TagManifests) > 0 {
		r.Tags, err = checkFiles(ctx, dir, bag.TagManifestList(), opts)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}
