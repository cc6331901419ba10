// Package report formats the results of bag operations for people and for
// other programs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gowebpki/jcs"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/ndlib/bagr/bagit"
	"github.com/ndlib/bagr/fixity"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 5, 1, 3, ' ', 0)
}

// WriteText writes a validation report as a table. Only files with a problem
// are listed unless all is true. The last line is VALID or INVALID.
func WriteText(w io.Writer, r *bagit.Report, all bool) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Status\tPath\tDetail\n")
	for _, res := range r.Payload {
		if res.Status == bagit.StatusOK && !all {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", res.Status, res.Path, detail(res))
	}
	for _, inc := range r.Incomplete {
		fmt.Fprintf(tw, "incomplete\t%s\tnot in %s\n", inc.Path, joinAlgorithms(inc.Missing))
	}
	for _, res := range r.Tags {
		if res.Status == bagit.StatusOK && !all {
			continue
		}
		fmt.Fprintf(tw, "tag %s\t%s\t%s\n", res.Status, res.Path, detail(res))
	}
	if r.Oxum != nil && (all || !r.Oxum.OK()) {
		fmt.Fprintf(tw, "oxum\t%s\tpayload has %s\n", r.Oxum.Declared, r.Oxum.Actual)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	verdict := "VALID"
	if !r.Valid() {
		verdict = "INVALID"
	}
	_, err := fmt.Fprintf(w, "%d ok, %d mismatch, %d missing, %d unexpected\n%s\n",
		r.Count(bagit.StatusOK), r.Count(bagit.StatusMismatch),
		r.Count(bagit.StatusMissing), r.Count(bagit.StatusUnexpected), verdict)
	return err
}

func detail(res bagit.Result) string {
	if c, ok := res.Mismatch(); ok {
		return fmt.Sprintf("%s expected %s got %s", c.Algorithm, c.Expected, c.Actual)
	}
	return ""
}

func joinAlgorithms(algs []bagit.Algorithm) string {
	var names []string
	for _, a := range algs {
		names = append(names, string(a))
	}
	return strings.Join(names, ", ")
}

// jsonReport adds the verdict to a report.
type jsonReport struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems"`
	*bagit.Report
}

// WriteJSON writes a validation report as canonical JSON (RFC 8785), so the
// same report always gives the same bytes.
func WriteJSON(w io.Writer, r *bagit.Report) error {
	jr := jsonReport{Valid: r.Valid(), Problems: []string{}, Report: r}
	for _, p := range r.Problems() {
		jr.Problems = append(jr.Problems, p.Error())
	}
	raw, err := json.Marshal(jr)
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return errors.Wrap(err, "canonicalize report")
	}
	_, err = w.Write(append(canonical, '\n'))
	return err
}

// ManifestDiff returns a unified diff between two versions of a manifest.
// A nil manifest is treated as a file which does not exist. Equal
// manifests give the empty string.
func ManifestDiff(old, updated *bagit.Manifest) string {
	if old == nil && updated == nil || old != nil && updated != nil && old.Equal(updated) {
		return ""
	}
	fromFile, toFile := "/dev/null", "/dev/null"
	var a, b []string
	if old != nil {
		fromFile = "a/" + old.Name()
		a = manifestLines(old)
	}
	if updated != nil {
		toFile = "b/" + updated.Name()
		b = manifestLines(updated)
	}
	u := difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  3,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return ""
	}
	return s
}

func manifestLines(m *bagit.Manifest) []string {
	lines := bagit.FormatManifest(m)
	for i := range lines {
		lines[i] += "\n"
	}
	return lines
}

// WriteRebag describes what a rebag changed, with a diff of each payload
// manifest that was rewritten.
func WriteRebag(w io.Writer, r *bagit.RebagResult) error {
	if !r.Changed {
		_, err := fmt.Fprintln(w, "bag is up to date")
		return err
	}
	tw := newTabWriter(w)
	for _, a := range sortedAlgorithms(r.Changes) {
		c := r.Changes[a]
		fmt.Fprintf(tw, "%s:\t%d added\t%d removed\t%d modified\n", a, len(c.Added), len(c.Removed), len(c.Modified))
	}
	if len(r.AddedAlgorithms) > 0 {
		fmt.Fprintf(tw, "Added algorithms:\t%s\n", joinAlgorithms(r.AddedAlgorithms))
	}
	if len(r.RemovedAlgorithms) > 0 {
		fmt.Fprintf(tw, "Removed algorithms:\t%s\n", joinAlgorithms(r.RemovedAlgorithms))
	}
	fmt.Fprintf(tw, "Payload-Oxum:\t%s\n", r.Oxum)
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, a := range sortedAlgorithms(r.Changes) {
		if d := ManifestDiff(r.Previous[a], r.Current[a]); d != "" {
			if _, err := io.WriteString(w, d); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedAlgorithms(m map[bagit.Algorithm]bagit.ManifestChanges) []bagit.Algorithm {
	var algs []bagit.Algorithm
	for a := range m {
		algs = append(algs, a)
	}
	sort.Slice(algs, func(i, j int) bool { return algs[i] < algs[j] })
	return algs
}

// WriteInfo lists the tags and manifests of a bag. If last is not nil it
// is shown as the most recent recorded operation.
func WriteInfo(w io.Writer, bag *bagit.Bag, last *fixity.Event) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Bag:\t%s\n", bag.Dir)
	fmt.Fprintf(tw, "Version:\t%s\n", bag.Declaration.Version())
	fmt.Fprintf(tw, "Encoding:\t%s\n", bag.Declaration.Encoding())
	for _, a := range bag.Algorithms() {
		fmt.Fprintf(tw, "Manifest:\t%s\t%d files\n", bag.Manifests[a].Name(), bag.Manifests[a].Len())
	}
	if bag.HasFetch {
		fmt.Fprintf(tw, "Fetch:\t%s\n", bagit.FetchTxt)
	}
	if last != nil {
		fmt.Fprintf(tw, "Last:\t%s\t%s\t%s\n", last.Operation, last.Status, last.When.Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, "---")
	return bagit.WriteTags(w, bag.Info.TagList())
}

// WriteHistory lists fixity events, one per line.
func WriteHistory(w io.Writer, events []fixity.Event) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "When\tOperation\tStatus\tOK\tMismatch\tMissing\tUnexpected\n")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			e.When.Format(time.RFC3339), e.Operation, e.Status,
			e.OK, e.Mismatch, e.Missing, e.Unexpected)
	}
	return tw.Flush()
}
