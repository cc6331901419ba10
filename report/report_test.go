package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ndlib/bagr/bagit"
	"github.com/ndlib/bagr/fixity"
)

func testReport() *bagit.Report {
	return &bagit.Report{
		Dir:        "/bags/x",
		Algorithms: []bagit.Algorithm{bagit.MD5},
		Payload: []bagit.Result{
			{Path: "data/a", Status: bagit.StatusOK, Checks: []bagit.Check{{Algorithm: bagit.MD5, Expected: "aa", Actual: "aa"}}},
			{Path: "data/b", Status: bagit.StatusMismatch, Checks: []bagit.Check{{Algorithm: bagit.MD5, Expected: "bb", Actual: "cc"}}},
			{Path: "data/c", Status: bagit.StatusMissing, Checks: []bagit.Check{{Algorithm: bagit.MD5, Expected: "dd"}}},
		},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, testReport(), false); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	var table = []struct {
		text string
		want bool
	}{
		{"data/a", false},
		{"data/b", true},
		{"md5 expected bb got cc", true},
		{"data/c", true},
		{"1 ok, 1 mismatch, 1 missing, 0 unexpected", true},
		{"INVALID", true},
	}
	for _, test := range table {
		if strings.Contains(out, test.text) != test.want {
			t.Errorf("output contains %q is not %v:\n%s", test.text, test.want, out)
		}
	}

	buf.Reset()
	WriteText(&buf, testReport(), true)
	if !strings.Contains(buf.String(), "data/a") {
		t.Errorf("ok files not listed:\n%s", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var b1, b2 bytes.Buffer
	if err := WriteJSON(&b1, testReport()); err != nil {
		t.Fatal(err)
	}
	WriteJSON(&b2, testReport())
	if b1.String() != b2.String() {
		t.Errorf("output is not stable")
	}
	var decoded struct {
		Valid    bool
		Problems []string
		Payload  []struct {
			Path   string
			Status string
		}
	}
	if err := json.Unmarshal(b1.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Valid || len(decoded.Problems) != 2 || len(decoded.Payload) != 3 || decoded.Payload[1].Status != "mismatch" {
		t.Errorf("Received %+v", decoded)
	}
	// keys are sorted in canonical form
	if !strings.HasPrefix(b1.String(), `{"algorithms":`) {
		t.Errorf("Received %s", b1.String())
	}
}

func TestManifestDiff(t *testing.T) {
	old := bagit.NewManifest("manifest-md5.txt", bagit.MD5)
	old.Add("data/a", "aa")
	old.Add("data/b", "bb")
	updated := bagit.NewManifest("manifest-md5.txt", bagit.MD5)
	updated.Add("data/a", "aa")
	updated.Add("data/b", "cc")

	d := ManifestDiff(old, updated)
	for _, s := range []string{"--- a/manifest-md5.txt", "+++ b/manifest-md5.txt", "-bb  data/b", "+cc  data/b", " aa  data/a"} {
		if !strings.Contains(d, s) {
			t.Errorf("diff does not contain %q:\n%s", s, d)
		}
	}
	if d := ManifestDiff(old, old); d != "" {
		t.Errorf("Received %q, expected no diff", d)
	}
	d = ManifestDiff(nil, updated)
	if !strings.Contains(d, "--- /dev/null") || !strings.Contains(d, "+aa  data/a") {
		t.Errorf("Received %s", d)
	}
}

func TestWriteRebagAndInfo(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "data"), 0755)
	os.WriteFile(filepath.Join(dir, "data", "a"), []byte("a"), 0644)
	bag, err := bagit.CreateBag(context.Background(), dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteInfo(&buf, bag, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Payload-Oxum: 1.1") || !strings.Contains(buf.String(), "manifest-sha256.txt") {
		t.Errorf("Received\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Last:") {
		t.Errorf("Received a last event without one\n%s", buf.String())
	}
	buf.Reset()
	last := &fixity.Event{Operation: fixity.OpValidate, Status: fixity.StatusInvalid, When: time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)}
	if err := WriteInfo(&buf, bag, last); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "validate") || !strings.Contains(buf.String(), "2024-02-03T04:05:06Z") {
		t.Errorf("Received\n%s", buf.String())
	}

	os.WriteFile(filepath.Join(dir, "data", "b"), []byte("b"), 0644)
	result, err := bagit.Rebag(context.Background(), dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	if err := WriteRebag(&buf, result); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "1 added") || !strings.Contains(out, "+92eb5ffee6ae2fec3ad71c777531578f  data/b") {
		t.Errorf("Received\n%s", out)
	}
}

func TestWriteHistory(t *testing.T) {
	when := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := WriteHistory(&buf, []fixity.Event{{Bag: "b", When: when, Operation: fixity.OpValidate, Status: fixity.StatusOK, OK: 3}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "2024-01-01T00:00:00Z") || !strings.Contains(buf.String(), "validate") {
		t.Errorf("Received\n%s", buf.String())
	}
}
