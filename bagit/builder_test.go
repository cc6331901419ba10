package bagit

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// makePayload writes files (bag relative path to content) under dir.
func makePayload(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

var testOptions = &Options{
	Workers: 2,
	Now:     func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) },
}

func TestCreateBag(t *testing.T) {
	dir := t.TempDir()
	makePayload(t, dir, map[string]string{
		"data/a.txt":     strings.Repeat("a", 1000),
		"data/sub/b.txt": strings.Repeat("b", 234),
	})
	bag, err := CreateBag(context.Background(), dir, testOptions)
	if err != nil {
		t.Fatal(err)
	}

	tag, ok := bag.Info.PayloadOxum()
	if !ok || tag.Value() != "1234.2" {
		t.Errorf("Received Payload-Oxum %v, expected 1234.2", tag)
	}
	tag, _ = bag.Info.BaggingDate()
	if tag.Value() != "2024-01-01" {
		t.Errorf("Received Bagging-Date %s", tag.Value())
	}
	tag, _ = bag.Info.BagSize()
	if tag.Value() != "1 KB" {
		t.Errorf("Received Bag-Size %s", tag.Value())
	}
	tag, _ = bag.Info.SoftwareAgent()
	if tag.Value() != DefaultSoftwareAgent {
		t.Errorf("Received Software-Agent %s", tag.Value())
	}

	algs := bag.Algorithms()
	if len(algs) != 2 || algs[0] != MD5 || algs[1] != SHA256 {
		t.Errorf("Received algorithms %v", algs)
	}
	paths := bag.Manifests[MD5].Paths()
	if len(paths) != 2 || paths[0] != "data/a.txt" || paths[1] != "data/sub/b.txt" {
		t.Errorf("Received manifest paths %v", paths)
	}
	tagPaths := bag.TagManifests[SHA256].Paths()
	expected := []string{BagInfoTxt, BagItTxt, "manifest-md5.txt", "manifest-sha256.txt"}
	if strings.Join(tagPaths, ",") != strings.Join(expected, ",") {
		t.Errorf("Received tag manifest paths %v, expected %v", tagPaths, expected)
	}

	// no scratch directory is left behind
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), stagePrefix) {
			t.Errorf("found leftover %s", e.Name())
		}
	}
}

func TestCreateBagKeepsInfo(t *testing.T) {
	dir := t.TempDir()
	makePayload(t, dir, map[string]string{"data/x": "x"})
	info := NewBagInfo()
	info.AddContactName("Nobody")
	info.AddBaggingDate("1999-12-31")
	opts := *testOptions
	opts.Info = info
	opts.Algorithms = []Algorithm{SHA512}
	bag, err := CreateBag(context.Background(), dir, &opts)
	if err != nil {
		t.Fatal(err)
	}
	tag, _ := bag.Info.BaggingDate()
	if tag.Value() != "1999-12-31" {
		t.Errorf("Received Bagging-Date %s", tag.Value())
	}
	var names []string
	for tag := range bag.Info.ContactName() {
		names = append(names, tag.Value())
	}
	if len(names) != 1 || names[0] != "Nobody" {
		t.Errorf("Received Contact-Name %v", names)
	}
	if _, ok := bag.Manifests[SHA512]; !ok || len(bag.Manifests) != 1 {
		t.Errorf("Received manifests %v", bag.Algorithms())
	}
	// the caller's BagInfo is not changed
	if _, ok := info.PayloadOxum(); ok {
		t.Errorf("opts.Info was modified")
	}
}

func TestCreateBagDeterministic(t *testing.T) {
	files := map[string]string{
		"data/one":       "1",
		"data/two/three": "23",
		"data/Z":         "zz",
	}
	var contents [][]byte
	for i := 0; i < 2; i++ {
		dir := t.TempDir()
		makePayload(t, dir, files)
		if _, err := CreateBag(context.Background(), dir, testOptions); err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"manifest-md5.txt", "manifest-sha256.txt", BagInfoTxt, "tagmanifest-md5.txt"} {
			b, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				t.Fatal(err)
			}
			contents = append(contents, b)
		}
	}
	half := len(contents) / 2
	for i := 0; i < half; i++ {
		if !bytes.Equal(contents[i], contents[i+half]) {
			t.Errorf("file %d differs between runs:\n%s\n%s", i, contents[i], contents[i+half])
		}
	}
	// lines are sorted by path
	if !bytes.HasSuffix(contents[0], []byte("  data/two/three\n")) {
		t.Errorf("unexpected manifest order %q", contents[0])
	}
}

func TestBuildManifestsTwice(t *testing.T) {
	dir := t.TempDir()
	makePayload(t, dir, map[string]string{"data/a": "a", "data/b/c": "c"})
	m1, o1, err := BuildManifests(context.Background(), dir, []Algorithm{SHA1}, testOptions)
	if err != nil {
		t.Fatal(err)
	}
	m2, o2, err := BuildManifests(context.Background(), dir, []Algorithm{SHA1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !m1[SHA1].Equal(m2[SHA1]) || o1 != o2 {
		t.Errorf("manifests differ between runs")
	}
	var b1, b2 bytes.Buffer
	WriteManifest(&b1, m1[SHA1])
	WriteManifest(&b2, m2[SHA1])
	if b1.String() != b2.String() {
		t.Errorf("serialized manifests differ")
	}
}

func TestCreateBagErrors(t *testing.T) {
	// no payload directory
	dir := t.TempDir()
	_, err := CreateBag(context.Background(), dir, nil)
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageWritePayload || !errors.Is(err, ErrNoPayload) {
		t.Errorf("Received %v, expected ErrNoPayload at %s", err, StageWritePayload)
	}

	// already a bag
	makePayload(t, dir, map[string]string{"data/a": "a"})
	if _, err := CreateBag(context.Background(), dir, testOptions); err != nil {
		t.Fatal(err)
	}
	_, err = CreateBag(context.Background(), dir, testOptions)
	if !errors.As(err, &se) || se.Stage != StageStart || !errors.Is(err, ErrBagExists) {
		t.Errorf("Received %v, expected ErrBagExists", err)
	}
}

func TestCreateBagCanceled(t *testing.T) {
	dir := t.TempDir()
	makePayload(t, dir, map[string]string{"data/a": "a", "data/b": "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CreateBag(ctx, dir, testOptions)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Received %v, expected context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(dir, BagItTxt)); err == nil {
		t.Errorf("bagit.txt was written by a canceled run")
	}
}

func TestWriteManifestFailureStage(t *testing.T) {
	dir := t.TempDir()
	makePayload(t, dir, map[string]string{"data/a": "a"})
	// the staging directory has no subdirectory for this name
	m := NewManifest("missing/"+ManifestName(MD5), MD5)
	r := &run{dir: dir}
	err := r.write(context.Background(), NewBagDeclaration(), NewBagInfo(), PayloadOxum{Octets: 1, Files: 1},
		map[Algorithm]*Manifest{MD5: m}, nil, testOptions)
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageWriteManifests {
		t.Errorf("Received %v, expected a StageError at %s", err, StageWriteManifests)
	}
	if _, err := os.Stat(filepath.Join(dir, BagItTxt)); err == nil {
		t.Errorf("bagit.txt was written by a failed run")
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), stagePrefix) {
			t.Errorf("staging directory %s was left behind", e.Name())
		}
	}
}

func TestStageString(t *testing.T) {
	var table = []struct {
		stage Stage
		name  string
	}{
		{StageComputeManifests, "compute manifests"},
		{StageWriteManifests, "write manifests"},
		{StageWriteBagDeclaration, "write bag declaration"},
		{StageDone, "done"},
	}
	for _, tab := range table {
		if tab.stage.String() != tab.name {
			t.Errorf("Received %s, expected %s", tab.stage, tab.name)
		}
	}
	if Stage(99).String() != "Stage(99)" {
		t.Errorf("Received %s", Stage(99))
	}
}
