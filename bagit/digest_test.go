package bagit

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDigestReader(t *testing.T) {
	d, n, err := DigestReader(strings.NewReader("hello"), []Algorithm{MD5, SHA1, SHA256})
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("Received size %d, expected 5", n)
	}
	var table = []struct {
		a      Algorithm
		digest string
	}{
		{MD5, "5d41402abc4b2a76b9719d911017c592"},
		{SHA1, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"},
		{SHA256, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
	}
	for _, test := range table {
		if d[test.a] != test.digest {
			t.Errorf("%s: received %s, expected %s", test.a, d[test.a], test.digest)
		}
	}
}

func TestDigestFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(p, nil, 0644); err != nil {
		t.Fatal(err)
	}
	d, n, err := DigestFile(p, []Algorithm{MD5, SHA256})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || d[MD5] != "d41d8cd98f00b204e9800998ecf8427e" ||
		d[SHA256] != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("Received %v, %d", d, n)
	}

	_, _, err = DigestFile(filepath.Join(t.TempDir(), "missing"), []Algorithm{MD5})
	var ioe *IOError
	if !errors.As(err, &ioe) {
		t.Errorf("Received %v, expected IOError", err)
	}
}

func TestParseAlgorithms(t *testing.T) {
	algs, err := ParseAlgorithms([]string{"SHA256", "md5", "sha256"})
	if err != nil {
		t.Fatal(err)
	}
	if len(algs) != 2 || algs[0] != MD5 || algs[1] != SHA256 {
		t.Errorf("Received %v", algs)
	}
	_, err = ParseAlgorithm("crc32")
	var uae *UnsupportedAlgorithmError
	if !errors.As(err, &uae) {
		t.Errorf("Received %v, expected UnsupportedAlgorithmError", err)
	}
	for _, a := range SupportedAlgorithms() {
		if a.New() == nil {
			t.Errorf("%s has no hash", a)
		}
	}
}
