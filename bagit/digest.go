package bagit

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/ndlib/bagr/util"
)

// Algorithm names a digest algorithm, using the lower case name that
// appears in manifest file names, e.g. "sha256" in "manifest-sha256.txt".
type Algorithm string

const (
	MD5        Algorithm = "md5"
	SHA1       Algorithm = "sha1"
	SHA224     Algorithm = "sha224"
	SHA256     Algorithm = "sha256"
	SHA384     Algorithm = "sha384"
	SHA512     Algorithm = "sha512"
	SHA3_256   Algorithm = "sha3-256"
	SHA3_512   Algorithm = "sha3-512"
	BLAKE2b256 Algorithm = "blake2b-256"
	BLAKE2b512 Algorithm = "blake2b-512"
)

// DefaultAlgorithms are used for new bags when none are requested.
var DefaultAlgorithms = []Algorithm{MD5, SHA256}

var hashConstructors = map[Algorithm]func() hash.Hash{
	MD5:        md5.New,
	SHA1:       sha1.New,
	SHA224:     sha256.New224,
	SHA256:     sha256.New,
	SHA384:     sha512.New384,
	SHA512:     sha512.New,
	SHA3_256:   func() hash.Hash { return sha3.New256() },
	SHA3_512:   func() hash.Hash { return sha3.New512() },
	BLAKE2b256: func() hash.Hash { h, _ := blake2b.New256(nil); return h },
	BLAKE2b512: func() hash.Hash { h, _ := blake2b.New512(nil); return h },
}

// ParseAlgorithm returns the algorithm with the given name. Names are case
// insensitive.
func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(name))
	if _, ok := hashConstructors[a]; !ok {
		return "", &UnsupportedAlgorithmError{Name: name}
	}
	return a, nil
}

// ParseAlgorithms parses a list of names, dropping duplicates and sorting
// the result.
func ParseAlgorithms(names []string) ([]Algorithm, error) {
	var algs []Algorithm
	for _, name := range names {
		a, err := ParseAlgorithm(name)
		if err != nil {
			return nil, err
		}
		algs = append(algs, a)
	}
	return normalizeAlgorithms(algs), nil
}

// SupportedAlgorithms lists every algorithm this package can compute, sorted
// by name.
func SupportedAlgorithms() []Algorithm {
	var algs []Algorithm
	for a := range hashConstructors {
		algs = append(algs, a)
	}
	return normalizeAlgorithms(algs)
}

// New returns a new hash computing a. It panics if a is not supported.
func (a Algorithm) New() hash.Hash {
	return hashConstructors[a]()
}

func (a Algorithm) String() string { return string(a) }

// normalizeAlgorithms sorts algs by name and removes duplicates. The sort
// order is what breaks ties whenever algorithms disagree.
func normalizeAlgorithms(algs []Algorithm) []Algorithm {
	result := append([]Algorithm(nil), algs...)
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	out := result[:0]
	for i, a := range result {
		if i == 0 || a != result[i-1] {
			out = append(out, a)
		}
	}
	return out
}

// Digests holds lower case hex digests of one byte stream, by algorithm.
type Digests map[Algorithm]string

// DigestReader reads r to the end and returns its size and a digest of it
// for each algorithm in algs.
func DigestReader(r io.Reader, algs []Algorithm) (Digests, int64, error) {
	hashes := make(map[string]hash.Hash, len(algs))
	for _, a := range algs {
		hashes[string(a)] = a.New()
	}
	hw := util.NewHashWriterPlain(hashes)
	n, err := io.Copy(hw, r)
	if err != nil {
		return nil, n, err
	}
	result := make(Digests, len(algs))
	for name, sum := range hw.Sums() {
		result[Algorithm(name)] = hex.EncodeToString(sum)
	}
	return result, n, nil
}

// DigestFile returns the size and digests of the file at path.
func DigestFile(path string, algs []Algorithm) (Digests, int64, error) {
	return digestFile(context.Background(), path, algs, nil)
}

// digestFile opens path, digests it, and closes it again. If rate is not
// nil the reads are throttled by it.
func digestFile(ctx context.Context, path string, algs []Algorithm, rate *util.RateCounter) (Digests, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, ioError(path, err)
	}
	defer f.Close()
	var r io.Reader = f
	if rate != nil {
		r = rate.Wrap(ctx, f)
	}
	d, n, err := DigestReader(r, algs)
	if err != nil {
		return nil, 0, ioError(path, err)
	}
	return d, n, nil
}
