package util

import (
	"hash"
	"io"
	"sort"
)

// A HashWriter wraps an io.Writer and also calculates a set of named hashes
// of the bytes written. The names are whatever the caller chose, e.g.
// "md5" or "sha256".
type HashWriter struct {
	io.Writer // our io.MultiWriter
	names     []string
	hashes    map[string]hash.Hash
}

// NewHashWriter returns a HashWriter wrapping w and computing every hash in
// hashes. The HashWriter takes ownership of the hashes.
func NewHashWriter(w io.Writer, hashes map[string]hash.Hash) *HashWriter {
	hw := &HashWriter{hashes: hashes}
	var ws []io.Writer
	if w != nil {
		ws = append(ws, w)
	}
	for name := range hashes {
		hw.names = append(hw.names, name)
	}
	sort.Strings(hw.names)
	for _, name := range hw.names {
		ws = append(ws, hashes[name])
	}
	hw.Writer = io.MultiWriter(ws...)
	return hw
}

// NewHashWriterPlain return a HashWriter that does not wrap an output stream.
// It will just compute the checksums of the data written to it.
func NewHashWriterPlain(hashes map[string]hash.Hash) *HashWriter {
	return NewHashWriter(nil, hashes)
}

// Sums returns every hash computed so far, keyed by name.
func (hw *HashWriter) Sums() map[string][]byte {
	result := make(map[string][]byte, len(hw.names))
	for _, name := range hw.names {
		result[name] = hw.hashes[name].Sum(nil)
	}
	return result
}
