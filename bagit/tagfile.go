package bagit

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// maxLineLength bounds a single tag or manifest line.
const maxLineLength = 16 << 20

// ReadTagFile parses the tag file at path.
func ReadTagFile(path string) (*TagList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError(path, err)
	}
	defer f.Close()
	return ReadTags(f, path)
}

// ReadTags parses a tag file from r. Parsing stops at the first bad line,
// which is returned as a *MalformedLineError naming path and the line
// number. I/O errors are returned as an *IOError.
func ReadTags(r io.Reader, path string) (*TagList, error) {
	tags := new(TagList)
	var lineno int
	err := scanLines(r, func(line string) error {
		lineno++
		tag, err := parseTagLine(line)
		if err != nil {
			return withLine(err, path, lineno)
		}
		log.Debug("parsed tag", "file", path, "label", tag.label, "value", tag.value)
		tags.Add(tag)
		return nil
	})
	if err != nil {
		var mle *MalformedLineError
		if errors.As(err, &mle) {
			return nil, err
		}
		return nil, ioError(path, err)
	}
	return tags, nil
}

// ParseTagLines parses already split lines, without line terminators.
func ParseTagLines(lines []string, path string) (*TagList, error) {
	tags := new(TagList)
	for i, line := range lines {
		tag, err := parseTagLine(line)
		if err != nil {
			return nil, withLine(err, path, i+1)
		}
		tags.Add(tag)
	}
	return tags, nil
}

func withLine(err error, path string, lineno int) error {
	mle := &MalformedLineError{Path: path, Line: lineno, Reason: err.Error()}
	if ite, ok := err.(*InvalidTagError); ok {
		mle.Reason = ite.Reason
		mle.Err = ite
	}
	return mle
}

// lineError is a line which does not have the shape of a tag.
type lineError string

func (e lineError) Error() string { return string(e) }

func parseTagLine(line string) (Tag, error) {
	if line == "" {
		return Tag{}, lineError("empty line")
	}
	if isSpaceOrTab(line[0]) {
		return Tag{}, lineError("continuation lines are not supported")
	}
	if !utf8.ValidString(line) {
		return Tag{}, lineError("line is not valid UTF-8")
	}
	label, value, ok := strings.Cut(line, ":")
	if !ok {
		return Tag{}, lineError("missing colon separating the label and value")
	}
	if value == "" || !isSpaceOrTab(value[0]) {
		return Tag{}, lineError("value part must start with one whitespace character")
	}
	return NewTag(label, value[1:])
}

// FormatTags serializes tags, one "<label>: <value>" line per tag, without
// line terminators. Long values are not wrapped.
func FormatTags(tags *TagList) []string {
	lines := make([]string, 0, tags.Len())
	for _, tag := range tags.tags {
		lines = append(lines, tag.String())
	}
	return lines
}

// WriteTags writes tags to w, each line ending in LF.
func WriteTags(w io.Writer, tags *TagList) error {
	bw := bufio.NewWriter(w)
	for _, line := range FormatTags(tags) {
		bw.WriteString(line)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteTagFile creates or truncates the file at path and writes tags to it.
func WriteTagFile(path string, tags *TagList) error {
	log.Info("writing tag file", "path", path)
	f, err := os.Create(path)
	if err != nil {
		return ioError(path, err)
	}
	err = WriteTags(f, tags)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return ioError(path, err)
}

// scanLines calls fn with every line in r. Lines may end in LF, CRLF, or
// CR. Scanning stops at the first error returned by fn.
func scanLines(r io.Reader, fn func(line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	scanner.Split(splitLines)
	for scanner.Scan() {
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// splitLines is a bufio.SplitFunc accepting all three line endings allowed
// in tag files.
func splitLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// a CR; look at the next byte to see if it is a CRLF
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
