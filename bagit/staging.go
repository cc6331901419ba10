package bagit

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// stagePrefix begins the name of the scratch directory tag files are
// written into before they are moved into the bag.
const stagePrefix = ".bagr-stage-"

// staging collects new tag files in a scratch directory inside the bag.
// Nothing in the bag changes until commit, which renames each staged file
// over its target. The directory is on the same file system as the bag, so
// each rename is atomic.
type staging struct {
	base    string
	scratch string
	files   []string // names staged, in the order written
}

func newStaging(base string) (*staging, error) {
	scratch, err := os.MkdirTemp(base, stagePrefix)
	if err != nil {
		return nil, ioError(base, err)
	}
	return &staging{base: base, scratch: scratch}, nil
}

// path returns where name is staged.
func (s *staging) path(name string) string {
	return filepath.Join(s.scratch, name)
}

func (s *staging) writeTags(name string, tags *TagList) error {
	if err := WriteTagFile(s.path(name), tags); err != nil {
		return err
	}
	s.files = append(s.files, name)
	return nil
}

func (s *staging) writeManifest(m *Manifest) error {
	if err := WriteManifestFile(s.path(m.Name()), m); err != nil {
		return err
	}
	s.files = append(s.files, m.Name())
	return nil
}

// tagFiles lists the tag files the bag will hold after commit: every file
// outside data/ except the tag manifests, with staged files taking the
// place of the ones they replace. Names in remove are left out.
func (s *staging) tagFiles(remove []string) ([]bagFile, error) {
	gone := make(map[string]bool)
	for _, name := range remove {
		gone[name] = true
	}
	skip := func(rel string, d fs.DirEntry) bool {
		if d.IsDir() {
			return rel == DataDir || strings.HasPrefix(rel, stagePrefix)
		}
		return strings.HasPrefix(rel, TagManifestPrefix) || gone[rel]
	}
	existing, err := walkFiles(s.base, ".", skip)
	if err != nil {
		return nil, err
	}
	byPath := make(map[string]bagFile, len(existing))
	for _, f := range existing {
		byPath[f.Path] = f
	}
	for _, name := range s.files {
		info, err := os.Stat(s.path(name))
		if err != nil {
			return nil, ioError(s.path(name), err)
		}
		byPath[name] = bagFile{Path: name, Abs: s.path(name), Size: info.Size()}
	}
	result := make([]bagFile, 0, len(byPath))
	for _, f := range byPath {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

// commit moves every staged file into the bag and then deletes the files
// named in remove. A name in remove which now refers to a committed file,
// as happens on case insensitive file systems, is left alone. The scratch
// directory is always removed.
func (s *staging) commit(remove []string) error {
	defer s.abort()
	var committed []fs.FileInfo
	for _, name := range s.files {
		target := filepath.Join(s.base, name)
		if err := os.Rename(s.path(name), target); err != nil {
			return ioError(target, err)
		}
		log.Debug("committed tag file", "path", target)
		if info, err := os.Stat(target); err == nil {
			committed = append(committed, info)
		}
	}
	for _, name := range remove {
		target := filepath.Join(s.base, name)
		info, err := os.Stat(target)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return ioError(target, err)
		}
		if sameAny(info, committed) {
			log.Debug("kept committed tag file", "path", target)
			continue
		}
		if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return ioError(target, err)
		}
		log.Info("removed tag file", "path", target)
	}
	return nil
}

func sameAny(info fs.FileInfo, files []fs.FileInfo) bool {
	for _, f := range files {
		if os.SameFile(info, f) {
			return true
		}
	}
	return false
}

// abort throws away anything staged. It is safe to call more than once.
func (s *staging) abort() {
	if err := os.RemoveAll(s.scratch); err != nil {
		log.Warn("could not remove staging directory", "path", s.scratch, "err", err)
	}
}
