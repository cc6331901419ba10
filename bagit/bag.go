package bagit

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// A Bag is the metadata of a bag as read from disk. It is a snapshot: it is
// not updated when the files change, and it does not read the payload.
type Bag struct {
	Dir          string
	Declaration  *BagDeclaration
	Info         *BagInfo
	Manifests    map[Algorithm]*Manifest
	TagManifests map[Algorithm]*Manifest
	HasFetch     bool
}

// OpenBag reads the tag files and manifests of the bag in dir. A bag without
// a bag-info.txt gets an empty BagInfo. A bag needs at least one payload
// manifest for an algorithm this package supports.
func OpenBag(dir string) (*Bag, error) {
	decl, err := ReadBagDeclaration(dir)
	if err != nil {
		return nil, err
	}
	bag := &Bag{Dir: dir, Declaration: decl}
	bag.Info, err = ReadBagInfo(dir)
	if errors.Is(err, fs.ErrNotExist) {
		bag.Info = NewBagInfo()
	} else if err != nil {
		return nil, err
	}
	bag.Manifests, err = readManifests(dir, PayloadManifestPrefix)
	if err != nil {
		return nil, err
	}
	if len(bag.Manifests) == 0 {
		return nil, errors.Wrapf(ErrNoManifest, "%s", dir)
	}
	bag.TagManifests, err = readManifests(dir, TagManifestPrefix)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(dir, FetchTxt)); err == nil {
		bag.HasFetch = true
		log.Warn("bag has a fetch.txt; remote files are not retrieved", "dir", dir)
	}
	return bag, nil
}

func readManifests(dir, prefix string) (map[Algorithm]*Manifest, error) {
	files, err := manifestFiles(dir, prefix)
	if err != nil {
		return nil, err
	}
	result := make(map[Algorithm]*Manifest, len(files))
	for a, name := range files {
		m, err := ReadManifestFile(filepath.Join(dir, name), a)
		if err != nil {
			return nil, err
		}
		result[a] = m
	}
	return result, nil
}

// Algorithms returns the algorithms of the payload manifests, sorted.
func (b *Bag) Algorithms() []Algorithm {
	var algs []Algorithm
	for a := range b.Manifests {
		algs = append(algs, a)
	}
	return normalizeAlgorithms(algs)
}

// PayloadManifests returns the payload manifests ordered by algorithm.
func (b *Bag) PayloadManifests() []*Manifest {
	return manifestList(b.Manifests)
}

// TagManifestList returns the tag manifests ordered by algorithm.
func (b *Bag) TagManifestList() []*Manifest {
	return manifestList(b.TagManifests)
}

func manifestList(m map[Algorithm]*Manifest) []*Manifest {
	result := make([]*Manifest, 0, len(m))
	for _, v := range m {
		result = append(result, v)
	}
	return sortManifests(result)
}
