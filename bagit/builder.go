package bagit

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// Stage names a step of creating or rebagging a bag.
type Stage int

const (
	StageStart Stage = iota
	StageWritePayload
	StageComputeManifests
	StageWriteManifests
	StageWriteBagDeclaration
	StageWriteBagInfo
	StageWriteTagManifests
	StageCommit
	StageDone
)

var stageNames = [...]string{
	"start",
	"write payload",
	"compute manifests",
	"write manifests",
	"write bag declaration",
	"write bag info",
	"write tag manifests",
	"commit",
	"done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError is returned by CreateBag and Rebag. It holds the stage which
// failed and the error which stopped it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// run tracks the current stage of a bagging operation.
type run struct {
	dir   string
	stage Stage
}

func (r *run) enter(s Stage) {
	r.stage = s
	log.Debug("bagging", "dir", r.dir, "stage", s)
}

func (r *run) fail(err error) error {
	return &StageError{Stage: r.stage, Err: err}
}

// CreateBag turns dir into a bag. The payload must already be in dir/data.
// A manifest is computed for each of opts.Algorithms (DefaultAlgorithms if
// none are given), and bagit.txt, bag-info.txt, the payload manifests, and
// the tag manifests are written.
//
// The bag-info.txt starts with the tags in opts.Info. Payload-Oxum and
// Bag-Size are always set from the payload. Bagging-Date and Software-Agent
// are added unless opts.Info already holds them.
//
// The tag files are written into a scratch directory and only moved into
// place once all of them were written, so a failure before the commit stage
// leaves dir as it was. The commit renames the files one at a time; if a
// rename fails part way, dir may hold a mix of old and new tag files and
// should be rebagged.
// The error returned is a *StageError.
func CreateBag(ctx context.Context, dir string, opts *Options) (*Bag, error) {
	r := &run{dir: dir}
	r.enter(StageStart)
	_, err := os.Stat(filepath.Join(dir, BagItTxt))
	if err == nil {
		return nil, r.fail(errors.Wrapf(ErrBagExists, "%s", dir))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, r.fail(ioError(dir, err))
	}
	algs := opts.algorithms(DefaultAlgorithms)

	// the payload is put in place by the caller; this only makes sure it
	// is there
	r.enter(StageWritePayload)
	files, err := walkPayload(dir)
	if err != nil {
		return nil, r.fail(err)
	}

	r.enter(StageComputeManifests)
	manifests, oxum, err := buildManifests(ctx, files, algs, ManifestName, opts)
	if err != nil {
		return nil, r.fail(err)
	}

	info := opts.info()
	if _, ok := info.BaggingDate(); !ok {
		if err := info.AddBaggingDate(opts.now().Format("2006-01-02")); err != nil {
			return nil, r.fail(err)
		}
	}
	if _, ok := info.SoftwareAgent(); !ok {
		if err := info.AddSoftwareAgent(opts.softwareAgent()); err != nil {
			return nil, r.fail(err)
		}
	}
	decl := NewBagDeclaration()
	if err := r.write(ctx, decl, info, oxum, manifests, nil, opts); err != nil {
		return nil, err
	}
	log.Info("created bag", "dir", dir, "oxum", oxum, "algorithms", algs)
	return OpenBag(dir)
}

// write stages every tag file of the bag and commits them. A nil decl keeps
// the bag declaration already on disk. Files named in remove are deleted
// from the bag after the commit.
func (r *run) write(ctx context.Context, decl *BagDeclaration, info *BagInfo, oxum PayloadOxum, manifests map[Algorithm]*Manifest, remove []string, opts *Options) error {
	r.enter(StageWriteManifests)
	st, err := newStaging(r.dir)
	if err != nil {
		return r.fail(err)
	}
	defer st.abort()

	for _, m := range manifestList(manifests) {
		if err := st.writeManifest(m); err != nil {
			return r.fail(err)
		}
	}

	if decl != nil {
		r.enter(StageWriteBagDeclaration)
		if err := st.writeTags(BagItTxt, decl.Tags()); err != nil {
			return r.fail(err)
		}
	}

	r.enter(StageWriteBagInfo)
	if err := stampInfo(info, oxum); err != nil {
		return r.fail(err)
	}
	if err := st.writeTags(BagInfoTxt, info.TagList()); err != nil {
		return r.fail(err)
	}

	r.enter(StageWriteTagManifests)
	tagFiles, err := st.tagFiles(remove)
	if err != nil {
		return r.fail(err)
	}
	var algs []Algorithm
	for a := range manifests {
		algs = append(algs, a)
	}
	tagManifests, _, err := buildManifests(ctx, tagFiles, normalizeAlgorithms(algs), TagManifestName, opts)
	if err != nil {
		return r.fail(err)
	}
	for _, m := range manifestList(tagManifests) {
		if err := st.writeManifest(m); err != nil {
			return r.fail(err)
		}
	}

	r.enter(StageCommit)
	if err := st.commit(remove); err != nil {
		return r.fail(err)
	}
	r.enter(StageDone)
	return nil
}

// stampInfo sets the bag-info tags which describe the payload.
func stampInfo(info *BagInfo, oxum PayloadOxum) error {
	if err := info.AddPayloadOxum(oxum.String()); err != nil {
		return err
	}
	return info.AddBagSize(humansize(oxum.Octets))
}
