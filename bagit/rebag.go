package bagit

import (
	"context"

	"github.com/charmbracelet/log"
)

// RebagResult describes what Rebag found and did.
type RebagResult struct {
	// Changed is false if the bag already matched its payload and
	// nothing was written.
	Changed bool

	// Changes holds the difference between the old and new manifest for
	// each algorithm kept or added.
	Changes map[Algorithm]ManifestChanges

	AddedAlgorithms   []Algorithm
	RemovedAlgorithms []Algorithm

	// Oxum is the Payload-Oxum of the payload on disk.
	Oxum PayloadOxum

	Previous map[Algorithm]*Manifest
	Current  map[Algorithm]*Manifest
}

// Rebag brings the metadata of the bag in dir back in line with its payload.
// The payload manifests are computed again, for opts.Algorithms if given and
// otherwise for the algorithms the bag already has. If they equal the
// manifests on disk and bag-info.txt already holds the current Payload-Oxum
// and Bag-Size, nothing is written. Otherwise the manifests, bag-info.txt,
// and tag manifests are all rewritten,
// with Payload-Oxum and Bag-Size replaced. Manifests for algorithms no longer
// used are removed. The payload is never touched, and neither is the
// Bagging-Date.
//
// The error returned is a *StageError.
func Rebag(ctx context.Context, dir string, opts *Options) (*RebagResult, error) {
	r := &run{dir: dir}
	r.enter(StageStart)
	bag, err := OpenBag(dir)
	if err != nil {
		return nil, r.fail(err)
	}
	algs := opts.algorithms(bag.Algorithms())

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

	result := &RebagResult{
		Changes:  make(map[Algorithm]ManifestChanges),
		Oxum:     oxum,
		Previous: bag.Manifests,
		Current:  manifests,
	}
	for _, a := range algs {
		old, ok := bag.Manifests[a]
		if !ok {
			result.AddedAlgorithms = append(result.AddedAlgorithms, a)
		}
		result.Changes[a] = DiffManifests(old, manifests[a])
	}
	// manifests are written under their lower case names, so an old file
	// with another spelling goes too
	var remove []string
	for _, a := range bag.Algorithms() {
		name := bag.Manifests[a].Name()
		if _, ok := manifests[a]; !ok {
			result.RemovedAlgorithms = append(result.RemovedAlgorithms, a)
			remove = append(remove, name)
		} else if name != ManifestName(a) {
			remove = append(remove, name)
		}
	}
	for _, m := range bag.TagManifestList() {
		if _, ok := manifests[m.Algorithm]; !ok || m.Name() != TagManifestName(m.Algorithm) {
			remove = append(remove, m.Name())
		}
	}

	result.Changed = len(result.AddedAlgorithms) > 0 || len(result.RemovedAlgorithms) > 0
	for _, c := range result.Changes {
		if !c.Empty() {
			result.Changed = true
		}
	}
	info := bag.Info.Clone()
	if err := stampInfo(info, oxum); err != nil {
		return nil, r.fail(err)
	}
	if !info.TagList().Equal(bag.Info.TagList()) {
		result.Changed = true
	}
	if !result.Changed {
		log.Info("bag is up to date", "dir", dir)
		return result, nil
	}

	if err := r.write(ctx, nil, info, oxum, manifests, remove, opts); err != nil {
		return nil, err
	}
	log.Info("rebagged", "dir", dir, "oxum", oxum, "algorithms", algs)
	return result, nil
}
