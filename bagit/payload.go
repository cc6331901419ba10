package bagit

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ndlib/bagr/util"
)

// bagFile is a regular file inside a bag.
type bagFile struct {
	Path string // bag relative, with forward slashes
	Abs  string // path on disk
	Size int64
}

// walkPayload lists every regular file under the bag's data directory,
// sorted by path. Directories are descended into; symbolic links and other
// special files are skipped.
func walkPayload(dir string) ([]bagFile, error) {
	root := filepath.Join(dir, DataDir)
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrNoPayload, "%s", dir)
		}
		return nil, ioError(root, err)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(ErrNoPayload, "%s is not a directory", root)
	}
	return walkFiles(dir, DataDir, nil)
}

// walkFiles lists the regular files below dir/start (start may be "."),
// skipping any directory or file for which skip returns true. Paths are
// relative to dir.
func walkFiles(dir, start string, skip func(rel string, d fs.DirEntry) bool) ([]bagFile, error) {
	var files []bagFile
	err := filepath.WalkDir(filepath.Join(dir, start), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return ioError(p, err)
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return ioError(p, err)
		}
		rel = filepath.ToSlash(rel)
		if skip != nil && rel != "." && skip(rel, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			log.Debug("skipping non-regular file", "path", rel)
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return ioError(p, err)
		}
		files = append(files, bagFile{Path: rel, Abs: p, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// digestTask asks for the digests of one file.
type digestTask struct {
	abs  string
	algs []Algorithm
}

// digestResult is filled in exactly once by the worker handling a task.
type digestResult struct {
	digests Digests
	size    int64
}

// digestAll digests every task using at most opts.Workers goroutines. The
// results are in task order. The first failure cancels the remaining work
// and is returned.
func digestAll(ctx context.Context, tasks []digestTask, opts *Options) ([]digestResult, error) {
	rate := opts.rateCounter()
	if rate != nil {
		defer rate.Stop()
	}
	results := make([]digestResult, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	gate := util.NewGate(opts.workers())
	for i := range tasks {
		if err := gate.EnterContext(gctx); err != nil {
			break
		}
		g.Go(func() error {
			defer gate.Leave()
			d, n, err := digestFile(gctx, tasks[i].abs, tasks[i].algs, rate)
			if err != nil {
				return err
			}
			log.Debug("digested file", "path", tasks[i].abs, "size", n)
			results[i] = digestResult{digests: d, size: n}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// BuildManifests walks the payload of the bag in dir once, and returns a
// payload manifest for each algorithm along with the Payload-Oxum of the
// files digested. Running it twice over an unchanged payload gives equal
// manifests.
func BuildManifests(ctx context.Context, dir string, algs []Algorithm, opts *Options) (map[Algorithm]*Manifest, PayloadOxum, error) {
	algs = normalizeAlgorithms(algs)
	if len(algs) == 0 {
		return nil, PayloadOxum{}, errors.New("no digest algorithms given")
	}
	files, err := walkPayload(dir)
	if err != nil {
		return nil, PayloadOxum{}, err
	}
	return buildManifests(ctx, files, algs, ManifestName, opts)
}

func buildManifests(ctx context.Context, files []bagFile, algs []Algorithm, name func(Algorithm) string, opts *Options) (map[Algorithm]*Manifest, PayloadOxum, error) {
	tasks := make([]digestTask, len(files))
	for i, f := range files {
		tasks[i] = digestTask{abs: f.Abs, algs: algs}
	}
	results, err := digestAll(ctx, tasks, opts)
	if err != nil {
		return nil, PayloadOxum{}, err
	}
	manifests := make(map[Algorithm]*Manifest, len(algs))
	for _, a := range algs {
		manifests[a] = NewManifest(name(a), a)
	}
	var oxum PayloadOxum
	for i, f := range files {
		for _, a := range algs {
			if err := manifests[a].Add(f.Path, results[i].digests[a]); err != nil {
				return nil, PayloadOxum{}, err
			}
		}
		oxum.Octets += results[i].size
		oxum.Files++
	}
	return manifests, oxum, nil
}
