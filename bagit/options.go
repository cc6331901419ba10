package bagit

import (
	"runtime"
	"time"

	"github.com/ndlib/bagr/util"
)

// Options control how bags are created, validated, and rebagged. A nil
// *Options uses the defaults for everything.
type Options struct {
	// Algorithms to write manifests for. CreateBag uses DefaultAlgorithms
	// when empty; Rebag keeps the algorithms already in the bag.
	Algorithms []Algorithm

	// Workers bounds how many files are digested at once. Defaults to
	// the number of CPUs.
	Workers int

	// Rate limits digest reads to this many bytes per second. Zero means
	// no limit.
	Rate float64

	// Info holds the bag-info tags to start a new bag with. It is copied,
	// not modified.
	Info *BagInfo

	// SoftwareAgent is written to the Software-Agent tag of new bags if
	// Info does not already hold one. Defaults to DefaultSoftwareAgent.
	SoftwareAgent string

	// Now returns the time used for the Bagging-Date tag.
	Now func() time.Time
}

func (o *Options) workers() int {
	if o == nil || o.Workers < 1 {
		return runtime.NumCPU()
	}
	return o.Workers
}

// rateCounter returns nil when there is no rate limit. The caller must Stop
// a non-nil counter.
func (o *Options) rateCounter() *util.RateCounter {
	if o == nil || o.Rate <= 0 {
		return nil
	}
	return util.NewRateCounter(o.Rate)
}

func (o *Options) algorithms(fallback []Algorithm) []Algorithm {
	if o == nil || len(o.Algorithms) == 0 {
		return normalizeAlgorithms(fallback)
	}
	return normalizeAlgorithms(o.Algorithms)
}

func (o *Options) info() *BagInfo {
	if o == nil || o.Info == nil {
		return NewBagInfo()
	}
	return o.Info.Clone()
}

func (o *Options) softwareAgent() string {
	if o == nil || o.SoftwareAgent == "" {
		return DefaultSoftwareAgent
	}
	return o.SoftwareAgent
}

func (o *Options) now() time.Time {
	if o == nil || o.Now == nil {
		return time.Now()
	}
	return o.Now()
}
