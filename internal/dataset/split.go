package dataset

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/jmylchreest/ocrsynth/internal/config"
)

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Split partitions a dataset. Every sample lands in exactly one part.
type Split struct {
	Train []Sample
	Val   []Sample
	Test  []Sample
}

// Len returns the total number of samples across all parts.
func (s Split) Len() int {
	return len(s.Train) + len(s.Val) + len(s.Test)
}

// Parts returns the named parts in file order.
func (s Split) Parts() []Part {
	return []Part{
		{Name: "train", File: TrainFile, Samples: s.Train},
		{Name: "val", File: ValFile, Samples: s.Val},
		{Name: "test", File: TestFile, Samples: s.Test},
	}
}

// Part is one named subset of a Split.
type Part struct {
	Name    string
	File    string
	Samples []Sample
}

// SplitSizes returns the train, val and test counts for n samples.
//
// Train and val are the ceilings of their ratios times n; test takes the
// rest. When the ceilings overshoot, test drops to zero and val shrinks to
// what train leaves. The counts always sum to n.
func SplitSizes(n int, ratios config.Split) (train, val, test int) {
	if n <= 0 {
		return 0, 0, 0
	}
	train = ceilShare(ratios.Train, n)
	val = ceilShare(ratios.Val, n)
	test = n - train - val

	if test < 0 {
		test = 0
		val = max(0, n-train)
	}
	if train > n {
		train, val, test = n, 0, 0
	}
	return train, val, test
}

// ceilShare is ceil(ratio*n), tolerant of products like 0.7*10 landing a
// hair above an integer.
func ceilShare(ratio float64, n int) int {
	return max(0, int(math.Ceil(ratio*float64(n)-1e-9)))
}

// SplitSamples shuffles a copy of samples with r and cuts it into
// contiguous train, val and test parts. samples is not modified. A nil r
// keeps the input order.
func SplitSamples(samples []Sample, ratios config.Split, r Shuffler) Split {
	shuffled := make([]Sample, len(samples))
	copy(shuffled, samples)
	if r != nil {
		r.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
	}

	train, val, _ := SplitSizes(len(shuffled), ratios)
	return Split{
		Train: shuffled[:train],
		Val:   shuffled[train : train+val],
		Test:  shuffled[train+val:],
	}
}

// WriteSplit writes the train, val and test label files into dir.
func WriteSplit(dir string, s Split) error {
	for _, p := range s.Parts() {
		if err := WriteLabels(filepath.Join(dir, p.File), p.Samples); err != nil {
			return fmt.Errorf("failed to write %s labels: %w", p.Name, err)
		}
	}
	return nil
}
