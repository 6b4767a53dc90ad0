package analytics

import (
	"errors"
	"math/rand"
	"sort"
	"sync"

	domsvc "VitaPull/internal/domain/service"
)

// ForestConfig tunes the bagged regression-tree ensemble.
type ForestConfig struct {
	Trees           int   `yaml:"trees"`
	MaxDepth        int   `yaml:"max_depth"`         // 0 grows unrestricted
	MinSamplesSplit int   `yaml:"min_samples_split"` // below this a node stays a leaf
	Workers         int   `yaml:"workers"`           // concurrent tree fits, <=1 is sequential
	Seed            int64 `yaml:"seed"`
}

func DefaultForestConfig() ForestConfig {
	return ForestConfig{Trees: 100, MinSamplesSplit: 2, Workers: 4, Seed: 42}
}

// Forest is a bootstrap-aggregated ensemble of variance-reduction regression
// trees. Each tree fits a bootstrap resample of the training rows; prediction
// averages the trees. Fitting is deterministic for a fixed Seed regardless of
// the worker count: tree i always draws from seed Seed+i.
type Forest struct {
	cfg   ForestConfig
	trees []*treeNode
}

func NewForest(cfg ForestConfig) *Forest {
	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Forest{cfg: cfg}
}

var errBadTrainingSet = errors.New("training set is empty or misshapen")

func (f *Forest) Fit(x [][]float64, y []float64) error {
	n := len(x)
	if n == 0 || n != len(y) {
		return errBadTrainingSet
	}
	for i := range x {
		if len(x[i]) != len(x[0]) {
			return errBadTrainingSet
		}
	}

	trees := make([]*treeNode, f.cfg.Trees)
	sem := make(chan struct{}, f.cfg.Workers)
	var wg sync.WaitGroup
	for t := 0; t < f.cfg.Trees; t++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(t int) {
			defer wg.Done()
			defer func() { <-sem }()
			rng := rand.New(rand.NewSource(f.cfg.Seed + int64(t)))
			idx := make([]int, n)
			for i := range idx {
				idx[i] = rng.Intn(n)
			}
			trees[t] = buildTree(x, y, idx, 0, f.cfg)
		}(t)
	}
	wg.Wait()

	f.trees = trees
	return nil
}

func (f *Forest) Predict(x [][]float64) []float64 {
	out := make([]float64, len(x))
	if len(f.trees) == 0 {
		return out
	}
	for i, row := range x {
		sum := 0.0
		for _, t := range f.trees {
			sum += t.predict(row)
		}
		out[i] = sum / float64(len(f.trees))
	}
	return out
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

func (n *treeNode) predict(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

func buildTree(x [][]float64, y []float64, idx []int, depth int, cfg ForestConfig) *treeNode {
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	mean := sum / float64(len(idx))

	if len(idx) < cfg.MinSamplesSplit || (cfg.MaxDepth > 0 && depth >= cfg.MaxDepth) {
		return &treeNode{leaf: true, value: mean}
	}

	feature, threshold, ok := bestSplit(x, y, idx)
	if !ok {
		return &treeNode{leaf: true, value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      buildTree(x, y, left, depth+1, cfg),
		right:     buildTree(x, y, right, depth+1, cfg),
	}
}

// bestSplit scans every feature for the threshold minimizing the summed
// squared error of the two children, using prefix sums over the rows sorted
// by that feature. Returns ok=false when no feature has two distinct values.
func bestSplit(x [][]float64, y []float64, idx []int) (feature int, threshold float64, ok bool) {
	nFeatures := len(x[idx[0]])
	n := len(idx)

	var total, totalSq float64
	for _, i := range idx {
		total += y[i]
		totalSq += y[i] * y[i]
	}
	best := totalSq - total*total/float64(n) // parent SSE, split must improve on it

	order := make([]int, n)
	for f := 0; f < nFeatures; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		var lSum, lSq float64
		for pos := 0; pos < n-1; pos++ {
			i := order[pos]
			lSum += y[i]
			lSq += y[i] * y[i]
			if x[order[pos]][f] == x[order[pos+1]][f] {
				continue
			}
			ln, rn := float64(pos+1), float64(n-pos-1)
			rSum, rSq := total-lSum, totalSq-lSq
			sse := (lSq - lSum*lSum/ln) + (rSq - rSum*rSum/rn)
			if sse < best {
				best = sse
				feature = f
				threshold = (x[order[pos]][f] + x[order[pos+1]][f]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

var _ domsvc.Regressor = (*Forest)(nil)
