// pkg/qc/forest.go
package qc

import (
	"math"
	"math/rand"
	"sort"
)

const eulerGamma = 0.5772156649015329

// node is one isolation tree node. Leaves have Left == -1.
type node struct {
	Feature int     `json:"f"`
	Split   float64 `json:"s"`
	Left    int     `json:"l"`
	Right   int     `json:"r"`
	Size    int     `json:"n"`
}

type isolationTree struct {
	Nodes []node `json:"nodes"`
}

// Forest is an isolation forest over fixed-width feature rows
type Forest struct {
	Trees      []isolationTree `json:"trees"`
	SampleSize int             `json:"sample_size"`
	Offset     float64         `json:"offset"`
}

// fitForest grows the trees and sets the decision offset so that the
// contamination fraction of training rows falls below zero.
func fitForest(rows [][]float64, trees, maxSamples int, contamination float64, seed int64) *Forest {
	rng := rand.New(rand.NewSource(seed))

	psi := maxSamples
	if psi > len(rows) {
		psi = len(rows)
	}
	heightLimit := int(math.Ceil(math.Log2(math.Max(float64(psi), 2))))

	f := &Forest{SampleSize: psi}
	for t := 0; t < trees; t++ {
		perm := rng.Perm(len(rows))[:psi]
		sample := make([][]float64, psi)
		for i, idx := range perm {
			sample[i] = rows[idx]
		}
		tree := isolationTree{}
		tree.grow(sample, 0, heightLimit, rng)
		f.Trees = append(f.Trees, tree)
	}

	scores := make([]float64, len(rows))
	for i, r := range rows {
		scores[i] = f.scoreSample(r)
	}
	f.Offset = percentile(scores, 100*contamination)
	return f
}

func (t *isolationTree) grow(rows [][]float64, depth, limit int, rng *rand.Rand) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, node{Left: -1, Right: -1, Size: len(rows)})
	if depth >= limit || len(rows) <= 1 {
		return idx
	}

	width := len(rows[0])
	lows := make([]float64, width)
	highs := make([]float64, width)
	for j := 0; j < width; j++ {
		lows[j], highs[j] = math.Inf(1), math.Inf(-1)
		for _, r := range rows {
			lows[j] = math.Min(lows[j], r[j])
			highs[j] = math.Max(highs[j], r[j])
		}
	}

	var candidates []int
	for j := 0; j < width; j++ {
		if highs[j] > lows[j] {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return idx
	}

	feature := candidates[rng.Intn(len(candidates))]
	split := lows[feature] + rng.Float64()*(highs[feature]-lows[feature])

	var left, right [][]float64
	for _, r := range rows {
		if r[feature] < split {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	l := t.grow(left, depth+1, limit, rng)
	r := t.grow(right, depth+1, limit, rng)
	t.Nodes[idx].Feature = feature
	t.Nodes[idx].Split = split
	t.Nodes[idx].Left = l
	t.Nodes[idx].Right = r
	return idx
}

func (t *isolationTree) pathLength(x []float64) float64 {
	i, depth := 0, 0
	for t.Nodes[i].Left != -1 {
		n := t.Nodes[i]
		if x[n.Feature] < n.Split {
			i = n.Left
		} else {
			i = n.Right
		}
		depth++
	}
	return float64(depth) + averagePathLength(t.Nodes[i].Size)
}

// scoreSample is the negated anomaly score: lower is more anomalous
func (f *Forest) scoreSample(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var total float64
	for i := range f.Trees {
		total += f.Trees[i].pathLength(x)
	}
	mean := total / float64(len(f.Trees))
	norm := averagePathLength(f.SampleSize)
	if norm == 0 {
		return -1
	}
	return -math.Pow(2, -mean/norm)
}

// Decision is negative for anomalies and non-negative for normal rows
func (f *Forest) Decision(x []float64) float64 {
	return f.scoreSample(x) - f.Offset
}

// averagePathLength is the expected path length of an unsuccessful search
// in a binary search tree of n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	m := float64(n - 1)
	return 2*(math.Log(m)+eulerGamma) - 2*m/float64(n)
}

// percentile uses linear interpolation between closest ranks
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}
