package learning

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Node is a node of a regression tree. Rows whose Feature value is at most Threshold go Left.
type Node struct {
	Leaf      bool
	Value     float64
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
}

// Eval walks the tree for one row.
func (n *Node) Eval(row []float64) float64 {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// Depth of the tree, where a single leaf has depth 0.
func (n *Node) Depth() int {
	if n == nil || n.Leaf {
		return 0
	}
	l, r := n.Left.Depth(), n.Right.Depth()
	if l > r {
		return l + 1
	}
	return r + 1
}

// treeOptions controls how a regression tree is grown.
//
// Trees are grown on gradients g and hessians h: a leaf takes the value -G/(H+Lambda) and a split is kept when it
// improves (GL²/(HL+Lambda) + GR²/(HR+Lambda) - G²/(H+Lambda))/2 by more than Gamma. With h = 1, Lambda = 0 and
// g the negated residual this is the least squares CART tree.
type treeOptions struct {
	MaxDepth        int // 0 grows until leaves are pure or too small.
	MinSamplesSplit int
	MinSamplesLeaf  int
	MinChildWeight  float64
	Lambda          float64
	Gamma           float64
	Features        []int // Candidate features; nil means all.
	MaxFeatures     int   // Features sampled per split; 0 means every candidate.
}

type treeBuilder struct {
	x    *mat.Dense
	g, h []float64
	opts treeOptions
	rnd  *rand.Rand
}

// growTree fits a regression tree on the rows idx of x.
func growTree(x *mat.Dense, g, h []float64, idx []int, opts treeOptions, rnd *rand.Rand) *Node {
	if opts.Features == nil {
		_, c := x.Dims()
		opts.Features = make([]int, c)
		for j := range opts.Features {
			opts.Features[j] = j
		}
	}
	if opts.MinSamplesSplit < 2 {
		opts.MinSamplesSplit = 2
	}
	if opts.MinSamplesLeaf < 1 {
		opts.MinSamplesLeaf = 1
	}
	b := treeBuilder{x: x, g: g, h: h, opts: opts, rnd: rnd}
	return b.grow(idx, 0)
}

func (b *treeBuilder) sums(idx []int) (float64, float64) {
	var G, H float64
	for _, i := range idx {
		G += b.g[i]
		H += b.h[i]
	}
	return G, H
}

func (b *treeBuilder) leaf(G, H float64) *Node {
	if H+b.opts.Lambda == 0 {
		return &Node{Leaf: true}
	}
	return &Node{Leaf: true, Value: -G / (H + b.opts.Lambda)}
}

func (b *treeBuilder) candidates() []int {
	features := b.opts.Features
	k := b.opts.MaxFeatures
	if k <= 0 || k >= len(features) {
		return features
	}
	sample := append([]int(nil), features...)
	b.rnd.Shuffle(len(sample), func(i, j int) { sample[i], sample[j] = sample[j], sample[i] })
	return sample[:k]
}

func (b *treeBuilder) grow(idx []int, depth int) *Node {
	G, H := b.sums(idx)
	if len(idx) < b.opts.MinSamplesSplit || (b.opts.MaxDepth > 0 && depth >= b.opts.MaxDepth) {
		return b.leaf(G, H)
	}

	score := G * G / (H + b.opts.Lambda)
	if H+b.opts.Lambda == 0 {
		score = 0
	}
	best := struct {
		gain      float64
		feature   int
		threshold float64
		at        int
		order     []int
	}{gain: 0}

	sorted := make([]int, len(idx))
	for _, f := range b.candidates() {
		copy(sorted, idx)
		sort.Slice(sorted, func(i, j int) bool { return b.x.At(sorted[i], f) < b.x.At(sorted[j], f) })

		var GL, HL float64
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			GL += b.g[i]
			HL += b.h[i]
			left, right := k+1, len(sorted)-k-1
			if left < b.opts.MinSamplesLeaf || right < b.opts.MinSamplesLeaf {
				continue
			}
			v, next := b.x.At(i, f), b.x.At(sorted[k+1], f)
			if v == next {
				continue
			}
			GR, HR := G-GL, H-HL
			if HL < b.opts.MinChildWeight || HR < b.opts.MinChildWeight {
				continue
			}
			gain := (GL*GL/(HL+b.opts.Lambda)+GR*GR/(HR+b.opts.Lambda)-score)/2 - b.opts.Gamma
			if gain > best.gain+1e-12 {
				best.gain = gain
				best.feature = f
				best.threshold = v + (next-v)/2
				best.at = k + 1
				best.order = append(best.order[:0], sorted...)
			}
		}
	}

	if best.order == nil || math.IsNaN(best.gain) {
		return b.leaf(G, H)
	}
	left := append([]int(nil), best.order[:best.at]...)
	right := append([]int(nil), best.order[best.at:]...)
	return &Node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      b.grow(left, depth+1),
		Right:     b.grow(right, depth+1),
	}
}

// evalTrees sums shrinkage times the output of every tree, starting at base, for each row of x.
func evalTrees(x *mat.Dense, trees []*Node, base, shrinkage float64) []float64 {
	r, _ := x.Dims()
	out := make([]float64, r)
	for i := range out {
		row := x.RawRowView(i)
		v := base
		for _, t := range trees {
			v += shrinkage * t.Eval(row)
		}
		out[i] = v
	}
	return out
}

// sampleRows draws a fraction of the rows in 0..n-1 without replacement, in ascending order.
func sampleRows(n int, fraction float64, rnd *rand.Rand) []int {
	k := int(math.Round(fraction * float64(n)))
	if k < 1 {
		k = 1
	}
	if k >= n {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := rnd.Perm(n)[:k]
	sort.Ints(idx)
	return idx
}

// sampleFeatures draws a fraction of the c features, keeping at least one.
func sampleFeatures(c int, fraction float64, rnd *rand.Rand) []int {
	return sampleRows(c, fraction, rnd)
}
