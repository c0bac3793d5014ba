package shoal

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// A Neighbor is an entry returned by Index queries.
type Neighbor struct {
	Index int     // index of the agent in the school
	Dist  float64 // Euclidean distance to the query point
}

// An Index answers proximity queries over a fixed set of points.
// It is immutable and must be rebuilt whenever the points move.
type Index struct {
	tree *kdtree.Tree
	dim  int
	n    int
}

// NewIndex builds an index over points. Only the first dim coordinates
// of each point take part in the partitioning.
func NewIndex(points []r3.Vec, dim int) *Index {
	ns := make(nodes, len(points))
	for i, p := range points {
		ns[i] = node{pos: p, id: i, dim: dim}
	}
	x := &Index{dim: dim, n: len(points)}
	if len(ns) > 0 {
		x.tree = kdtree.New(ns, false)
	}
	return x
}

// Len returns the number of indexed points.
func (x *Index) Len() int { return x.n }

// Radius returns every indexed point strictly closer than r to p,
// ordered by increasing distance then index. A point equal to p is
// included; callers looking for neighbors of an agent must skip it.
func (x *Index) Radius(p r3.Vec, r float64) []Neighbor {
	if x.tree == nil || r <= 0 {
		return nil
	}
	keep := kdtree.NewDistKeeper(r * r)
	x.tree.NearestSet(keep, node{pos: p, id: -1, dim: x.dim})
	return x.collect(keep.Heap, func(d2 float64) bool { return d2 < r*r })
}

// Nearest returns the k indexed points closest to p, ordered by increasing
// distance then index. A point equal to p is included, so the k nearest
// neighbors of an indexed agent are obtained with k+1 and dropping it.
// Fewer than k points are returned when the index holds fewer.
func (x *Index) Nearest(p r3.Vec, k int) []Neighbor {
	if x.tree == nil || k <= 0 {
		return nil
	}
	if k > x.n {
		k = x.n
	}
	keep := kdtree.NewNKeeper(k)
	x.tree.NearestSet(keep, node{pos: p, id: -1, dim: x.dim})
	ns := x.collect(keep.Heap, func(float64) bool { return true })
	if len(ns) > k {
		ns = ns[:k]
	}
	return ns
}

// collect converts the content of a keeper heap, dropping sentinels
// and entries rejected by keep, and sorts the result.
func (x *Index) collect(h kdtree.Heap, keep func(d2 float64) bool) []Neighbor {
	ns := make([]Neighbor, 0, len(h))
	for _, c := range h {
		if c.Comparable == nil || !keep(c.Dist) {
			continue
		}
		ns = append(ns, Neighbor{Index: c.Comparable.(node).id, Dist: math.Sqrt(c.Dist)})
	}
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Dist != ns[j].Dist {
			return ns[i].Dist < ns[j].Dist
		}
		return ns[i].Index < ns[j].Index
	})
	return ns
}

// A node is an indexed point. It satisfies kdtree.Comparable.
type node struct {
	pos r3.Vec
	id  int
	dim int
}

// Compare returns the signed distance of n from the plane passing through c
// and perpendicular to the dimension d.
func (n node) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return axis(n.pos, int(d)) - axis(c.(node).pos, int(d))
}

// Dims returns the number of dimensions used for partitioning.
func (n node) Dims() int { return n.dim }

// Distance returns the squared Euclidean distance between n and c.
func (n node) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(n.pos, c.(node).pos))
}

// nodes is a collection of node. It satisfies kdtree.Interface.
type nodes []node

func (p nodes) Index(i int) kdtree.Comparable         { return p[i] }
func (p nodes) Len() int                              { return len(p) }
func (p nodes) Pivot(d kdtree.Dim) int                { return plane{nodes: p, Dim: d}.Pivot() }
func (p nodes) Slice(start, end int) kdtree.Interface { return p[start:end] }

// plane sorts nodes along a single dimension. It satisfies kdtree.SortSlicer.
type plane struct {
	kdtree.Dim
	nodes
}

func (p plane) Less(i, j int) bool {
	return axis(p.nodes[i].pos, int(p.Dim)) < axis(p.nodes[j].pos, int(p.Dim))
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.nodes = p.nodes[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.nodes[i], p.nodes[j] = p.nodes[j], p.nodes[i]
}
