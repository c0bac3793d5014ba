package shoal

import (
	"sort"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func randomPoints(n, dim int, seed int64) []r3.Vec {
	rng := NewRNG(seed)
	b := box(dim, 20)
	p := make([]r3.Vec, n)
	for i := range p {
		p[i] = rng.InBox(b)
	}
	return p
}

// bruteForce returns the neighbors of q sorted like Index results.
func bruteForce(points []r3.Vec, q r3.Vec) []Neighbor {
	ns := make([]Neighbor, len(points))
	for i, p := range points {
		ns[i] = Neighbor{Index: i, Dist: Dist(p, q)}
	}
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Dist != ns[j].Dist {
			return ns[i].Dist < ns[j].Dist
		}
		return ns[i].Index < ns[j].Index
	})
	return ns
}

func sameIndices(a, b []Neighbor) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Index != b[i].Index {
			return false
		}
	}
	return true
}

func TestRadiusMatchesBruteForce(t *testing.T) {
	for _, dim := range []int{2, 3} {
		points := randomPoints(300, dim, int64(dim))
		idx := NewIndex(points, dim)
		for i := 0; i < 300; i += 17 {
			var want []Neighbor
			for _, n := range bruteForce(points, points[i]) {
				if n.Dist < 3 {
					want = append(want, n)
				}
			}
			got := idx.Radius(points[i], 3)
			if !sameIndices(got, want) {
				t.Fatalf("dim %d point %d: got %v, want %v", dim, i, got, want)
			}
		}
	}
}

func TestRadiusIsStrict(t *testing.T) {
	points := []r3.Vec{{}, {X: 1}, {X: 2}}
	got := NewIndex(points, 2).Radius(r3.Vec{}, 1)
	if len(got) != 1 || got[0].Index != 0 {
		t.Fatalf("got %v, want only the query point", got)
	}
}

func TestNearestIncludesSelf(t *testing.T) {
	points := randomPoints(50, 2, 7)
	idx := NewIndex(points, 2)
	const k = 6
	for i := range points {
		got := idx.Nearest(points[i], k+1)
		if len(got) != k+1 {
			t.Fatalf("point %d: got %d neighbors, want %d", i, len(got), k+1)
		}
		if got[0].Index != i || got[0].Dist != 0 {
			t.Fatalf("point %d: closest is %v, want itself", i, got[0])
		}
		if want := bruteForce(points, points[i])[:k+1]; !sameIndices(got, want) {
			t.Fatalf("point %d: got %v, want %v", i, got, want)
		}
		var others int
		for _, n := range got {
			if n.Index != i {
				others++
			}
		}
		if others != k {
			t.Fatalf("point %d: %d others, want %d", i, others, k)
		}
	}
}

func TestIndexDegenerate(t *testing.T) {
	empty := NewIndex(nil, 3)
	if got := empty.Radius(r3.Vec{}, 10); len(got) != 0 {
		t.Fatalf("empty radius query returned %v", got)
	}
	if got := empty.Nearest(r3.Vec{}, 3); len(got) != 0 {
		t.Fatalf("empty nearest query returned %v", got)
	}

	points := []r3.Vec{{X: 1}, {X: 2}, {X: 3}}
	got := NewIndex(points, 2).Nearest(r3.Vec{}, 10)
	if len(got) != 3 || got[0].Index != 0 || got[2].Index != 2 {
		t.Fatalf("k > N: got %v, want all three points in order", got)
	}
}
