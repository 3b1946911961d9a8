package toolkit

// disjointSet tracks provisional labels that turned out to belong to the same
// region during the first labeling pass. Element 0 is the background and is
// never merged.
type disjointSet struct {
	parent []int
}

func newDisjointSet(capacity int) *disjointSet {
	ds := &disjointSet{parent: make([]int, 1, capacity+1)}
	return ds
}

// add creates a new singleton set and returns its id
func (ds *disjointSet) add() int {
	id := len(ds.parent)
	ds.parent = append(ds.parent, id)
	return id
}

// root returns the representative of p, halving the path on the way up
func (ds *disjointSet) root(p int) int {
	for ds.parent[p] != p {
		ds.parent[p] = ds.parent[ds.parent[p]]
		p = ds.parent[p]
	}
	return p
}

// union merges the sets of p and q. The smaller root wins so that the
// representative is always the earliest provisional label.
func (ds *disjointSet) union(p, q int) {
	rp, rq := ds.root(p), ds.root(q)
	switch {
	case rp == rq:
		return
	case rp < rq:
		ds.parent[rq] = rp
	default:
		ds.parent[rp] = rq
	}
}

// size returns the number of ids handed out, background included
func (ds *disjointSet) size() int { return len(ds.parent) }
