package engine

// openItem is one pending entry in the open set. The same cell may have
// several entries; the ones whose g is worse than the score table are stale.
type openItem struct {
	cell Cell
	g    int
	f    int
}

// openSet orders entries by ascending f, then ascending g
type openSet []*openItem

func (q openSet) Len() int { return len(q) }
func (q openSet) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].g < q[j].g
}
func (q openSet) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *openSet) Push(x any) {
	*q = append(*q, x.(*openItem))
}

func (q *openSet) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
