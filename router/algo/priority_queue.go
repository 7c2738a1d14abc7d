package algo

// Item is an entry of the search frontier: a node id with its f-score.
type Item struct {
	Value    int
	Priority float64
	// Index is the heap position, maintained by the heap.Interface methods.
	// It is -1 after the item is popped.
	Index int
}

// PriorityQueue is a min-heap of Items ordered by Priority, used with
// container/heap.
type PriorityQueue []*Item

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	return pq[i].Priority < pq[j].Priority
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *PriorityQueue) Push(x any) {
	item := x.(*Item)
	item.Index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *PriorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.Index = -1
	*pq = old[:n-1]
	return item
}
