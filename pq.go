package astar

// node is one discovered cell. It lives in the engine's arena and is
// referred to by its int32 handle; parent is a handle too (noParent for the
// start node).
type node struct {
	Coord
	Parent int32
	G      int
	H      int

	// Seq is the open-set insertion order, used to break f ties first-found-wins.
	Seq uint64
	// IndexInQueue is the node's heap position while open, -1 otherwise.
	IndexInQueue int
	Closed       bool
}

const noParent int32 = -1

func (n *node) F() int { return n.G + n.H }

// PriorityQueue orders open handles by f, then by insertion sequence.
// It implements heap.Interface over the arena it was built for.
type PriorityQueue struct {
	arena   *[]node
	handles []int32
}

func newPriorityQueue(arena *[]node) PriorityQueue {
	return PriorityQueue{arena: arena}
}

func (queue PriorityQueue) Len() int { return len(queue.handles) }

func (queue PriorityQueue) Less(i, j int) bool {
	a := &(*queue.arena)[queue.handles[i]]
	b := &(*queue.arena)[queue.handles[j]]
	if fa, fb := a.F(), b.F(); fa != fb {
		return fa < fb
	}
	return a.Seq < b.Seq
}

func (queue PriorityQueue) Swap(i, j int) {
	queue.handles[i], queue.handles[j] = queue.handles[j], queue.handles[i]
	(*queue.arena)[queue.handles[i]].IndexInQueue = i
	(*queue.arena)[queue.handles[j]].IndexInQueue = j
}

func (queue *PriorityQueue) Push(x any) {
	handle := x.(int32)
	(*queue.arena)[handle].IndexInQueue = len(queue.handles)
	queue.handles = append(queue.handles, handle)
}

func (queue *PriorityQueue) Pop() any {
	n := len(queue.handles)
	handle := queue.handles[n-1]
	queue.handles = queue.handles[:n-1]
	(*queue.arena)[handle].IndexInQueue = -1
	return handle
}

// peek returns the minimum handle without removing it.
func (queue PriorityQueue) peek() int32 { return queue.handles[0] }
