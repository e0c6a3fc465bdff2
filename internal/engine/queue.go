package engine

import "container/heap"

// event is a (time, sensor) pair. A nil sensor is a pure wake-up.
type event struct {
	time   float64
	seq    int64
	sensor *Node
}

// eventQueue is a min-heap on (time, seq).
//
// Unlike a FIFO, events come due by simulation time; seq breaks ties so
// that same-time events keep scheduling order.
type eventQueue []event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	// Release the node pointer held by the vacated slot.
	old[n-1] = event{}
	*q = old[:n-1]
	return e
}

func (q *eventQueue) push(e event) { heap.Push(q, e) }

func (q *eventQueue) pop() event { return heap.Pop(q).(event) }

// peek returns the earliest event without removing it.
func (q eventQueue) peek() (event, bool) {
	if len(q) == 0 {
		return event{}, false
	}
	return q[0], true
}

// due reports whether the earliest event is at or before t.
func (q eventQueue) due(t float64) bool {
	e, ok := q.peek()
	return ok && e.time <= t
}
