// Implements the JobQueue, an ordered collection of job IDs.
// Every named queue in the QueueSet is a JobQueue.

package sim

import (
	"fmt"
	"strings"
)

// JobQueue is a FIFO of job IDs. Jobs themselves live in the QueueSet arena.
type JobQueue struct {
	ids []string
}

// Enqueue adds a job ID to the back of the queue.
func (q *JobQueue) Enqueue(id string) {
	q.ids = append(q.ids, id)
}

func (q *JobQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, id := range q.ids {
		sb.WriteString(fmt.Sprint(id))
		if i < len(q.ids)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of jobs in the queue.
func (q *JobQueue) Len() int {
	return len(q.ids)
}

// Peek returns the ID at the front of the queue without removing it.
// Returns "" if the queue is empty.
func (q *JobQueue) Peek() string {
	if len(q.ids) == 0 {
		return ""
	}
	return q.ids[0]
}

// Dequeue removes and returns the ID at the front of the queue.
func (q *JobQueue) Dequeue() string {
	if len(q.ids) == 0 {
		return ""
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	return id
}

// Remove deletes id from anywhere in the queue, preserving the order of the rest.
// Returns false if id was not queued.
func (q *JobQueue) Remove(id string) bool {
	for i, v := range q.ids {
		if v == id {
			q.ids = append(q.ids[:i], q.ids[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether id is queued.
func (q *JobQueue) Contains(id string) bool {
	for _, v := range q.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Items returns a copy of the queue contents.
// Callers iterate over the copy while the engine moves jobs between queues.
func (q *JobQueue) Items() []string {
	out := make([]string, len(q.ids))
	copy(out, q.ids)
	return out
}
