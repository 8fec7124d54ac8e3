package sim

import (
	"testing"
)

func TestJobQueue_Peek_NonEmpty_ReturnsFront(t *testing.T) {
	// GIVEN a queue with jobs [A, B]
	q := &JobQueue{}
	q.Enqueue("A")
	q.Enqueue("B")

	// WHEN Peek() is called
	got := q.Peek()

	// THEN it returns the front element without removing it
	if got != "A" {
		t.Errorf("Peek: got %q, want A", got)
	}
	if q.Len() != 2 {
		t.Errorf("Peek modified queue length: got %d, want 2", q.Len())
	}
}

func TestJobQueue_Empty_ReturnsZeroValues(t *testing.T) {
	q := &JobQueue{}
	if got := q.Peek(); got != "" {
		t.Errorf("Peek on empty queue: got %q, want empty", got)
	}
	if got := q.Dequeue(); got != "" {
		t.Errorf("Dequeue on empty queue: got %q, want empty", got)
	}
	if q.String() != "[]" {
		t.Errorf("String: got %q, want []", q.String())
	}
}

func TestJobQueue_Dequeue_FIFO(t *testing.T) {
	q := &JobQueue{}
	for _, id := range []string{"A", "B", "C"} {
		q.Enqueue(id)
	}
	for _, want := range []string{"A", "B", "C"} {
		if got := q.Dequeue(); got != want {
			t.Errorf("Dequeue: got %q, want %q", got, want)
		}
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}

func TestJobQueue_Remove_PreservesOrder(t *testing.T) {
	// GIVEN a queue [A, B, C]
	q := &JobQueue{}
	for _, id := range []string{"A", "B", "C"} {
		q.Enqueue(id)
	}

	// WHEN the middle job is removed
	ok := q.Remove("B")

	// THEN the rest keep their order
	if !ok {
		t.Fatal("Remove(B) returned false")
	}
	if q.String() != "[A C]" {
		t.Errorf("got %s, want [A C]", q.String())
	}
	if q.Remove("B") {
		t.Error("second Remove(B) should return false")
	}
	if q.Contains("B") || !q.Contains("C") {
		t.Error("Contains disagrees with queue contents")
	}
}

func TestJobQueue_Items_ReturnsCopy(t *testing.T) {
	q := &JobQueue{}
	q.Enqueue("A")
	items := q.Items()
	items[0] = "Z"
	if q.Peek() != "A" {
		t.Error("mutating Items() result changed the queue")
	}
}
