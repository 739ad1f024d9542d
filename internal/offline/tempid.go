package offline

import (
	"sync"
	"time"
)

// TempIDs hands out temporary negative identifiers for records created while
// offline. Values derive from the wall clock in nanoseconds, negated, and are
// strictly decreasing so two creates inside the same tick cannot collide. The
// server never sees these ids; a record keeps its temporary id until the
// create is confirmed, at which point the local row is replaced wholesale.
type TempIDs struct {
	mu   sync.Mutex
	last int64
}

func NewTempIDs() *TempIDs {
	return &TempIDs{}
}

// Next returns the next unused temporary id, always negative.
func (t *TempIDs) Next() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := -time.Now().UnixNano()
	if t.last != 0 && id >= t.last {
		id = t.last - 1
	}
	t.last = id
	return id
}
