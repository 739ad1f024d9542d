package offline

import (
	"sync"
	"time"
)

// Transition is one manager state change published to subscribers.
type Transition struct {
	State State     `json:"state"`
	Run   string    `json:"run,omitempty"`
	At    time.Time `json:"at"`
}

const feedBuffer = 16

// statusFeed is a publish/subscribe registry with replay-latest semantics:
// every new subscriber immediately receives the most recent transition, so a
// caller joining mid-run still observes how the run ends. Publishing never
// blocks; when a subscriber's buffer is full its oldest entry is dropped in
// favor of the new one.
type statusFeed struct {
	mu   sync.Mutex
	last Transition
	subs map[int]chan Transition
	next int
}

func newStatusFeed(initial State) *statusFeed {
	return &statusFeed{
		last: Transition{State: initial, At: time.Now().UTC()},
		subs: make(map[int]chan Transition),
	}
}

func (f *statusFeed) publish(t Transition) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.last = t
	for _, ch := range f.subs {
		deliver(ch, t)
	}
}

func (f *statusFeed) subscribe() (<-chan Transition, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	ch := make(chan Transition, feedBuffer)
	ch <- f.last
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if c, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (f *statusFeed) latest() Transition {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func deliver(ch chan Transition, t Transition) {
	select {
	case ch <- t:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- t:
		default:
		}
	}
}
