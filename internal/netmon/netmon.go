// Package netmon maintains the observable connectivity boolean the sync
// layer snapshots before every operation. The probe implementation considers
// the backend reachable when any HTTP response comes back from its health
// endpoint; only transport-level failures count as offline, since a reachable
// backend in a bad mood is still a backend we can talk to.
package netmon

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Monitor reports whether the backend is reachable and publishes every
// change. Subscribe replays the current value first, so a subscriber never
// starts blind.
type Monitor interface {
	Online() bool
	Subscribe() (<-chan bool, func())
}

// broadcaster implements the subscription bookkeeping shared by Probe and
// Static. Channels are buffered one deep and collapse to the latest value;
// connectivity is a level, not an event log.
type broadcaster struct {
	mu     sync.Mutex
	online bool
	subs   map[int]chan bool
	next   int
}

func (b *broadcaster) Online() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.online
}

func (b *broadcaster) Subscribe() (<-chan bool, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan bool, 1)
	ch <- b.online
	if b.subs == nil {
		b.subs = make(map[int]chan bool)
	}
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// set updates the value and publishes on change. Returns true when the value
// actually flipped.
func (b *broadcaster) set(online bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.online == online {
		return false
	}
	b.online = online
	for _, ch := range b.subs {
		select {
		case ch <- online:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- online:
			default:
			}
		}
	}
	return true
}

// Static is a monitor with a manually controlled value, used by the one-shot
// CLI path and by tests.
type Static struct {
	broadcaster
}

func NewStatic(online bool) *Static {
	s := &Static{}
	s.online = online
	return s
}

// Set overrides the connectivity value.
func (s *Static) Set(online bool) {
	s.set(online)
}

// Probe polls the backend health endpoint on a fixed interval and publishes
// transitions. It starts offline until the first probe answers.
type Probe struct {
	broadcaster

	url      string
	interval time.Duration
	client   *http.Client
	log      zerolog.Logger

	stop chan struct{}
	done chan struct{}
}

func NewProbe(url string, interval time.Duration, logger zerolog.Logger) *Probe {
	return &Probe{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 5 * time.Second},
		log:      logger.With().Str("component", "netmon").Logger(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start probes once immediately, then on every tick until Stop.
func (p *Probe) Start() {
	go func() {
		defer close(p.done)
		p.check()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				p.check()
			}
		}
	}()
}

func (p *Probe) Stop() {
	close(p.stop)
	<-p.done
}

// CheckNow runs a single probe synchronously and returns the result. The
// one-shot sync command uses it to establish connectivity before running.
func (p *Probe) CheckNow() bool {
	return p.check()
}

func (p *Probe) check() bool {
	ctx, cancel := context.WithTimeout(context.Background(), p.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.log.Error().Err(err).Msg("building probe request")
		return p.Online()
	}

	resp, err := p.client.Do(req)
	online := err == nil
	if online {
		resp.Body.Close()
	}
	if p.set(online) {
		evt := p.log.Info()
		if !online {
			evt = p.log.Warn().Err(err)
		}
		evt.Bool("online", online).Msg("connectivity changed")
	}
	return online
}
