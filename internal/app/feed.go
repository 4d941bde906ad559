package app

import (
	"sync"

	"dilemma-survey-service/internal/domain"
)

// Feed fans out path statistics snapshots for one dilemma to live subscribers.
// Snapshots are computed while holding the feed lock so subscribers always see
// them in order.
type Feed struct {
	name        string
	mu          sync.Mutex
	subscribers map[chan domain.PathStats]struct{}
}

// NewFeed is exported for infrastructure layers that keep feeds.
func NewFeed(name string) *Feed {
	return &Feed{
		name:        name,
		subscribers: make(map[chan domain.PathStats]struct{}),
	}
}

// Name returns the dilemma name the feed belongs to.
func (f *Feed) Name() string {
	return f.name
}

func (f *Feed) subscribe(load func() (domain.PathStats, error)) (<-chan domain.PathStats, func(), error) {
	ch := make(chan domain.PathStats, 8)

	f.mu.Lock()
	initial, err := load()
	if err != nil {
		f.mu.Unlock()
		return nil, nil, err
	}
	f.subscribers[ch] = struct{}{}
	ch <- initial
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel, nil
}

func (f *Feed) refresh(load func() (domain.PathStats, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subscribers) == 0 {
		return nil
	}
	stats, err := load()
	if err != nil {
		return err
	}
	for ch := range f.subscribers {
		select {
		case ch <- stats:
		default:
			// drop the oldest snapshot so a slow reader never blocks the fan-out
			select {
			case <-ch:
			default:
			}
			ch <- stats
		}
	}
	return nil
}

// IsEmpty reports whether the feed has no subscribers.
func (f *Feed) IsEmpty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers) == 0
}
