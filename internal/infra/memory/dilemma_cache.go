package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"dilemma-survey-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// DilemmaLoader fetches a dilemma from a backing store (e.g. Postgres).
type DilemmaLoader interface {
	LoadDilemma(ctx context.Context, name string) (domain.Dilemma, error)
}

// DilemmaCache keeps dilemmas in process for a jittered TTL.
//
// Every name carries a generation that Invalidate bumps. A load remembers the
// generation it started under and only stores its result if that generation
// is still current, so a load racing an admin update can never put the old
// row back.
type DilemmaCache struct {
	loader DilemmaLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu          sync.RWMutex
	entries     map[string]cachedDilemma
	generations map[string]uint64
}

type cachedDilemma struct {
	dilemma   domain.Dilemma
	expiresAt time.Time
}

func NewDilemmaCache(loader DilemmaLoader, ttl time.Duration) *DilemmaCache {
	return &DilemmaCache{
		loader:      loader,
		ttl:         ttl,
		clock:       time.Now,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		entries:     make(map[string]cachedDilemma),
		generations: make(map[string]uint64),
	}
}

func (c *DilemmaCache) FindDilemma(ctx context.Context, name string) (domain.Dilemma, error) {
	dilemma, gen, ok := c.lookup(name)
	if ok {
		return dilemma, nil
	}

	// One flight per generation; callers that arrive after Invalidate start a new load.
	result, err, _ := c.sf.Do(name+"#"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		if dilemma, current, ok := c.lookup(name); ok && current == gen {
			return dilemma, nil
		}

		dilemma, err := c.loader.LoadDilemma(ctx, name)
		if err != nil {
			return domain.Dilemma{}, err
		}
		c.store(name, gen, dilemma)
		return dilemma, nil
	})
	if err != nil {
		return domain.Dilemma{}, err
	}
	return result.(domain.Dilemma), nil
}

// Invalidate drops the cached entry for name and discards loads already in flight.
func (c *DilemmaCache) Invalidate(_ context.Context, name string) error {
	c.mu.Lock()
	delete(c.entries, name)
	c.generations[name]++
	c.mu.Unlock()
	return nil
}

// lookup returns the fresh entry for name, if any, and the current generation.
func (c *DilemmaCache) lookup(name string) (domain.Dilemma, uint64, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	gen := c.generations[name]
	entry, ok := c.entries[name]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Dilemma{}, gen, false
	}
	return entry.dilemma, gen, true
}

func (c *DilemmaCache) store(name string, gen uint64, dilemma domain.Dilemma) {
	expiresAt := c.clock().Add(c.ttlWithJitter())
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[name] != gen {
		return
	}
	c.entries[name] = cachedDilemma{dilemma: dilemma, expiresAt: expiresAt}
}

func (c *DilemmaCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% extra so entries loaded together do not expire together
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
