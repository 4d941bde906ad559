package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"dilemma-survey-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// DilemmaLoader fetches a dilemma from a backing store (e.g. Postgres).
type DilemmaLoader interface {
	LoadDilemma(ctx context.Context, name string) (domain.Dilemma, error)
}

// DilemmaCache caches dilemmas in Redis and falls back to a loader on miss.
//
// Entries are versioned so every instance sees an invalidation at once:
//
//	dilemma:cache:gen:{name}      INCR on Invalidate
//	dilemma:cache:{name}:v{gen}   JSON, EX ttl
//
// A load writes under the generation it read before loading. If Invalidate
// ran meanwhile, readers have moved to the next key and the late write is
// never served.
type DilemmaCache struct {
	client *redis.Client
	loader DilemmaLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewDilemmaCache(client *redis.Client, loader DilemmaLoader, ttl time.Duration) *DilemmaCache {
	return &DilemmaCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *DilemmaCache) FindDilemma(ctx context.Context, name string) (domain.Dilemma, error) {
	gen, err := c.generation(ctx, name)
	if err != nil {
		// without the generation a cached entry cannot be trusted
		return c.loader.LoadDilemma(ctx, name)
	}
	key := c.key(name, gen)
	if d, ok := c.cached(ctx, key); ok {
		return d, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if d, ok := c.cached(ctx, key); ok {
			return d, nil
		}

		d, err := c.loader.LoadDilemma(ctx, name)
		if err != nil {
			return domain.Dilemma{}, err
		}

		if raw, err := json.Marshal(d); err == nil {
			// best-effort; a failed write only costs another load
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return d, nil
	})
	if err != nil {
		return domain.Dilemma{}, err
	}
	return result.(domain.Dilemma), nil
}

// Invalidate moves name to a new generation and drops the previous entry.
func (c *DilemmaCache) Invalidate(ctx context.Context, name string) error {
	gen, err := c.client.Incr(ctx, c.genKey(name)).Result()
	if err != nil {
		return err
	}
	return c.client.Del(ctx, c.key(name, gen-1)).Err()
}

func (c *DilemmaCache) generation(ctx context.Context, name string) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(name)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *DilemmaCache) cached(ctx context.Context, key string) (domain.Dilemma, bool) {
	// redis.Nil and transport errors both fall through to the loader
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Dilemma{}, false
	}
	var d domain.Dilemma
	if err := json.Unmarshal(raw, &d); err != nil {
		return domain.Dilemma{}, false
	}
	return d, true
}

func (c *DilemmaCache) key(name string, gen int64) string {
	return "dilemma:cache:" + name + ":v" + strconv.FormatInt(gen, 10)
}

func (c *DilemmaCache) genKey(name string) string {
	return "dilemma:cache:gen:" + name
}

func (c *DilemmaCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
