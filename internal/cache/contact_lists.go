package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/geocoder89/contactkeeper/internal/domain/contact"
	"github.com/redis/go-redis/v9"
)

// ContactLists caches each owner's contact list under a per-owner
// generation. Writers bump the generation after changing the store, so a
// list read from the store is only reachable if it was stored under the
// generation observed before the read.
type ContactLists interface {
	Generation(ctx context.Context, ownerID string) (uint64, error)
	Get(ctx context.Context, ownerID string, gen uint64) ([]contact.Contact, bool)
	Set(ctx context.Context, ownerID string, gen uint64, list []contact.Contact)
	Invalidate(ctx context.Context, ownerID string) error
}

func ContactsListKey(ownerID string, gen uint64) string {
	return "contacts:list:v2:owner=" + ownerID + ":gen=" + strconv.FormatUint(gen, 10)
}

func ContactsGenerationKey(ownerID string) string {
	return "contacts:list:v2:gen:owner=" + ownerID
}

// MemoryContactLists is process-local. Run it only with a single API
// replica; other replicas never see its invalidations.
type MemoryContactLists struct {
	mu   sync.Mutex
	gens map[string]uint64
	c    *Cache[[]contact.Contact]
}

func NewMemoryContactLists(ttl time.Duration) *MemoryContactLists {
	return &MemoryContactLists{
		gens: make(map[string]uint64),
		c:    New[[]contact.Contact](ttl),
	}
}

func (m *MemoryContactLists) Generation(_ context.Context, ownerID string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[ownerID], nil
}

func (m *MemoryContactLists) Get(_ context.Context, ownerID string, gen uint64) ([]contact.Contact, bool) {
	list, ok := m.c.Get(ContactsListKey(ownerID, gen))
	if !ok {
		return nil, false
	}

	// hand out a copy so callers cannot mutate the cached slice
	out := make([]contact.Contact, len(list))
	copy(out, list)
	return out, true
}

// Set drops the list when a writer has moved the generation past gen.
func (m *MemoryContactLists) Set(_ context.Context, ownerID string, gen uint64, list []contact.Contact) {
	stored := make([]contact.Contact, len(list))
	copy(stored, list)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gens[ownerID] != gen {
		return
	}
	m.c.Set(ContactsListKey(ownerID, gen), stored)
}

func (m *MemoryContactLists) Invalidate(_ context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.gens[ownerID]
	m.gens[ownerID] = old + 1
	m.c.Delete(ContactsListKey(ownerID, old))
	return nil
}

// RedisContactLists stores JSON-encoded lists in Redis, keyed by the
// owner's generation counter. Invalidate is an INCR on that counter, which
// every replica sees. Read failures degrade to cache misses.
type RedisContactLists struct {
	rdb     redis.UniversalClient
	ttl     time.Duration
	onError func(op string, err error)
}

func NewRedisContactLists(rdb redis.UniversalClient, ttl time.Duration, onError func(op string, err error)) *RedisContactLists {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if onError == nil {
		onError = func(string, error) {}
	}
	return &RedisContactLists{rdb: rdb, ttl: ttl, onError: onError}
}

func (r *RedisContactLists) Generation(ctx context.Context, ownerID string) (uint64, error) {
	gen, err := r.rdb.Get(ctx, ContactsGenerationKey(ownerID)).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		r.onError("generation", err)
		return 0, err
	}
	return gen, nil
}

func (r *RedisContactLists) Get(ctx context.Context, ownerID string, gen uint64) ([]contact.Contact, bool) {
	raw, err := r.rdb.Get(ctx, ContactsListKey(ownerID, gen)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.onError("get", err)
		}
		return nil, false
	}

	var list []contact.Contact
	if err := json.Unmarshal(raw, &list); err != nil {
		r.onError("decode", err)
		return nil, false
	}

	return list, true
}

// Set writes under gen unconditionally. A list written after a concurrent
// Invalidate lands on a generation no reader asks for again.
func (r *RedisContactLists) Set(ctx context.Context, ownerID string, gen uint64, list []contact.Contact) {
	if list == nil {
		list = []contact.Contact{}
	}

	raw, err := json.Marshal(list)
	if err != nil {
		r.onError("encode", err)
		return
	}

	if err := r.rdb.Set(ctx, ContactsListKey(ownerID, gen), raw, r.ttl).Err(); err != nil {
		r.onError("set", err)
	}
}

func (r *RedisContactLists) Invalidate(ctx context.Context, ownerID string) error {
	if err := r.rdb.Incr(ctx, ContactsGenerationKey(ownerID)).Err(); err != nil {
		r.onError("incr", err)
		return err
	}
	return nil
}

type observedContactLists struct {
	ContactLists
	observe func(hit bool)
}

// WithLookupObserver reports every Get as a hit or a miss.
func WithLookupObserver(l ContactLists, observe func(hit bool)) ContactLists {
	if observe == nil {
		return l
	}
	return observedContactLists{ContactLists: l, observe: observe}
}

func (o observedContactLists) Get(ctx context.Context, ownerID string, gen uint64) ([]contact.Contact, bool) {
	list, ok := o.ContactLists.Get(ctx, ownerID, gen)
	o.observe(ok)
	return list, ok
}
