package upstream

import (
	"sync"
	"time"
)

// payloadCache guarda o payload bruto (pré-normalização) por evento, com
// instante absoluto de expiração. Uma única seção crítica cobre cada operação
// (ler+evictar e inserir), mas o ciclo completo "checar, buscar no upstream,
// inserir" não é atômico: dois callers simultâneos que errem o cache disparam
// fetches independentes. Não há coalescência de requisições em voo; é um
// comportamento aceito do desenho, não um bug.
type payloadCache struct {
	mu      sync.Mutex
	ttl     time.Duration // <= 0 desativa o cache por completo
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	payload   any
	expiresAt time.Time
}

func newPayloadCache(ttl time.Duration) *payloadCache {
	return &payloadCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// get devolve o payload válido para o evento; entradas expiradas são
// evictadas na leitura e contam como miss
func (c *payloadCache) get(eventID string) (any, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[eventID]
	if !ok {
		return nil, false
	}
	if entry.expiresAt.Before(c.now()) {
		delete(c.entries, eventID)
		return nil, false
	}
	return entry.payload, true
}

func (c *payloadCache) set(eventID string, payload any) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[eventID] = cacheEntry{
		payload:   payload,
		expiresAt: c.now().Add(c.ttl),
	}
}
