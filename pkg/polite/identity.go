package polite

import "math/rand"

// defaultUserAgents is a pool of realistic desktop browser identities.
// Process-wide static configuration, never mutated.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:89.0) Gecko/20100101 Firefox/89.0",
}

// AgentRotator supplies a rotating client identity per request. Selection is
// random with replacement: a round-robin cycle would itself be a detectable
// fingerprint.
type AgentRotator struct {
	pool []string
}

// NewAgentRotator creates a rotator over pool. An empty pool uses the
// built-in identities.
func NewAgentRotator(pool []string) *AgentRotator {
	if len(pool) == 0 {
		pool = defaultUserAgents
	}
	return &AgentRotator{pool: pool}
}

// Next returns one identity string from the pool.
func (r *AgentRotator) Next() string {
	return r.pool[rand.Intn(len(r.pool))]
}

// PoolSize reports how many identities the rotator draws from.
func (r *AgentRotator) PoolSize() int {
	return len(r.pool)
}
