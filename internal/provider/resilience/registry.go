package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// OperationStats counts the outcomes of one kind of upstream call, such as
// "geocode" or "forecast".
type OperationStats struct {
	Successes uint64
	Failures  uint64
}

// ProviderHealth is a point-in-time view of an upstream provider.
type ProviderHealth struct {
	Name         string
	CircuitState gobreaker.State
	Counts       gobreaker.Counts

	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	// LastError is the message of the most recent failure.
	LastError string
	// LastOperation is the operation of the most recent call.
	LastOperation string

	Operations map[string]OperationStats
}

// IsHealthy reports whether the circuit is closed.
func (h *ProviderHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// IsDegraded reports whether the circuit is half-open and probing.
func (h *ProviderHealth) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// IsUnhealthy reports whether the circuit is open and calls fail fast.
func (h *ProviderHealth) IsUnhealthy() bool {
	return h.CircuitState == gobreaker.StateOpen
}

// Registry tracks upstream clients and the outcome of their calls per
// operation. It backs the ops status endpoint and is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*providerRecord
	now       func() time.Time
}

type providerRecord struct {
	client        *Client
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
	lastOperation string
	operations    map[string]OperationStats
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]*providerRecord),
		now:       time.Now,
	}
}

// Register adds a client, replacing any earlier client and history under the
// same name.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = &providerRecord{
		client:     client,
		operations: make(map[string]OperationStats),
	}
}

// RecordSuccess records a successful call. Unknown providers are ignored.
func (r *Registry) RecordSuccess(name, operation string) {
	r.record(name, operation, func(p *providerRecord, now time.Time, stats *OperationStats) {
		p.lastSuccessAt = &now
		stats.Successes++
	})
}

// RecordFailure records a failed call. Unknown providers are ignored.
func (r *Registry) RecordFailure(name, operation string, err error) {
	r.record(name, operation, func(p *providerRecord, now time.Time, stats *OperationStats) {
		p.lastFailureAt = &now
		if err != nil {
			p.lastError = err.Error()
		}
		stats.Failures++
	})
}

func (r *Registry) record(name, operation string, update func(*providerRecord, time.Time, *OperationStats)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[name]
	if !ok {
		return
	}
	stats := p.operations[operation]
	update(p, r.now(), &stats)
	p.operations[operation] = stats
	p.lastOperation = operation
}

// GetHealth returns the health of one provider, or nil if it is not registered.
func (r *Registry) GetHealth(name string) *ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil
	}
	return p.snapshot(name)
}

// GetAllHealth returns the health of every provider, sorted by name.
func (r *Registry) GetAllHealth() []*ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	health := make([]*ProviderHealth, 0, len(r.providers))
	for name, p := range r.providers {
		health = append(health, p.snapshot(name))
	}
	sort.Slice(health, func(i, j int) bool { return health[i].Name < health[j].Name })
	return health
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

func (p *providerRecord) snapshot(name string) *ProviderHealth {
	ops := make(map[string]OperationStats, len(p.operations))
	for op, stats := range p.operations {
		ops[op] = stats
	}

	return &ProviderHealth{
		Name:          name,
		CircuitState:  p.client.CircuitBreakerState(),
		Counts:        p.client.CircuitBreakerCounts(),
		LastSuccessAt: p.lastSuccessAt,
		LastFailureAt: p.lastFailureAt,
		LastError:     p.lastError,
		LastOperation: p.lastOperation,
		Operations:    ops,
	}
}
