package clients

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shaiso/Actors/internal/actor"
)

// Factory создаёт клиента по имени и параметрам.
type Factory func(name string, params Params) (actor.Client, error)

// Registry — реестр видов клиентов.
//
// Позволяет регистрировать и получать фабрики по виду.
// Потокобезопасен.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]Factory
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		kinds: make(map[string]Factory),
	}
}

// DefaultRegistry создаёт реестр со всеми встроенными клиентами.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register("signals", newSignalsFromParams)
	r.Register("timer", newTimerFromParams)
	r.Register("gain", newGainFromParams)
	r.Register("sum", newSumFromParams)
	r.Register("integrator", newIntegratorFromParams)
	r.Register("logging", newLoggingFromParams)

	return r
}

// Register регистрирует фабрику вида kind.
// Существующая фабрика перезаписывается.
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[kind] = f
}

// New создаёт клиента вида kind.
// Возвращает ErrKindNotFound, если вид не зарегистрирован.
func (r *Registry) New(kind, name string, params Params) (actor.Client, error) {
	r.mu.RLock()
	f, exists := r.kinds[kind]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrKindNotFound, kind)
	}
	if params == nil {
		params = Params{}
	}

	c, err := f(name, params)
	if err != nil {
		return nil, fmt.Errorf("client %s (%s): %w", name, kind, err)
	}
	return c, nil
}

// Has проверяет, зарегистрирован ли вид.
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.kinds[kind]
	return exists
}

// Kinds возвращает отсортированный список видов.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Count возвращает количество зарегистрированных видов.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.kinds)
}

// Unregister удаляет вид из реестра.
func (r *Registry) Unregister(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.kinds, kind)
}
