package progress

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Bean is an initialized component
type Bean struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	InitializedAt time.Time `json:"initializedAt"`
}

// BeanProgress tracks component initialization apart from the
// action/stage track
type BeanProgress struct {
	sync.RWMutex

	pending     map[string]string
	initialized []Bean
	count       *atomic.Int64
}

// NewBeanProgress creates a *BeanProgress
func NewBeanProgress() *BeanProgress {
	return &BeanProgress{
		pending:     make(map[string]string),
		initialized: make([]Bean, 0),
		count:       atomic.NewInt64(0),
	}
}

func (b *BeanProgress) begin(id, typeName string) {
	b.Lock()
	defer b.Unlock()
	b.pending[id] = typeName
}

func (b *BeanProgress) end(id, typeName string, at time.Time) bool {
	b.Lock()
	defer b.Unlock()
	if _, ok := b.pending[id]; !ok {
		return false
	}
	delete(b.pending, id)
	b.initialized = append(b.initialized, Bean{ID: id, Type: typeName, InitializedAt: at})
	b.count.Inc()
	return true
}

// Pending returns the sorted ids of beans still initializing
func (b *BeanProgress) Pending() []string {
	b.RLock()
	defer b.RUnlock()
	result := make([]string, 0, len(b.pending))
	for id := range b.pending {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// PendingCount returns the number of beans still initializing
func (b *BeanProgress) PendingCount() int {
	b.RLock()
	defer b.RUnlock()
	return len(b.pending)
}

// InitializedCount returns the number of initialized beans
func (b *BeanProgress) InitializedCount() int64 {
	return b.count.Load()
}

// InitializedAfter returns beans initialized at or after ts
func (b *BeanProgress) InitializedAfter(ts time.Time) []Bean {
	b.RLock()
	defer b.RUnlock()
	result := []Bean{}
	for _, bean := range b.initialized {
		if !bean.InitializedAt.Before(ts) {
			result = append(result, bean)
		}
	}
	return result
}
