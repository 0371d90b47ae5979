// Package symbols provides a generic ordered symbol table with usage tracking.
package symbols

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/retroenv/retrogolib/set"
)

// Manager provides generic symbol tracking in insertion order.
// K is the key the symbols are registered under, T the type of symbol.
type Manager[K comparable, T any] struct {
	items *orderedmap.OrderedMap[K, T]
	used  set.Set[K]
}

// New creates a new symbol manager.
func New[K comparable, T any]() *Manager[K, T] {
	return &Manager[K, T]{
		items: orderedmap.NewOrderedMap[K, T](),
		used:  set.New[K](),
	}
}

// Get returns the item with the given key.
func (m *Manager[K, T]) Get(key K) (T, bool) {
	return m.items.Get(key)
}

// Set sets the item for the given key. Replacing an item keeps its position.
func (m *Manager[K, T]) Set(key K, item T) {
	m.items.Set(key, item)
}

// Has returns whether an item exists for the given key.
func (m *Manager[K, T]) Has(key K) bool {
	return m.items.Has(key)
}

// Len returns the number of items in the manager.
func (m *Manager[K, T]) Len() int {
	return m.items.Len()
}

// Keys returns all keys in insertion order.
func (m *Manager[K, T]) Keys() []K {
	keys := make([]K, 0, m.items.Len())
	for el := m.items.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Key)
	}
	return keys
}

// Values returns all items in insertion order.
func (m *Manager[K, T]) Values() []T {
	values := make([]T, 0, m.items.Len())
	for el := m.items.Front(); el != nil; el = el.Next() {
		values = append(values, el.Value)
	}
	return values
}

// MarkUsed marks a key as used.
func (m *Manager[K, T]) MarkUsed(key K) {
	m.used.Add(key)
}

// IsUsed returns whether a key is marked as used.
func (m *Manager[K, T]) IsUsed(key K) bool {
	return m.used.Contains(key)
}

// Unused returns the keys of all items that were never marked as used,
// in insertion order.
func (m *Manager[K, T]) Unused() []K {
	var keys []K
	for el := m.items.Front(); el != nil; el = el.Next() {
		if !m.used.Contains(el.Key) {
			keys = append(keys, el.Key)
		}
	}
	return keys
}
