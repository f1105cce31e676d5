package txn

// Map is a journaled map. Stored values are treated as immutable; callers
// replace a value rather than mutating it in place.
type Map[K comparable, V any] struct {
	data map[K]V
}

func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{data: make(map[K]V)}
}

func (m *Map[K, V]) Get(key K) (V, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *Map[K, V]) Len() int {
	return len(m.data)
}

// Range calls fn for each entry in unspecified order until fn returns false.
func (m *Map[K, V]) Range(fn func(K, V) bool) {
	for k, v := range m.data {
		if !fn(k, v) {
			return
		}
	}
}

func (m *Map[K, V]) Set(tx *Tx, key K, value V) {
	prev, existed := m.data[key]
	m.data[key] = value
	tx.OnRevert(func() {
		if existed {
			m.data[key] = prev
		} else {
			delete(m.data, key)
		}
	})
}

func (m *Map[K, V]) Delete(tx *Tx, key K) {
	prev, existed := m.data[key]
	if !existed {
		return
	}
	delete(m.data, key)
	tx.OnRevert(func() {
		m.data[key] = prev
	})
}

// Value is a single journaled value.
type Value[T any] struct {
	v T
}

func (v *Value[T]) Get() T {
	return v.v
}

func (v *Value[T]) Set(tx *Tx, value T) {
	prev := v.v
	v.v = value
	tx.OnRevert(func() {
		v.v = prev
	})
}

// List is a journaled ordered set.
type List[T comparable] struct {
	items []T
}

// Items returns a copy of the list in insertion order.
func (l *List[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List[T]) Len() int {
	return len(l.items)
}

func (l *List[T]) Contains(item T) bool {
	for _, existing := range l.items {
		if existing == item {
			return true
		}
	}
	return false
}

// Add appends item if absent and reports whether it was added.
func (l *List[T]) Add(tx *Tx, item T) bool {
	if l.Contains(item) {
		return false
	}
	prev := l.items
	next := make([]T, len(prev), len(prev)+1)
	copy(next, prev)
	l.items = append(next, item)
	tx.OnRevert(func() {
		l.items = prev
	})
	return true
}

// Remove deletes item, preserving the order of the rest, and reports whether it was present.
func (l *List[T]) Remove(tx *Tx, item T) bool {
	idx := -1
	for i, existing := range l.items {
		if existing == item {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	prev := l.items
	next := make([]T, 0, len(prev)-1)
	next = append(next, prev[:idx]...)
	next = append(next, prev[idx+1:]...)
	l.items = next
	tx.OnRevert(func() {
		l.items = prev
	})
	return true
}
