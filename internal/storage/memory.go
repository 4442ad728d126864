package storage

import (
	"strings"
	"sync"
)

// MemoryFavorites keeps favorites for the life of the process only.
type MemoryFavorites struct {
	mu    sync.RWMutex
	names []string
}

func NewMemoryFavorites(names ...string) *MemoryFavorites {
	m := &MemoryFavorites{}
	for _, n := range names {
		m.AddFavorite(n)
	}
	return m
}

func (m *MemoryFavorites) ListFavorites() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.names))
	copy(out, m.names)
	return out, nil
}

func (m *MemoryFavorites) AddFavorite(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.names {
		if n == name {
			return false, nil
		}
	}
	m.names = append(m.names, name)
	return true, nil
}

func (m *MemoryFavorites) RemoveFavorite(name string) (bool, error) {
	name = strings.TrimSpace(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i], m.names[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
