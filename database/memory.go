package database

import (
	"sort"
	"sync"
)

type memKey struct {
	ns  int64
	key string
}

// Memory is an in-process Backend. Data is lost on restart.
type Memory struct {
	mu     sync.Mutex
	values map[memKey]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[memKey]string)}
}

func (m *Memory) Get(namespace int64, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[memKey{namespace, key}]
	return v, ok, nil
}

func (m *Memory) Set(namespace int64, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[memKey{namespace, key}] = value
	return nil
}

func (m *Memory) Delete(namespace int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, memKey{namespace, key})
	return nil
}

func (m *Memory) Namespaces() ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[int64]bool)
	var out []int64
	for k := range m.values {
		if !seen[k.ns] {
			seen[k.ns] = true
			out = append(out, k.ns)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Namespace returns a view of the store scoped to ns.
func (m *Memory) Namespace(ns int64) *Namespace {
	return NewNamespace(m, ns)
}

// Close is a no-op so Memory can stand in for DB.
func (m *Memory) Close() error {
	return nil
}
