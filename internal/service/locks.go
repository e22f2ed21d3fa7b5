package service

import (
	"sort"
	"sync"
)

// ItemLocker hands out one mutex per atomic item id. Callers lock the full
// set of ids they touch in ascending order, which rules out deadlock between
// concurrently committing orders that share components.
type ItemLocker struct {
	mu    sync.Mutex
	locks map[int32]*sync.Mutex
}

func NewItemLocker() *ItemLocker {
	return &ItemLocker{locks: make(map[int32]*sync.Mutex)}
}

func (l *ItemLocker) lockFor(id int32) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// acquire locks the given item ids in ascending order and returns a release
// function that unlocks them in reverse. Duplicate ids are locked once.
func (l *ItemLocker) acquire(ids []int32) func() {
	unique := make([]int32, 0, len(ids))
	seen := make(map[int32]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	held := make([]*sync.Mutex, 0, len(unique))
	for _, id := range unique {
		m := l.lockFor(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
