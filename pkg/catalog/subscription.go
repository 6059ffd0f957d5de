package catalog

import (
	"slices"
	"sync"

	"github.com/vanderheijden86/catalogtree/pkg/model"
)

// Snapshot is the full root sequence as of one published version. The Roots
// slice is private to the snapshot; the nodes it points at are the live tree.
type Snapshot struct {
	Version uint64
	Roots   []*model.TreeNode
}

// Subscription receives snapshots from a Store. The channel holds at most
// one pending snapshot: a slow reader only ever sees the latest.
type Subscription struct {
	ch    chan Snapshot
	store *Store
	once  sync.Once
}

// C returns the channel snapshots are delivered on. It is closed by Close.
func (sub *Subscription) C() <-chan Snapshot {
	return sub.ch
}

// Close stops delivery and closes the channel. Close is idempotent.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		sub.store.subsMu.Lock()
		delete(sub.store.subs, sub)
		close(sub.ch)
		sub.store.subsMu.Unlock()
	})
}

// Subscribe registers a new reader. The current snapshot is delivered
// immediately, then one per successful mutation.
func (s *Store) Subscribe() *Subscription {
	sub := &Subscription{
		ch:    make(chan Snapshot, 1),
		store: s,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.subsMu.Lock()
	s.subs[sub] = struct{}{}
	s.subsMu.Unlock()

	sub.ch <- s.snapshotLocked()
	return sub
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Version: s.version,
		Roots:   slices.Clone(s.roots),
	}
}

// publishLocked bumps the version and hands the new snapshot to every
// subscriber, replacing any snapshot still waiting to be read.
func (s *Store) publishLocked() {
	s.version++
	snap := s.snapshotLocked()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for sub := range s.subs {
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- snap
	}
}
