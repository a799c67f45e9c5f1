package game

import (
	"sort"

	"github.com/campfire-gg/arcade/pkg/geom"
)

type Pickup struct {
	ID     uint32
	Pos    geom.Vec
	Value  int
	Radius float64
	Power  bool
}

// PickupSet owns a session's pickups and records every addition and
// removal since the last full broadcast so the session can emit
// deltas. Like the rest of the world it is single-goroutine state.
type PickupSet struct {
	pickups map[uint32]*Pickup
	nextID  uint32

	added   map[uint32]struct{}
	removed map[uint32]struct{}
}

func NewPickupSet() *PickupSet {
	return &PickupSet{
		pickups: make(map[uint32]*Pickup),
		added:   make(map[uint32]struct{}),
		removed: make(map[uint32]struct{}),
	}
}

func (s *PickupSet) Len() int {
	return len(s.pickups)
}

func (s *PickupSet) Get(id uint32) (*Pickup, bool) {
	pickup, ok := s.pickups[id]
	return pickup, ok
}

func (s *PickupSet) Spawn(pos geom.Vec, value int, radius float64, power bool) *Pickup {
	s.nextID++
	pickup := &Pickup{
		ID:     s.nextID,
		Pos:    pos,
		Value:  value,
		Radius: radius,
		Power:  power,
	}
	s.pickups[pickup.ID] = pickup
	s.added[pickup.ID] = struct{}{}
	return pickup
}

func (s *PickupSet) Remove(id uint32) {
	if _, ok := s.pickups[id]; !ok {
		return
	}
	delete(s.pickups, id)

	// A pickup that appeared and vanished between two broadcasts
	// cancels out entirely; the consumer never needs to hear about
	// it.
	if _, ok := s.added[id]; ok {
		delete(s.added, id)
		return
	}
	s.removed[id] = struct{}{}
}

// Clear removes every pickup, recording the removals.
func (s *PickupSet) Clear() {
	for id := range s.pickups {
		s.Remove(id)
	}
}

// All returns the pickups ordered by id so payloads are
// deterministic.
func (s *PickupSet) All() []*Pickup {
	pickups := make([]*Pickup, 0, len(s.pickups))
	for _, pickup := range s.pickups {
		pickups = append(pickups, pickup)
	}
	sort.Slice(pickups, func(i, j int) bool {
		return pickups[i].ID < pickups[j].ID
	})
	return pickups
}

// ForEach visits pickups in id order.
func (s *PickupSet) ForEach(fn func(*Pickup) bool) {
	for _, pickup := range s.All() {
		if !fn(pickup) {
			return
		}
	}
}

// Dirty reports whether any changes are waiting to be flushed.
func (s *PickupSet) Dirty() bool {
	return len(s.added) > 0 || len(s.removed) > 0
}

// Flush drains the change records for a delta payload: the pickups
// added (and still present) and the ids removed since the last
// flush or reset.
func (s *PickupSet) Flush() ([]*Pickup, []uint32) {
	added := make([]*Pickup, 0, len(s.added))
	for id := range s.added {
		if pickup, ok := s.pickups[id]; ok {
			added = append(added, pickup)
		}
	}
	sort.Slice(added, func(i, j int) bool {
		return added[i].ID < added[j].ID
	})

	removed := make([]uint32, 0, len(s.removed))
	for id := range s.removed {
		removed = append(removed, id)
	}
	sort.Slice(removed, func(i, j int) bool {
		return removed[i] < removed[j]
	})

	s.ResetTracker()
	return added, removed
}

// ResetTracker forgets pending changes. Called after a full payload,
// which supersedes any delta.
func (s *PickupSet) ResetTracker() {
	s.added = make(map[uint32]struct{})
	s.removed = make(map[uint32]struct{})
}
