package protocol

import (
	"fmt"
	"sort"
)

// Mirror reconstructs the server's pickup set from a stream of
// snapshots, applying full payloads as replacements and deltas on
// top. It is the reference consumer for the sync protocol and backs
// the round-trip tests.
type Mirror struct {
	pickups map[uint32]PickupView
	seq     uint64
	primed  bool
}

func NewMirror() *Mirror {
	return &Mirror{
		pickups: make(map[uint32]PickupView),
	}
}

// Seq returns the sequence number of the last applied snapshot.
func (m *Mirror) Seq() uint64 {
	return m.seq
}

func (m *Mirror) Len() int {
	return len(m.pickups)
}

// Pickups returns the mirrored set ordered by id.
func (m *Mirror) Pickups() []PickupView {
	pickups := make([]PickupView, 0, len(m.pickups))
	for _, pickup := range m.pickups {
		pickups = append(pickups, pickup)
	}
	sort.Slice(pickups, func(i, j int) bool {
		return pickups[i].ID < pickups[j].ID
	})
	return pickups
}

// Apply folds one snapshot into the mirror. Snapshots at or before
// the last applied sequence are ignored. A delta that arrives before
// any full payload, or one that leaves the mirror disagreeing with
// the server's count, returns an error; the caller should wait for
// the next full payload.
func (m *Mirror) Apply(s *Snapshot) error {
	if m.primed && s.Seq <= m.seq {
		return nil
	}
	m.seq = s.Seq

	sync := s.Pickups
	if sync.Full {
		m.pickups = make(map[uint32]PickupView, len(sync.Pickups))
		for _, pickup := range sync.Pickups {
			m.pickups[pickup.ID] = pickup
		}
		m.primed = true
		return nil
	}

	if !m.primed {
		return fmt.Errorf("delta received before any full payload")
	}

	for _, id := range sync.Removed {
		delete(m.pickups, id)
	}
	for _, pickup := range sync.Pickups {
		m.pickups[pickup.ID] = pickup
	}

	if len(m.pickups) != sync.Total {
		return fmt.Errorf(
			"pickup mirror diverged: have %d, server has %d",
			len(m.pickups),
			sync.Total,
		)
	}

	return nil
}
