package game

import (
	"github.com/campfire-gg/arcade/pkg/game/variant"
	"github.com/campfire-gg/arcade/pkg/protocol"
)

// snapshot renders the current world into a wire snapshot. A full
// snapshot carries the whole pickup set; otherwise the pending delta
// is flushed. peek leaves the change tracker untouched so state
// queries never disturb the broadcast stream.
func (s *Session) snapshot(full bool, peek bool) *protocol.Snapshot {
	w := s.world

	snapshot := protocol.Snapshot{
		Session:   s.ID,
		Channel:   s.Channel,
		Variant:   s.Variant,
		Host:      s.host,
		StartedAt: s.Started().UnixMilli(),
		Seq:       w.Seq,
		Time:      w.Now.UnixMilli(),
		Paused:    s.paused,
		World:     s.worldInfo(),
		Players:   make([]protocol.PlayerView, 0, len(w.Players)),
		Pickups:   s.pickupSync(full, peek),
	}

	for _, p := range w.Players {
		snapshot.Players = append(snapshot.Players, s.playerView(p))
	}

	switch s.Variant {
	case variant.Maze:
		snapshot.Phase = &protocol.PhaseInfo{
			Phase:    w.Phase,
			Round:    w.Round,
			Deadline: w.PhaseEnds.UnixMilli(),
		}
	case variant.Combat:
		snapshot.Round = &protocol.RoundInfo{
			Deadline: w.RoundEnds.UnixMilli(),
		}
	}

	return &snapshot
}

func (s *Session) worldInfo() protocol.WorldInfo {
	w := s.world
	info := protocol.WorldInfo{
		Width:  w.Width,
		Height: w.Height,
	}
	if w.Map != nil {
		info.Map = &protocol.MapInfo{
			Name:        w.Map.Name(),
			TileSize:    w.Map.TileSize(),
			Width:       w.Map.Width(),
			Height:      w.Map.Height(),
			Fingerprint: w.Map.Fingerprint(),
		}
	}
	return info
}

func (s *Session) playerView(p *Player) protocol.PlayerView {
	w := s.world

	view := protocol.PlayerView{
		ID:    p.ID,
		Name:  p.Name,
		Color: p.Color,
		Score: p.Score,
		Alive: p.Alive,
	}
	if !p.Alive && !p.RespawnAt.IsZero() {
		if ms := p.RespawnAt.Sub(w.Now).Milliseconds(); ms > 0 {
			view.RespawnMs = ms
		}
	}

	s.engine.View(w, p, &view)
	return view
}

func pickupView(pickup *Pickup) protocol.PickupView {
	return protocol.PickupView{
		ID:     pickup.ID,
		X:      protocol.Round2(pickup.Pos.X),
		Y:      protocol.Round2(pickup.Pos.Y),
		Value:  pickup.Value,
		Radius: pickup.Radius,
		Power:  pickup.Power,
	}
}

func (s *Session) pickupSync(full bool, peek bool) protocol.PickupSync {
	set := s.world.Pickups

	if full {
		pickups := set.All()
		sync := protocol.PickupSync{
			Full:    true,
			Pickups: make([]protocol.PickupView, 0, len(pickups)),
			Total:   len(pickups),
		}
		for _, pickup := range pickups {
			sync.Pickups = append(sync.Pickups, pickupView(pickup))
		}
		if !peek {
			set.ResetTracker()
		}
		return sync
	}

	added, removed := set.Flush()
	sync := protocol.PickupSync{
		Pickups: make([]protocol.PickupView, 0, len(added)),
		Removed: removed,
		Total:   set.Len(),
	}
	for _, pickup := range added {
		sync.Pickups = append(sync.Pickups, pickupView(pickup))
	}
	return sync
}

func (s *Session) scoreboard() []protocol.ScoreEntry {
	entries := make([]protocol.ScoreEntry, 0, len(s.world.Players))
	for _, p := range s.world.Players {
		entries = append(entries, protocol.ScoreEntry{
			ID:    p.ID,
			Name:  p.Name,
			Score: p.Score,
			Best:  p.Best,
		})
	}
	return entries
}
