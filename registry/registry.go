package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/gunnermanx/positionrelay/protocol"
)

var ErrIDCollision = errors.New("player id already registered")

// Player is the server-side record for one connected client.
type Player struct {
	ID            protocol.ClientID
	Seq           uint32
	Position      protocol.Position
	LastHeartbeat time.Time
}

// Endpoint pairs a transport address with a copy of the player registered
// there, for callers that fan out datagrams.
type Endpoint struct {
	Addr   string
	Player Player
}

// PlayerRegistry is the authoritative mapping from transport address to
// player state. It also owns the world dimensions.
//
// Every operation runs under one exclusive lock. The compound operations
// (Join, UpdateAndFanOut, ForEach, Reap) hold that lock across the caller's
// fan-out sends, so one client's connect/update/reap cycle stalls registry
// access for others proportional to player count. That is acceptable at the
// small player counts this server targets and a scalability limit beyond
// them.
type PlayerRegistry struct {
	mu      sync.Mutex
	players map[string]*Player
	width   uint32
	height  uint32
}

func New(width, height uint32) *PlayerRegistry {
	return &PlayerRegistry{
		players: make(map[string]*Player),
		width:   width,
		height:  height,
	}
}

// Add inserts or overwrites the player registered at addr.
func (r *PlayerRegistry) Add(p Player, addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[addr] = &p
}

// Remove deletes the entry at addr, a no-op if absent.
func (r *PlayerRegistry) Remove(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, addr)
}

// UpdatePosition stores pos for the player at addr. Returns false if addr is
// not registered.
func (r *PlayerRegistry) UpdatePosition(addr string, pos protocol.Position) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[addr]
	if ok {
		p.Position = pos
	}
	return ok
}

// TouchHeartbeat resets the liveness timestamp for the player at addr.
// Returns false if addr is not registered.
func (r *PlayerRegistry) TouchHeartbeat(addr string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[addr]
	if ok {
		p.LastHeartbeat = now
	}
	return ok
}

// SnapshotOthers returns value copies of every player except the one with the
// excluded id, safe to use after the call returns.
func (r *PlayerRegistry) SnapshotOthers(excluding protocol.ClientID) []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	var others []Player
	for _, p := range r.players {
		if p.ID != excluding {
			others = append(others, *p)
		}
	}
	return others
}

func (r *PlayerRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

func (r *PlayerRegistry) Width() uint32  { return r.width }
func (r *PlayerRegistry) Height() uint32 { return r.height }

// Join inserts p at addr and invokes visit with every other registered
// endpoint, all under one hold of the lock. If another address already holds
// p.ID the registry is left unchanged, visit is not called and ErrIDCollision
// is returned.
func (r *PlayerRegistry) Join(p Player, addr string, visit func(others []Endpoint)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for a, existing := range r.players {
		if a != addr && existing.ID == p.ID {
			return ErrIDCollision
		}
	}
	r.players[addr] = &p
	if visit != nil {
		visit(r.othersLocked(addr))
	}
	return nil
}

// UpdateAndFanOut stores pos for the player at addr, then invokes visit once
// per registered player whose id differs from excluding, under one hold of
// the lock. Returns false without visiting anyone if addr is not registered.
func (r *PlayerRegistry) UpdateAndFanOut(addr string, pos protocol.Position, excluding protocol.ClientID, visit func(Endpoint)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[addr]
	if !ok {
		return false
	}
	p.Position = pos
	for a, other := range r.players {
		if other.ID != excluding {
			visit(Endpoint{Addr: a, Player: *other})
		}
	}
	return true
}

// ForEach invokes visit once per registered player while holding the lock.
func (r *PlayerRegistry) ForEach(visit func(Endpoint)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for a, p := range r.players {
		visit(Endpoint{Addr: a, Player: *p})
	}
}

// Reap removes every player whose last heartbeat is older than timeout at
// now. Before anything is removed, notify is called once per expired player
// with a snapshot of every other registered entry, expired-but-not-yet-removed
// entries included. Notifications therefore always refer to ids that are
// still present in the registry. Returns copies of the removed players.
func (r *PlayerRegistry) Reap(now time.Time, timeout time.Duration, notify func(expired Player, others []Endpoint)) []Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expiredAddrs []string
	for a, p := range r.players {
		if now.Sub(p.LastHeartbeat) > timeout {
			expiredAddrs = append(expiredAddrs, a)
		}
	}

	var removed []Player
	for _, a := range expiredAddrs {
		expired := *r.players[a]
		removed = append(removed, expired)
		if notify != nil {
			notify(expired, r.othersLocked(a))
		}
	}
	for _, a := range expiredAddrs {
		delete(r.players, a)
	}
	return removed
}

// othersLocked snapshots every entry except the one at addr. Callers must
// hold r.mu.
func (r *PlayerRegistry) othersLocked(addr string) []Endpoint {
	var others []Endpoint
	for a, p := range r.players {
		if a != addr {
			others = append(others, Endpoint{Addr: a, Player: *p})
		}
	}
	return others
}
