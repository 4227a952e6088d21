package game

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// DefaultStakes are the fixed stake tiers; one room per tier is created
// at startup and lives for the process lifetime.
var DefaultStakes = []int{5, 10, 20, 30, 40, 50, 100, 200, 500}

// Broadcaster pushes an event to every connected client, regardless of
// room. Implemented by the websocket hub.
type Broadcaster interface {
	BroadcastGlobal(event any)
}

// Registry owns the stake->Room mapping. It is constructed once at
// startup and injected wherever room access is needed.
type Registry struct {
	stakes []int
	rooms  map[int]*Room
	hub    Broadcaster
	log    *zap.SugaredLogger
}

func NewRegistry(stakes []int, cfg Config, catalog *Catalog, accounts AccountStore, recorder RoundRecorder, hub Broadcaster, log *zap.SugaredLogger) *Registry {
	stakes = append([]int(nil), stakes...)
	sort.Ints(stakes)
	if len(stakes) > 0 {
		cfg.LowestStake = stakes[0]
	}

	reg := &Registry{
		stakes: stakes,
		rooms:  make(map[int]*Room, len(stakes)),
		hub:    hub,
		log:    log,
	}
	for _, stake := range stakes {
		room := NewRoom(stake, cfg, catalog, accounts, recorder, log)
		room.onChange = reg.PublishStats
		reg.rooms[stake] = room
	}
	return reg
}

// Start launches every room's lifecycle goroutine.
func (reg *Registry) Start(ctx context.Context) {
	for _, room := range reg.rooms {
		go room.Run(ctx)
	}
	reg.log.Infof("started %d stake rooms", len(reg.rooms))
}

// Room returns the room for a stake tier.
func (reg *Registry) Room(stake int) (*Room, bool) {
	room, ok := reg.rooms[stake]
	return room, ok
}

// Stakes returns the configured tiers in ascending order.
func (reg *Registry) Stakes() []int {
	return reg.stakes
}

// PublishStats broadcasts a fresh global snapshot to all connections.
// Called on every material state change; always recomputed, never
// patched, so a missed delta heals on the next send.
func (reg *Registry) PublishStats() {
	if reg.hub == nil {
		return
	}
	reg.hub.BroadcastGlobal(reg.Snapshot())
}
