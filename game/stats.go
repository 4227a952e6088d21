package game

// Snapshot assembles the ROOM_STATS event from every room's live state:
// card-holder counts, countdown-or-playing indicators, taken card ids
// and derived prize pools, keyed by stake.
func (reg *Registry) Snapshot() RoomStatsEvent {
	ev := RoomStatsEvent{
		Type:       EventRoomStats,
		Stats:      make(map[int]int, len(reg.rooms)),
		Timers:     make(map[int]RoomTimer, len(reg.rooms)),
		TakenCards: make(map[int][]int, len(reg.rooms)),
		Prizes:     make(map[int]float64, len(reg.rooms)),
	}
	for stake, room := range reg.rooms {
		holders, timer, taken, prize := room.StatsEntry()
		ev.Stats[stake] = holders
		ev.Timers[stake] = timer
		ev.TakenCards[stake] = taken
		ev.Prizes[stake] = prize
	}
	return ev
}
