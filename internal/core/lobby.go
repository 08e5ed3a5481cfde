package core

import (
	"sort"

	"github.com/laserchess/relay/internal/model"
	"github.com/laserchess/relay/internal/protocol"
)

// broadcastLobbyLocked pushes a full lobby snapshot to every lobby-resident
// session. No diffing; lobbies are small and membership changes are rare
// relative to match traffic.
func (c *Core) broadcastLobbyLocked() {
	var residents []*model.Session
	for _, s := range c.sessions {
		if s.InLobby() {
			residents = append(residents, s)
		}
	}
	// Stable ordering so clients render a consistent list.
	sort.Slice(residents, func(i, j int) bool {
		return residents[i].ID < residents[j].ID
	})

	players := make([]protocol.LobbyPlayer, 0, len(residents))
	for _, s := range residents {
		players = append(players, protocol.LobbyPlayer{
			ID:     int64(s.ID),
			Name:   s.DisplayName,
			Rating: s.Rating,
		})
	}

	snapshot := protocol.LobbyList{
		Type:        protocol.TypeLobbyList,
		Players:     players,
		TotalOnline: len(c.sessions),
	}

	c.metrics.LobbySize.Set(float64(len(residents)))

	for _, s := range residents {
		send(s, snapshot)
	}
}

// LobbySnapshot returns the current snapshot without sending it. Used by
// tests and diagnostics.
func (c *Core) LobbySnapshot() protocol.LobbyList {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := protocol.LobbyList{
		Type:        protocol.TypeLobbyList,
		Players:     []protocol.LobbyPlayer{},
		TotalOnline: len(c.sessions),
	}
	for _, s := range c.sessions {
		if s.InLobby() {
			snapshot.Players = append(snapshot.Players, protocol.LobbyPlayer{
				ID:     int64(s.ID),
				Name:   s.DisplayName,
				Rating: s.Rating,
			})
		}
	}
	sort.Slice(snapshot.Players, func(i, j int) bool {
		return snapshot.Players[i].ID < snapshot.Players[j].ID
	})
	return snapshot
}
