package server

import (
	"net"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"github.com/gunnermanx/positionrelay/protocol"
	"github.com/gunnermanx/positionrelay/registry"
)

// Collisions on an 18 character nanoid are negligible, but a join is rejected
// and retried rather than silently overwriting another player's identity.
const MAX_JOIN_ATTEMPTS = 3

func newPlayerID() (protocol.ClientID, error) {
	s, err := gonanoid.New(protocol.ClientIDSize)
	if err != nil {
		return protocol.ClientID{}, err
	}
	return protocol.NewClientID(s)
}

// handleConnectionInit registers a new player at the sender's address, replies
// with the roster of everyone else, then announces the newcomer to each of
// them. The roster reply and the announcements go out while the registry lock
// is held, so the membership they describe cannot change mid fan-out.
func (ps *PositionServer) handleConnectionInit(pkt protocol.Packet, addr net.Addr) {
	now := time.Now()

	var player registry.Player
	joined := false
	for attempt := 0; attempt < MAX_JOIN_ATTEMPTS && !joined; attempt++ {
		id, err := newPlayerID()
		if err != nil {
			ps.logger.Errorf("failed to generate player id: %s", err.Error())
			return
		}
		player = registry.Player{
			ID:            id,
			Seq:           pkt.Seq,
			Position:      ps.spawn,
			LastHeartbeat: now,
		}

		err = ps.registry.Join(player, addr.String(), func(others []registry.Endpoint) {
			roster := make([]protocol.PlayerState, 0, len(others))
			for _, o := range others {
				roster = append(roster, protocol.PlayerState{ID: o.Player.ID, Position: o.Player.Position})
			}
			reply := protocol.NewServerPacket(protocol.ConnectionInit, player.ID, pkt.Seq, protocol.EncodeRoster(roster))
			if err := ps.send(reply, addr.String()); err != nil {
				ps.logger.WithField("addr", addr.String()).Errorf("failed to send roster reply: %s", err.Error())
			}

			announce := protocol.PlayerState{ID: player.ID, Position: player.Position}.Encode()
			for _, o := range others {
				join := protocol.NewServerPacket(protocol.PlayerJoin, o.Player.ID, pkt.Seq, announce)
				if err := ps.send(join, o.Addr); err != nil {
					ps.logger.WithField("addr", o.Addr).Errorf("failed to send join notice: %s", err.Error())
				}
			}
		})
		if err == nil {
			joined = true
		} else {
			ps.logger.WithField("playerID", player.ID.String()).Warnf("retrying join: %s", err.Error())
		}
	}
	if !joined {
		ps.logger.WithField("addr", addr.String()).Error("failed to allocate a unique player id")
		return
	}

	ps.logger.WithFields(logrus.Fields{
		"playerID": player.ID.String(),
		"addr":     addr.String(),
		"players":  ps.registry.Count(),
	}).Info("player connected")
}

// handlePositionUpdate stores the sender's new position and forwards it to
// every other player. Exclusion is by the id claimed in the packet header,
// not by source address; a stale or spoofed claim changes who receives the
// echo. The forwarded header carries the recipient's id.
func (ps *PositionServer) handlePositionUpdate(pkt protocol.Packet, addr net.Addr) {
	pos, err := protocol.DecodePosition(pkt.Payload)
	if err != nil {
		ps.logger.WithField("addr", addr.String()).Errorf("failed to decode position payload: %s", err.Error())
		return
	}

	claimed := pkt.ClaimedSender()
	payload := protocol.PlayerState{ID: claimed, Position: pos}.Encode()

	registered := ps.registry.UpdateAndFanOut(addr.String(), pos, claimed, func(ep registry.Endpoint) {
		fwd := protocol.NewServerPacket(protocol.PositionUpdate, ep.Player.ID, pkt.Seq, payload)
		if err := ps.send(fwd, ep.Addr); err != nil {
			ps.logger.WithField("addr", ep.Addr).Errorf("failed to forward position update: %s", err.Error())
		}
	})
	if !registered {
		ps.logger.WithField("addr", addr.String()).Warn("position update from unregistered address")
	}
}

// handleHeartbeat resets the liveness timestamp for the sender's address. No
// reply is sent; the server-initiated probe flow is separate.
func (ps *PositionServer) handleHeartbeat(pkt protocol.Packet, addr net.Addr) {
	if !ps.registry.TouchHeartbeat(addr.String(), time.Now()) {
		ps.logger.WithField("addr", addr.String()).Warn("heartbeat from unknown player")
	}
}
