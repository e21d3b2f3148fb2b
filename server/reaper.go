package server

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gunnermanx/positionrelay/protocol"
	"github.com/gunnermanx/positionrelay/registry"
)

// runReaper periodically evicts players whose last heartbeat is older than
// the configured timeout. Survivors are notified before anything is removed,
// so a PlayerLeft notice never references an id the registry has already
// forgotten.
func (ps *PositionServer) runReaper(ctx context.Context) {
	ps.logger.WithFields(logrus.Fields{
		"interval": ps.reapInterval,
		"timeout":  ps.playerTimeout,
	}).Info("inactivity reaper started")
	ticker := time.NewTicker(ps.reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ps.reapOnce(time.Now())
		}
	}
}

func (ps *PositionServer) reapOnce(now time.Time) {
	removed := ps.registry.Reap(now, ps.playerTimeout, func(expired registry.Player, others []registry.Endpoint) {
		payload := protocol.EncodePlayerLeft(expired.ID)
		for _, o := range others {
			note := protocol.NewServerPacket(protocol.PlayerLeft, o.Player.ID, 0, payload)
			if err := ps.send(note, o.Addr); err != nil {
				ps.logger.WithField("addr", o.Addr).Errorf("failed to send departure notice: %s", err.Error())
			}
		}
	})

	if len(removed) > 0 {
		ps.logger.WithFields(logrus.Fields{
			"reaped":  len(removed),
			"players": ps.registry.Count(),
		}).Info("evicted inactive players")
	}
}
