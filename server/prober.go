package server

import (
	"context"
	"time"

	"github.com/gunnermanx/positionrelay/protocol"
	"github.com/gunnermanx/positionrelay/registry"
)

// runProber periodically sends a Heartbeat probe to every registered player.
// The probe is one-directional: it confirms reachability from the server side
// and neither resets any timestamp nor expects a correlated reply.
func (ps *PositionServer) runProber(ctx context.Context) {
	ps.logger.WithField("interval", ps.probeInterval).Info("liveness prober started")
	ticker := time.NewTicker(ps.probeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ps.probeOnce()
		}
	}
}

func (ps *PositionServer) probeOnce() {
	ps.registry.ForEach(func(ep registry.Endpoint) {
		probe := protocol.NewServerPacket(protocol.Heartbeat, ep.Player.ID, 0, nil)
		if err := ps.send(probe, ep.Addr); err != nil {
			ps.logger.WithField("addr", ep.Addr).Errorf("failed to send liveness probe: %s", err.Error())
		}
	})
}
