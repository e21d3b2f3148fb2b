package server

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gunnermanx/positionrelay/config"
	"github.com/gunnermanx/positionrelay/protocol"
	"github.com/gunnermanx/positionrelay/registry"
)

// The server should handle the following responsibilities
//
// Assigning an identity to connecting clients
// Relaying position updates between clients
// Tracking liveness and evicting silent clients

const RECV_BUFFER_SIZE = 1024

// PositionServer owns the UDP socket and the player registry, and runs the
// receive loop plus the two maintenance tasks (liveness prober, inactivity
// reaper). The socket is shared by all of them; the registry serializes
// access behind its own lock.
type PositionServer struct {
	config   *config.ServerConfig
	logger   *logrus.Logger
	serverID string

	conn     net.PacketConn
	registry *registry.PlayerRegistry

	spawn         protocol.Position
	probeInterval time.Duration
	reapInterval  time.Duration
	playerTimeout time.Duration
}

func New(conf *config.ServerConfig, logger *logrus.Logger) (s *PositionServer) {
	s = &PositionServer{
		config:        conf,
		logger:        logger,
		serverID:      uuid.New().String(),
		registry:      registry.New(conf.WorldWidth, conf.WorldHeight),
		spawn:         protocol.Position{X: conf.SpawnX, Y: conf.SpawnY},
		probeInterval: time.Duration(conf.ProbeIntervalS) * time.Second,
		reapInterval:  time.Duration(conf.ReapIntervalS) * time.Second,
		playerTimeout: time.Duration(conf.PlayerTimeoutS) * time.Second,
	}
	return
}

// Start binds the socket, spawns the maintenance tasks and runs the receive
// loop until the process is signalled or the socket fails.
func (ps *PositionServer) Start() (err error) {
	var conn net.PacketConn
	if conn, err = net.ListenPacket("udp", ps.config.BindAddress); err != nil {
		err = errors.Wrap(err, "failed to bind udp socket")
		ps.logger.Error(err)
		return
	}
	ps.conn = conn

	ps.logger.WithFields(logrus.Fields{
		"serverID": ps.serverID,
		"addr":     conn.LocalAddr().String(),
	}).Info("position server listening")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ps.runProber(ctx)
	go ps.runReaper(ctx)

	errc := make(chan error, 1)
	go func() {
		errc <- ps.receiveLoop(ctx)
	}()

	// Wait for termination or errors
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	select {
	case err = <-errc:
		if err != nil {
			ps.logger.Errorf("receive loop failed: %s", err.Error())
		}
	case sig := <-sigs:
		ps.logger.Infof("terminating on sig: %v", sig)
	}

	cancel()
	return conn.Close()
}

// receiveLoop reads datagrams and dispatches them one at a time. Malformed
// packets never terminate the loop; only a closed socket does.
func (ps *PositionServer) receiveLoop(ctx context.Context) error {
	ps.logger.Info("receive loop started")
	buf := make([]byte, RECV_BUFFER_SIZE)
	for {
		n, addr, err := ps.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			ps.logger.Errorf("failed to receive datagram: %s", err.Error())
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		ps.dispatch(data, addr)
	}
}

// dispatch decodes one datagram and routes it by message type. The registry
// is the only state the handlers touch; there is no per-connection machine.
func (ps *PositionServer) dispatch(data []byte, addr net.Addr) {
	pkt, err := protocol.Decode(data)
	if err != nil {
		ps.logger.WithField("addr", addr.String()).Errorf("failed to decode datagram: %s", err.Error())
		return
	}

	switch pkt.Type {
	case protocol.ConnectionInit:
		ps.handleConnectionInit(pkt, addr)
	case protocol.PositionUpdate:
		ps.handlePositionUpdate(pkt, addr)
	case protocol.Heartbeat:
		ps.handleHeartbeat(pkt, addr)
	default:
		// ChatMessage, ConfirmPlayerMovement, PlayerJoin and PlayerLeft are
		// server-to-client only
		ps.logger.WithFields(logrus.Fields{
			"addr": addr.String(),
			"type": pkt.Type.String(),
		}).Warn("ignoring inbound message type")
	}
}

// send encodes and transmits one packet to a registered address string.
func (ps *PositionServer) send(pkt protocol.Packet, addr string) (err error) {
	var udpAddr *net.UDPAddr
	if udpAddr, err = net.ResolveUDPAddr("udp", addr); err != nil {
		return
	}
	_, err = ps.conn.WriteTo(pkt.Encode(), udpAddr)
	return
}
