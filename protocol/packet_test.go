package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gunnermanx/positionrelay/protocol"
)

func mustID(t *testing.T, s string) protocol.ClientID {
	t.Helper()
	id, err := protocol.NewClientID(s)
	require.NoError(t, err)
	return id
}

func TestClientID(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		id, err := protocol.NewClientID("abcdefghijklmnopqr")
		require.NoError(t, err)
		require.Equal(t, "abcdefghijklmnopqr", id.String())
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := protocol.NewClientID("too short")
		require.ErrorIs(t, err, protocol.ErrBadClientID)
	})
}

func TestPacketCodec(t *testing.T) {
	id := mustID(t, "abcdefghijklmnopqr")

	t.Run("round trip", func(t *testing.T) {
		packets := []protocol.Packet{
			protocol.NewServerPacket(protocol.PositionUpdate, id, 42, []byte{1, 2, 3, 4, 5, 6, 7, 8}),
			protocol.NewServerPacket(protocol.ConnectionInit, id, 1, []byte("some roster bytes")),
			protocol.NewServerPacket(protocol.PlayerJoin, id, 7, protocol.EncodePlayerLeft(id)),
			protocol.NewServerPacket(protocol.PlayerLeft, id, 0, protocol.EncodePlayerLeft(id)),
			protocol.NewServerPacket(protocol.ChatMessage, id, 9000, []byte("hello")),
			protocol.NewServerPacket(protocol.ConfirmPlayerMovement, id, 3, []byte{0xff}),
		}
		for _, p := range packets {
			decoded, err := protocol.Decode(p.Encode())
			require.NoError(t, err)
			require.Equal(t, p, decoded)
		}
	})

	t.Run("round trip empty payload", func(t *testing.T) {
		p := protocol.NewServerPacket(protocol.Heartbeat, id, 0, nil)
		data := p.Encode()
		require.Len(t, data, protocol.HeaderSize)

		decoded, err := protocol.Decode(data)
		require.NoError(t, err)
		require.Equal(t, p, decoded)
	})

	t.Run("truncated header", func(t *testing.T) {
		_, err := protocol.Decode(nil)
		require.ErrorIs(t, err, protocol.ErrTruncatedHeader)

		_, err = protocol.Decode(make([]byte, protocol.HeaderSize-1))
		require.ErrorIs(t, err, protocol.ErrTruncatedHeader)
	})

	t.Run("unknown message type", func(t *testing.T) {
		data := protocol.NewServerPacket(protocol.Heartbeat, id, 0, nil).Encode()
		data[0] = 0x99
		_, err := protocol.Decode(data)
		require.ErrorIs(t, err, protocol.ErrUnknownMessageType)

		data[0] = 0x00
		_, err = protocol.Decode(data)
		require.ErrorIs(t, err, protocol.ErrUnknownMessageType)
	})
}

func TestPositionCodec(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		positions := []protocol.Position{
			{X: 0, Y: 0},
			{X: 100.0, Y: 200.0},
			{X: 600.0, Y: 700.0},
			{X: -1.5, Y: 0.25},
			{X: 123456.78, Y: -0.000321},
		}
		for _, pos := range positions {
			decoded, err := protocol.DecodePosition(pos.Encode())
			require.NoError(t, err)
			require.Equal(t, pos, decoded)
		}
	})

	t.Run("big endian layout", func(t *testing.T) {
		data := protocol.Position{X: 1.0, Y: -2.0}.Encode()
		require.Equal(t, []byte{0x3f, 0x80, 0x00, 0x00, 0xc0, 0x00, 0x00, 0x00}, data)
	})

	t.Run("short payload", func(t *testing.T) {
		_, err := protocol.DecodePosition(make([]byte, protocol.PositionSize-1))
		require.ErrorIs(t, err, protocol.ErrShortPayload)
	})
}

func TestPlayerStateCodec(t *testing.T) {
	id := mustID(t, "123456789012345678")
	ps := protocol.PlayerState{ID: id, Position: protocol.Position{X: 10.5, Y: -20.25}}

	t.Run("round trip", func(t *testing.T) {
		data := ps.Encode()
		require.Len(t, data, protocol.PlayerStateSize)

		decoded, err := protocol.DecodePlayerState(data)
		require.NoError(t, err)
		require.Equal(t, ps, decoded)
	})

	t.Run("short payload", func(t *testing.T) {
		_, err := protocol.DecodePlayerState(ps.Encode()[:protocol.PlayerStateSize-1])
		require.ErrorIs(t, err, protocol.ErrShortPayload)
	})
}

func TestRosterCodec(t *testing.T) {
	t.Run("empty roster encodes to no bytes", func(t *testing.T) {
		require.Nil(t, protocol.EncodeRoster(nil))

		states, err := protocol.DecodeRoster(nil)
		require.NoError(t, err)
		require.Empty(t, states)
	})

	t.Run("round trip", func(t *testing.T) {
		roster := []protocol.PlayerState{
			{ID: mustID(t, "aaaaaaaaaaaaaaaaaa"), Position: protocol.Position{X: 1, Y: 2}},
			{ID: mustID(t, "bbbbbbbbbbbbbbbbbb"), Position: protocol.Position{X: 3, Y: 4}},
			{ID: mustID(t, "cccccccccccccccccc"), Position: protocol.Position{X: 5, Y: 6}},
		}
		data := protocol.EncodeRoster(roster)
		require.Len(t, data, 3*protocol.PlayerStateSize)

		decoded, err := protocol.DecodeRoster(data)
		require.NoError(t, err)
		require.Equal(t, roster, decoded)
	})

	t.Run("partial record", func(t *testing.T) {
		data := protocol.EncodeRoster([]protocol.PlayerState{{ID: mustID(t, "aaaaaaaaaaaaaaaaaa")}})
		_, err := protocol.DecodeRoster(data[:len(data)-1])
		require.ErrorIs(t, err, protocol.ErrShortPayload)
	})
}

func TestPlayerLeftCodec(t *testing.T) {
	id := mustID(t, "departing-player-1")

	t.Run("round trip", func(t *testing.T) {
		data := protocol.EncodePlayerLeft(id)
		require.Len(t, data, protocol.ClientIDSize)

		decoded, err := protocol.DecodePlayerLeft(data)
		require.NoError(t, err)
		require.Equal(t, id, decoded)
	})

	t.Run("short payload", func(t *testing.T) {
		_, err := protocol.DecodePlayerLeft(make([]byte, protocol.ClientIDSize-1))
		require.ErrorIs(t, err, protocol.ErrShortPayload)
	})
}
