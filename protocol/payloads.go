package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	PositionSize    = 8
	PlayerStateSize = ClientIDSize + PositionSize
)

// Position is a 2D world coordinate. Encodes to two big-endian IEEE-754
// 32-bit floats, x then y.
type Position struct {
	X float32
	Y float32
}

func (pos Position) Encode() []byte {
	buf := make([]byte, PositionSize)
	binary.BigEndian.PutUint32(buf[0:4], math.Float32bits(pos.X))
	binary.BigEndian.PutUint32(buf[4:8], math.Float32bits(pos.Y))
	return buf
}

func DecodePosition(data []byte) (pos Position, err error) {
	if len(data) < PositionSize {
		err = fmt.Errorf("%w: position needs %d bytes, got %d", ErrShortPayload, PositionSize, len(data))
		return
	}
	pos.X = math.Float32frombits(binary.BigEndian.Uint32(data[0:4]))
	pos.Y = math.Float32frombits(binary.BigEndian.Uint32(data[4:8]))
	return
}

// PlayerState pairs a player id with a position. It is the record shape used
// by the ConnectionInit roster reply, the PlayerJoin announcement and the
// PositionUpdate broadcast payload.
type PlayerState struct {
	ID       ClientID
	Position Position
}

func (ps PlayerState) Encode() []byte {
	buf := make([]byte, 0, PlayerStateSize)
	buf = append(buf, ps.ID[:]...)
	buf = append(buf, ps.Position.Encode()...)
	return buf
}

func DecodePlayerState(data []byte) (ps PlayerState, err error) {
	if len(data) < PlayerStateSize {
		err = fmt.Errorf("%w: player state needs %d bytes, got %d", ErrShortPayload, PlayerStateSize, len(data))
		return
	}
	copy(ps.ID[:], data[:ClientIDSize])
	ps.Position, err = DecodePosition(data[ClientIDSize:])
	return
}

// EncodeRoster concatenates one PlayerState record per player. An empty
// roster encodes to no bytes.
func EncodeRoster(states []PlayerState) []byte {
	if len(states) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(states)*PlayerStateSize)
	for _, ps := range states {
		buf = append(buf, ps.Encode()...)
	}
	return buf
}

func DecodeRoster(data []byte) (states []PlayerState, err error) {
	if len(data)%PlayerStateSize != 0 {
		err = fmt.Errorf("%w: roster is not a multiple of %d bytes", ErrShortPayload, PlayerStateSize)
		return
	}
	for off := 0; off < len(data); off += PlayerStateSize {
		var ps PlayerState
		if ps, err = DecodePlayerState(data[off : off+PlayerStateSize]); err != nil {
			return
		}
		states = append(states, ps)
	}
	return
}

// EncodePlayerLeft builds the PlayerLeft payload: the departing player's id.
func EncodePlayerLeft(id ClientID) []byte {
	buf := make([]byte, ClientIDSize)
	copy(buf, id[:])
	return buf
}

func DecodePlayerLeft(data []byte) (id ClientID, err error) {
	if len(data) < ClientIDSize {
		err = fmt.Errorf("%w: player left needs %d bytes, got %d", ErrShortPayload, ClientIDSize, len(data))
		return
	}
	copy(id[:], data[:ClientIDSize])
	return
}
