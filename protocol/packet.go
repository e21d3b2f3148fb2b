package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// The wire format is a fixed 24 byte header followed by a variable payload.
// All multi-byte fields are big-endian.
//
//	offset 0   1 byte   message type
//	offset 1   1 byte   version
//	offset 2   18 bytes client id (ASCII)
//	offset 20  4 bytes  sequence number
//	offset 24  ...      payload
const (
	Version      = 1
	ClientIDSize = 18
	HeaderSize   = 24
)

var (
	ErrTruncatedHeader    = errors.New("datagram shorter than packet header")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrShortPayload       = errors.New("payload too short")
	ErrBadClientID        = errors.New("client id must be 18 bytes")
)

type MessageType uint8

const (
	PositionUpdate        MessageType = 0x01
	ChatMessage           MessageType = 0x02
	Heartbeat             MessageType = 0x03
	ConnectionInit        MessageType = 0x04
	PlayerJoin            MessageType = 0x05
	ConfirmPlayerMovement MessageType = 0x06
	PlayerLeft            MessageType = 0x07
)

func (mt MessageType) valid() bool {
	return mt >= PositionUpdate && mt <= PlayerLeft
}

func (mt MessageType) String() string {
	switch mt {
	case PositionUpdate:
		return "PositionUpdate"
	case ChatMessage:
		return "ChatMessage"
	case Heartbeat:
		return "Heartbeat"
	case ConnectionInit:
		return "ConnectionInit"
	case PlayerJoin:
		return "PlayerJoin"
	case ConfirmPlayerMovement:
		return "ConfirmPlayerMovement"
	case PlayerLeft:
		return "PlayerLeft"
	}
	return fmt.Sprintf("MessageType(0x%02x)", uint8(mt))
}

// ClientID is the fixed-width player identifier carried in every packet header.
type ClientID [ClientIDSize]byte

func NewClientID(s string) (id ClientID, err error) {
	if len(s) != ClientIDSize {
		err = ErrBadClientID
		return
	}
	copy(id[:], s)
	return
}

func (id ClientID) String() string {
	return string(id[:])
}

// Packet is one decoded wire frame.
//
// The ClientID field is direction dependent: on client-to-server packets it is
// the sender's claimed id, on server-to-client packets it is the id of the
// player the datagram is addressed to. Use ClaimedSender and NewServerPacket
// rather than reading or populating the field directly.
type Packet struct {
	Type     MessageType
	Version  uint8
	ClientID ClientID
	Seq      uint32
	Payload  []byte
}

// NewServerPacket builds a server-originated packet addressed to recipient.
func NewServerPacket(t MessageType, recipient ClientID, seq uint32, payload []byte) Packet {
	return Packet{
		Type:     t,
		Version:  Version,
		ClientID: recipient,
		Seq:      seq,
		Payload:  payload,
	}
}

// ClaimedSender returns the sender id claimed by an inbound packet. The claim
// is not authenticated against the transport source address.
func (p Packet) ClaimedSender() ClientID {
	return p.ClientID
}

func (p Packet) Encode() []byte {
	buf := make([]byte, HeaderSize+len(p.Payload))
	buf[0] = byte(p.Type)
	buf[1] = p.Version
	copy(buf[2:20], p.ClientID[:])
	binary.BigEndian.PutUint32(buf[20:24], p.Seq)
	copy(buf[HeaderSize:], p.Payload)
	return buf
}

func Decode(data []byte) (p Packet, err error) {
	if len(data) < HeaderSize {
		err = ErrTruncatedHeader
		return
	}
	p.Type = MessageType(data[0])
	if !p.Type.valid() {
		err = fmt.Errorf("%w: 0x%02x", ErrUnknownMessageType, data[0])
		return
	}
	p.Version = data[1]
	copy(p.ClientID[:], data[2:20])
	p.Seq = binary.BigEndian.Uint32(data[20:24])
	if len(data) > HeaderSize {
		p.Payload = append(p.Payload, data[HeaderSize:]...)
	}
	return
}
