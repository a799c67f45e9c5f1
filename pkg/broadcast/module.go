package broadcast

import (
	"bytes"
	"io"

	"github.com/campfire-gg/arcade/pkg/game"
	"github.com/campfire-gg/arcade/pkg/protocol"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/flate"
	"github.com/rs/zerolog/log"
)

// Transport moves opaque frames to the participants of a channel.
// The websocket hub in pkg/ingress is the reference implementation;
// a platform embedding this engine brings its own.
type Transport interface {
	BroadcastToChannel(channel string, msg []byte)
	SendToParticipant(channel string, participant string, msg []byte)
	IsMember(channel string, participant string) bool
}

// CompressThreshold is the encoded size above which a frame is
// deflate-compressed and wrapped in a PackedMessage.
const CompressThreshold = 1024

// Pack encodes a message with cbor, compressing it when it is large
// enough to be worth it. Incompressible payloads go out raw.
func Pack(message interface{}) ([]byte, error) {
	encoded, err := cbor.Marshal(message)
	if err != nil {
		return nil, err
	}
	if len(encoded) < CompressThreshold {
		return encoded, nil
	}

	var compressed bytes.Buffer
	writer, err := flate.NewWriter(&compressed, flate.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := writer.Write(encoded); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	if compressed.Len() >= len(encoded) {
		return encoded, nil
	}

	return cbor.Marshal(protocol.PackedMessage{
		Op:   protocol.PackedOp,
		Data: compressed.Bytes(),
	})
}

// Unpack undoes Pack: packed frames are inflated back to the inner
// message bytes, anything else passes through untouched.
func Unpack(msg []byte) ([]byte, error) {
	var packed protocol.PackedMessage
	if err := cbor.Unmarshal(msg, &packed); err != nil ||
		packed.Op != protocol.PackedOp {
		return msg, nil
	}

	reader := flate.NewReader(bytes.NewReader(packed.Data))
	defer reader.Close()
	return io.ReadAll(reader)
}

// Broadcaster turns session events into wire frames for a Transport.
type Broadcaster struct {
	transport Transport
}

var _ game.Relay = (*Broadcaster)(nil)

func New(transport Transport) *Broadcaster {
	return &Broadcaster{transport: transport}
}

func (b *Broadcaster) GameStarted(channel string, snapshot *protocol.Snapshot) {
	b.broadcast(channel, protocol.StartedMessage{
		Op:       protocol.StartedOp,
		Snapshot: *snapshot,
	})
}

func (b *Broadcaster) GameUpdate(channel string, snapshot *protocol.Snapshot) {
	b.broadcast(channel, protocol.UpdateMessage{
		Op:       protocol.UpdateOp,
		Snapshot: *snapshot,
	})
}

func (b *Broadcaster) GameEnded(channel string, message *protocol.EndedMessage) {
	b.broadcast(channel, *message)
}

// SendState delivers a personal full snapshot, as an update frame, to
// a single participant.
func (b *Broadcaster) SendState(channel string, participant string, snapshot *protocol.Snapshot) {
	frame, err := Pack(protocol.UpdateMessage{
		Op:       protocol.UpdateOp,
		Snapshot: *snapshot,
	})
	if err != nil {
		log.Error().Err(err).
			Str("channel", channel).
			Str("participant", participant).
			Msg("could not encode state frame")
		return
	}
	b.transport.SendToParticipant(channel, participant, frame)
}

func (b *Broadcaster) broadcast(channel string, message interface{}) {
	frame, err := Pack(message)
	if err != nil {
		log.Error().Err(err).
			Str("channel", channel).
			Msg("could not encode broadcast frame")
		return
	}
	b.transport.BroadcastToChannel(channel, frame)
}
