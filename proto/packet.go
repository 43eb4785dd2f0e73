package proto

import (
	"encoding/json"
	"fmt"
	"reflect"

	"postpunk.chat/punk/proto/snowflake"
)

type PacketType string

var (
	// Events delivered by the realtime transport.
	MessageEventType        = PacketType("message")
	MessageEditedEventType  = PacketType("message_edited")
	MessageDeletedEventType = PacketType("message_deleted")
	ConnectEventType        = PacketType("connect")
	DisconnectEventType     = PacketType("disconnect")

	// Commands emitted to the realtime transport.
	SendCommandType = PacketType("message")

	payloadMap = map[PacketType]reflect.Type{
		MessageEventType:        reflect.TypeOf(MessageEvent{}),
		MessageEditedEventType:  reflect.TypeOf(MessageEditedEvent{}),
		MessageDeletedEventType: reflect.TypeOf(MessageDeletedEvent{}),
		ConnectEventType:        reflect.TypeOf(ConnectEvent{}),
		DisconnectEventType:     reflect.TypeOf(DisconnectEvent{}),
	}
)

// A `message` event carries a new message posted to the room. The same
// event may be delivered more than once; receivers are expected to
// deduplicate by id.
type MessageEvent Message

// Validate enforces the fields an insertable message must carry. An
// event with no sender attribution at all is garbage; a message that
// is neither system chatter nor carries content or media is dropped.
func (e *MessageEvent) Validate() error {
	if e.Sender == nil {
		return ErrMalformedEvent
	}
	if !e.Sender.System() && e.Sender.Name == "" {
		return ErrMalformedEvent
	}
	return nil
}

// A `message_edited` event announces a content revision of a message
// already in the timeline.
type MessageEditedEvent struct {
	MessageID  snowflake.Snowflake `json:"message_id"`
	NewContent string              `json:"new_content"`
}

func (e *MessageEditedEvent) Validate() error {
	if e.MessageID.IsZero() {
		return ErrMalformedEvent
	}
	return nil
}

// A `message_deleted` event announces removal of a message, addressed
// by its position in the timeline.
type MessageDeletedEvent struct {
	MessageIndex *int `json:"message_index"`
}

func (e *MessageDeletedEvent) Validate() error {
	if e.MessageIndex == nil || *e.MessageIndex < 0 {
		return ErrMalformedEvent
	}
	return nil
}

// `connect` and `disconnect` describe transport liveness. They carry
// no payload and mutate no timeline state.
type ConnectEvent struct{}
type DisconnectEvent struct{}

// A SendCommand is the outgoing `message` emission. EditMessageID, when
// set, turns the command into a semantic edit of an existing message.
type SendCommand struct {
	Message       string              `json:"message"`
	Files         []MediaDescriptor   `json:"files,omitempty"`
	EditMessageID snowflake.Snowflake `json:"edit_message_id,omitempty"`
}

type Packet struct {
	Type PacketType      `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Payload decodes the packet body into its typed event variant. An
// unknown type or undecodable body yields ErrMalformedEvent; the bad
// packet is the caller's to drop and log, never a fatal condition.
func (p *Packet) Payload() (interface{}, error) {
	payloadType, ok := payloadMap[p.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown event type %q", ErrMalformedEvent, p.Type)
	}
	payload := reflect.New(payloadType).Interface()
	if payloadType.NumField() > 0 && len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, payload); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedEvent, err)
		}
	}
	if v, ok := payload.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func (p *Packet) Encode() ([]byte, error) { return json.Marshal(p) }

func MakeCommand(cmdType PacketType, payload interface{}) (*Packet, error) {
	packet := &Packet{Type: cmdType}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if err := packet.Data.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return packet, nil
}

func ParsePacket(data []byte) (*Packet, error) {
	packet := &Packet{}
	if err := json.Unmarshal(data, packet); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedEvent, err)
	}
	return packet, nil
}
