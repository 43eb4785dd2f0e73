package proto

import (
	"encoding/json"

	"postpunk.chat/punk/proto/snowflake"
)

// TombstoneContent replaces the body of a deleted message. Once a
// message is tombstoned its original content and media are gone for
// good.
const TombstoneContent = "message deleted"

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
	MediaFile  MediaKind = "file"
)

func (k MediaKind) Valid() bool {
	switch k {
	case MediaImage, MediaVideo, MediaAudio, MediaFile:
		return true
	}
	return false
}

// A MediaDescriptor points at an uploaded attachment. Width and Height
// are only populated for visual media.
type MediaDescriptor struct {
	URL    string    `json:"url"`
	Kind   MediaKind `json:"kind"`
	Name   string    `json:"name"`
	Size   uint64    `json:"size"`
	Width  int       `json:"width,omitempty"`
	Height int       `json:"height,omitempty"`
}

// A Message is a node in the room's timeline. It corresponds to a chat
// message, or any broadcasted event that should appear in the log.
type Message struct {
	ID       snowflake.Snowflake `json:"id"`
	UnixTime Time                `json:"time"`
	Sender   *IdentityView       `json:"sender"`
	Content  string              `json:"content"`
	Media    []MediaDescriptor   `json:"files,omitempty"`
	Edited   bool                `json:"edited,omitempty"`
	Deleted  bool                `json:"deleted,omitempty"`
}

func (msg *Message) Encode() ([]byte, error) { return json.Marshal(msg) }

// HasContent reports whether the message carries anything worth
// rendering. System messages are always considered renderable.
func (msg *Message) HasContent() bool {
	if msg.Sender.System() {
		return true
	}
	return msg.Content != "" || len(msg.Media) > 0
}

// Tombstone marks the message deleted and scrubs its content and
// media. Deletion is monotonic; there is no way back.
func (msg *Message) Tombstone() {
	msg.Deleted = true
	msg.Content = TombstoneContent
	msg.Media = nil
}
