package client

import (
	"sync"

	"postpunk.chat/punk/proto"
	"postpunk.chat/punk/proto/snowflake"
)

// InsertResult reports the outcome of an insert. A replayed or
// content-free message is not an error, just not applied.
type InsertResult struct {
	Applied bool
	Index   int
}

// MessageStore holds the ordered, deduplicated timeline for one room
// session. Messages append in first-insertion order and stay put;
// edits and deletes mutate in place. All operations are idempotent, so
// at-least-once event delivery converges.
type MessageStore struct {
	sync.Mutex
	msgs  []*proto.Message
	index map[snowflake.Snowflake]int
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		msgs:  []*proto.Message{},
		index: map[snowflake.Snowflake]int{},
	}
}

// Insert appends a message to the end of the timeline. A message whose
// id is already present is a no-op (idempotent replay), as is a
// non-system message carrying neither content nor media. Messages
// arriving without an id get one derived from their timestamp; this is
// a degraded compatibility mode, not a primary key scheme.
func (s *MessageStore) Insert(msg proto.Message) InsertResult {
	s.Lock()
	defer s.Unlock()

	if !msg.HasContent() {
		return InsertResult{}
	}

	if msg.ID.IsZero() {
		msg.ID = snowflake.NewFromTime(msg.UnixTime.StdTime())
	}

	if _, ok := s.index[msg.ID]; ok {
		return InsertResult{}
	}

	stored := msg
	s.index[stored.ID] = len(s.msgs)
	s.msgs = append(s.msgs, &stored)
	timelineSize.Set(float64(len(s.msgs)))
	return InsertResult{Applied: true, Index: len(s.msgs) - 1}
}

// EditMessage replaces the content of the identified message and marks
// it edited. The message keeps its position in the timeline. Editing
// an unknown or already deleted message returns ErrMessageNotFound.
func (s *MessageStore) EditMessage(id snowflake.Snowflake, newContent string) error {
	s.Lock()
	defer s.Unlock()

	i, ok := s.index[id]
	if !ok || s.msgs[i].Deleted {
		return proto.ErrMessageNotFound
	}

	s.msgs[i].Content = newContent
	s.msgs[i].Edited = true
	return nil
}

// Delete tombstones the identified message. Deleting a message that is
// already deleted is a no-op; deletion never reverses.
func (s *MessageStore) Delete(id snowflake.Snowflake) error {
	s.Lock()
	defer s.Unlock()

	i, ok := s.index[id]
	if !ok {
		return proto.ErrMessageNotFound
	}
	s.msgs[i].Tombstone()
	return nil
}

// DeleteAt tombstones the message at the given timeline position. The
// realtime transport addresses deletions by index rather than id.
func (s *MessageStore) DeleteAt(index int) error {
	s.Lock()
	defer s.Unlock()

	if index < 0 || index >= len(s.msgs) {
		return proto.ErrMessageNotFound
	}
	s.msgs[index].Tombstone()
	return nil
}

// IDAt returns the id of the message at the given position.
func (s *MessageStore) IDAt(index int) (snowflake.Snowflake, bool) {
	s.Lock()
	defer s.Unlock()

	if index < 0 || index >= len(s.msgs) {
		return 0, false
	}
	return s.msgs[index].ID, true
}

// Get returns a copy of the identified message.
func (s *MessageStore) Get(id snowflake.Snowflake) (proto.Message, bool) {
	s.Lock()
	defer s.Unlock()

	i, ok := s.index[id]
	if !ok {
		return proto.Message{}, false
	}
	return *s.msgs[i], true
}

// Snapshot returns a copy of the full timeline in first-insertion
// order, for an initial render.
func (s *MessageStore) Snapshot() []proto.Message {
	s.Lock()
	defer s.Unlock()

	messages := make([]proto.Message, len(s.msgs))
	for i, msg := range s.msgs {
		messages[i] = *msg
	}
	return messages
}

func (s *MessageStore) Len() int {
	s.Lock()
	defer s.Unlock()
	return len(s.msgs)
}
