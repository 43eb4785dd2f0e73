package client

import (
	"errors"
	"fmt"
	"time"

	"euphoria.io/scope"

	"postpunk.chat/punk/proto"
	"postpunk.chat/punk/proto/logging"
	"postpunk.chat/punk/proto/snowflake"
)

// NoticeTTL is how long a transient user notification stays up before
// the presentation shell dismisses it.
const NoticeTTL = 3 * time.Second

// A Notice is a transient, auto-dismissing user notification. Send
// rejections and transport failures surface this way; they are never
// silently swallowed and never fatal.
type Notice struct {
	Text    string
	Expires time.Time
}

// A Diff tells the presentation shell what changed in the timeline as
// the result of one event. Updated covers in-place mutations (edits
// and tombstoned deletes).
type Diff struct {
	Inserted       []snowflake.Snowflake
	Updated        []snowflake.Snowflake
	ScrollToBottom bool
}

func (d *Diff) empty() bool { return len(d.Inserted) == 0 && len(d.Updated) == 0 }

// Session composes the message store, send governor, and media
// viewport for one room session. It owns all of their references
// explicitly; there is no ambient shared state. Inbound events flow
// through HandleEvent into the store, user submissions flow through
// Submit and the governor out to the transport, and the viewport is
// created per activated media item.
type Session struct {
	ctx       scope.Context
	cfg       ClientConfig
	store     *MessageStore
	governor  *SendGovernor
	transport Transport
	uploader  *Uploader

	viewport *Viewport
	gestures *Gestures

	atBottom  bool
	editingID snowflake.Snowflake

	// OnDiff is invoked by Serve for every applied event. OnNotice
	// receives transient user notifications. Both are optional.
	OnDiff   func(Diff)
	OnNotice func(Notice)
}

func NewSession(ctx scope.Context, cfg ClientConfig, transport Transport) *Session {
	return &Session{
		ctx:       ctx,
		cfg:       cfg,
		store:     NewMessageStore(),
		governor:  NewSendGovernor(cfg.Send),
		transport: transport,
		uploader:  NewUploader(cfg.Room, cfg.Upload),
		atBottom:  true,
	}
}

func (s *Session) Store() *MessageStore    { return s.store }
func (s *Session) Governor() *SendGovernor { return s.governor }
func (s *Session) Uploader() *Uploader     { return s.uploader }

// LoadBacklog replays the initial message batch through the store in
// order. Later events arrive via the transport and converge with the
// backlog thanks to id-keyed idempotence.
func (s *Session) LoadBacklog(backlog []proto.Message) Diff {
	diff := Diff{ScrollToBottom: true}
	for _, msg := range backlog {
		if res := s.store.Insert(msg); res.Applied {
			if id, ok := s.store.IDAt(res.Index); ok {
				diff.Inserted = append(diff.Inserted, id)
			}
		}
	}
	return diff
}

// HandleEvent validates one inbound packet and applies it to the
// store, returning the render diff. Malformed events and events whose
// target is missing are dropped and logged; they never corrupt the
// timeline and never halt the session.
func (s *Session) HandleEvent(packet *proto.Packet) (Diff, error) {
	logger := logging.Logger(s.ctx)

	payload, err := packet.Payload()
	if err != nil {
		logger.Printf("dropping event: %s", err)
		eventsDropped.WithLabelValues("malformed").Inc()
		return Diff{}, err
	}

	switch event := payload.(type) {
	case *proto.MessageEvent:
		res := s.store.Insert(proto.Message(*event))
		if !res.Applied {
			eventsDropped.WithLabelValues("duplicate").Inc()
			return Diff{}, nil
		}
		eventsApplied.WithLabelValues("message").Inc()
		id, _ := s.store.IDAt(res.Index)
		return Diff{Inserted: []snowflake.Snowflake{id}, ScrollToBottom: s.atBottom}, nil

	case *proto.MessageEditedEvent:
		if err := s.store.EditMessage(event.MessageID, event.NewContent); err != nil {
			logger.Printf("dropping edit of %s: %s", event.MessageID, err)
			eventsDropped.WithLabelValues("not_found").Inc()
			return Diff{}, err
		}
		eventsApplied.WithLabelValues("message_edited").Inc()
		return Diff{Updated: []snowflake.Snowflake{event.MessageID}}, nil

	case *proto.MessageDeletedEvent:
		index := *event.MessageIndex
		id, ok := s.store.IDAt(index)
		if !ok {
			logger.Printf("dropping delete of index %d: %s", index, proto.ErrMessageNotFound)
			eventsDropped.WithLabelValues("not_found").Inc()
			return Diff{}, proto.ErrMessageNotFound
		}
		// idempotent; repeated deletes land on the same tombstone
		s.store.DeleteAt(index)
		eventsApplied.WithLabelValues("message_deleted").Inc()
		return Diff{Updated: []snowflake.Snowflake{id}}, nil

	case *proto.ConnectEvent:
		logger.Printf("transport connected")
		return Diff{}, nil

	case *proto.DisconnectEvent:
		logger.Printf("transport disconnected")
		return Diff{}, nil
	}

	eventsDropped.WithLabelValues("malformed").Inc()
	return Diff{}, proto.ErrMalformedEvent
}

// Serve consumes transport events until the context terminates or the
// transport closes. All timeline mutation happens here, in receipt
// order, one event at a time.
func (s *Session) Serve() error {
	for {
		select {
		case <-s.ctx.Done():
			return s.ctx.Err()
		case packet, ok := <-s.transport.Receive():
			if !ok {
				return nil
			}
			diff, err := s.HandleEvent(packet)
			if err != nil {
				continue
			}
			if s.OnDiff != nil && !diff.empty() {
				s.OnDiff(diff)
			}
		}
	}
}

// Submit routes a user submission through the governor and, on
// acceptance, emits it to the transport. When an edit is in progress
// the emission carries the edited message's id, turning the insert
// into a semantic edit request. Rejections surface as notices and are
// returned to the caller; the session keeps running either way.
func (s *Session) Submit(content string, files []proto.MediaDescriptor) error {
	if content == "" && len(files) == 0 {
		return proto.ErrEmptyMessage
	}

	decision := s.governor.OnSendAttempt(MessageLength(content))
	if !decision.Accepted {
		s.notifyRejection(decision)
		return decision.Reason
	}

	cmd := proto.SendCommand{
		Message:       content,
		Files:         files,
		EditMessageID: s.editingID,
	}
	packet, err := proto.MakeCommand(proto.SendCommandType, cmd)
	if err != nil {
		return err
	}

	if err := s.transport.Send(s.ctx, packet); err != nil {
		logging.Logger(s.ctx).Printf("send failed: %s", err)
		s.notify("Send failed. Your message was not delivered; try again.")
		return err
	}

	s.editingID = 0
	return nil
}

// UploadFiles pushes a batch through the upload service. The result
// belongs to whatever the user is composing right now; if the editing
// context has moved on by the time a slow response lands, the caller
// discards it.
func (s *Session) UploadFiles(ctx scope.Context, files []UploadRequest) ([]proto.MediaDescriptor, error) {
	descs, err := s.uploader.UploadBatch(ctx, files)
	if err != nil {
		if errors.Is(err, proto.ErrFileTooLarge) {
			s.notify(fmt.Sprintf("File too large. The limit is %d MB per upload.", s.cfg.Upload.MaxBytes/(1024*1024)))
		} else {
			s.notify("Upload failed. Re-select the file to try again.")
		}
		return nil, err
	}
	return descs, nil
}

// BeginEdit marks a message as being revised locally. Nothing is sent
// until the user submits.
func (s *Session) BeginEdit(id snowflake.Snowflake) error {
	msg, ok := s.store.Get(id)
	if !ok || msg.Deleted {
		return proto.ErrMessageNotFound
	}
	s.editingID = id
	return nil
}

func (s *Session) CancelEdit()                    { s.editingID = 0 }
func (s *Session) EditingID() snowflake.Snowflake { return s.editingID }

// SetAtBottom records whether the presentation scroll position is
// pinned to the newest message; inserts auto-scroll only when it is.
func (s *Session) SetAtBottom(atBottom bool) { s.atBottom = atBottom }
func (s *Session) AtBottom() bool            { return s.atBottom }

// OpenViewer activates the pan/zoom viewer for one media item. Any
// previously open viewer state is discarded.
func (s *Session) OpenViewer(media proto.MediaDescriptor, viewer Rect) *Viewport {
	content := Rect{Width: float64(media.Width), Height: float64(media.Height)}
	if content.Width == 0 || content.Height == 0 {
		content = viewer
	}
	s.viewport = NewViewport(s.cfg.Zoom, viewer, content)
	s.gestures = NewGestures(s.viewport)
	return s.viewport
}

func (s *Session) CloseViewer() {
	s.viewport = nil
	s.gestures = nil
}

func (s *Session) Viewer() (*Viewport, *Gestures, error) {
	if s.viewport == nil {
		return nil, nil, proto.ErrViewerClosed
	}
	return s.viewport, s.gestures, nil
}

func (s *Session) notifyRejection(decision SendDecision) {
	switch {
	case errors.Is(decision.Reason, proto.ErrMessageTooLong):
		s.notify(fmt.Sprintf("Message too long. The limit is %d characters.", s.cfg.Send.MaxMessageLength))
	case errors.Is(decision.Reason, proto.ErrSendCooldown):
		s.notify("Slow down. " + decision.Remaining.Round(100*time.Millisecond).String() + " left on cooldown.")
	default:
		s.notify(decision.Reason.Error())
	}
}

func (s *Session) notify(text string) {
	notice := Notice{Text: text, Expires: time.Now().Add(NoticeTTL)}
	if s.OnNotice != nil {
		s.OnNotice(notice)
		return
	}
	logging.Logger(s.ctx).Printf("notice: %s", text)
}
