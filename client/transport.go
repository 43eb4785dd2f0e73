package client

import (
	"fmt"
	"sync"
	"time"

	"euphoria.io/scope"
	"github.com/gorilla/websocket"

	"postpunk.chat/punk/proto"
	"postpunk.chat/punk/proto/logging"
)

const MaxKeepAliveMisses = 3

var (
	KeepAlive       = 20 * time.Second
	ErrUnresponsive = fmt.Errorf("connection unresponsive")
)

// Transport is the bidirectional event channel to the room. Its
// reconnection policy is its own concern; the session only consumes
// packets and emits commands.
type Transport interface {
	// Receive delivers inbound packets in receipt order. The channel
	// closes when the transport shuts down.
	Receive() <-chan *proto.Packet
	Send(ctx scope.Context, packet *proto.Packet) error
	Close() error
}

// WSTransport speaks the room protocol over a websocket. A single read
// pump feeds Receive; writes are serialized by a mutex. Missed pongs
// tear the connection down.
type WSTransport struct {
	ctx  scope.Context
	conn *websocket.Conn

	sendMu   sync.Mutex
	incoming chan *proto.Packet

	outstandingPings uint32
	pingMu           sync.Mutex
}

func DialRoom(ctx scope.Context, url string) (*WSTransport, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	t := &WSTransport{
		ctx:      ctx,
		conn:     conn,
		incoming: make(chan *proto.Packet),
	}
	conn.SetPongHandler(t.handlePong)
	go t.readPump()
	go t.keepAlive()
	return t, nil
}

func (t *WSTransport) Receive() <-chan *proto.Packet { return t.incoming }

func (t *WSTransport) Send(ctx scope.Context, packet *proto.Packet) error {
	data, err := packet.Encode()
	if err != nil {
		return err
	}

	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *WSTransport) Close() error { return t.conn.Close() }

func (t *WSTransport) handlePong(string) error {
	t.pingMu.Lock()
	t.outstandingPings = 0
	t.pingMu.Unlock()
	return nil
}

func (t *WSTransport) readPump() {
	defer close(t.incoming)
	logger := logging.Logger(t.ctx)

	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			if !t.ctx.Alive() {
				return
			}
			logger.Printf("read error: %s", err)
			return
		}

		packet, err := proto.ParsePacket(data)
		if err != nil {
			// A single bad frame must not take down the session.
			logger.Printf("dropping frame: %s", err)
			eventsDropped.WithLabelValues("unparseable").Inc()
			continue
		}

		select {
		case t.incoming <- packet:
		case <-t.ctx.Done():
			return
		}
	}
}

func (t *WSTransport) keepAlive() {
	ticker := time.NewTicker(KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			t.conn.Close()
			return
		case <-ticker.C:
			t.pingMu.Lock()
			t.outstandingPings++
			misses := t.outstandingPings
			t.pingMu.Unlock()
			if misses > MaxKeepAliveMisses {
				logging.Logger(t.ctx).Printf("closing: %s", ErrUnresponsive)
				t.conn.Close()
				return
			}

			t.sendMu.Lock()
			err := t.conn.WriteMessage(websocket.PingMessage, nil)
			t.sendMu.Unlock()
			if err != nil {
				t.conn.Close()
				return
			}
		}
	}
}
