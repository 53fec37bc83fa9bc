package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/smegmarip/live-recognition/internal/notify"
	"github.com/smegmarip/live-recognition/internal/session"
)

const (
	writeTimeout     = 5 * time.Second
	subscriberBuffer = 32
)

// MessageType distinguishes websocket messages
type MessageType string

const (
	MessageSnapshot MessageType = "snapshot"
	MessageSession  MessageType = "session"
	MessageToast    MessageType = "toast"
)

// Message is one websocket frame sent to subscribers
type Message struct {
	Type MessageType `json:"type"`
	Data any         `json:"data"`
}

type subscriber struct {
	ch chan Message
}

// EventBroadcaster fans controller and toast events out to websocket
// subscribers. Slow subscribers lose messages rather than stall the
// controller.
type EventBroadcaster struct {
	ctrl        Controller
	events      chan session.Event
	toasts      chan notify.Event
	mu          sync.RWMutex
	subscribers map[string]*subscriber
}

// NewEventBroadcaster attaches a broadcaster to ctrl. Events are buffered
// until Run starts forwarding them.
func NewEventBroadcaster(ctrl Controller) *EventBroadcaster {
	return &EventBroadcaster{
		ctrl:        ctrl,
		events:      ctrl.AddListener(),
		toasts:      ctrl.Toasts().AddListener(),
		subscribers: make(map[string]*subscriber),
	}
}

// Run forwards events until ctx is done, then detaches from the controller
// and disconnects every subscriber
func (b *EventBroadcaster) Run(ctx context.Context) {
	events, toasts := b.events, b.toasts
	defer b.ctrl.RemoveListener(events)
	defer b.ctrl.Toasts().RemoveListener(toasts)
	defer b.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.broadcast(Message{Type: MessageSession, Data: ev})
		case ev, ok := <-toasts:
			if !ok {
				return
			}
			b.broadcast(Message{Type: MessageToast, Data: ev})
		}
	}
}

// Subscribe registers a new subscriber and returns its id and channel
func (b *EventBroadcaster) Subscribe() (string, <-chan Message) {
	id := uuid.NewString()
	sub := &subscriber{ch: make(chan Message, subscriberBuffer)}

	b.mu.Lock()
	b.subscribers[id] = sub
	b.mu.Unlock()

	log.Debugf("Event subscription %s added", id)
	return id, sub.ch
}

// Unsubscribe removes a subscriber and closes its channel
func (b *EventBroadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	sub, ok := b.subscribers[id]
	delete(b.subscribers, id)
	b.mu.Unlock()

	if ok {
		close(sub.ch)
		log.Debugf("Event subscription %s removed", id)
	}
}

// Subscribers returns the number of connected subscribers
func (b *EventBroadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *EventBroadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}

func (b *EventBroadcaster) broadcast(msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, sub := range b.subscribers {
		select {
		case sub.ch <- msg:
		default:
			log.Debugf("Dropping %s event for slow subscriber %s", msg.Type, id)
		}
	}
}

// events upgrades to a websocket, sends the current snapshot, then streams
// session and toast events until the client goes away
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warnf("Failed to accept websocket: %v", err)
		return
	}
	defer conn.CloseNow()

	id, ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(id)

	ctx := conn.CloseRead(r.Context())

	if err := sendMessage(ctx, conn, Message{Type: MessageSnapshot, Data: s.ctrl.Snapshot()}); err != nil {
		log.Debugf("Failed to send initial snapshot to %s: %v", id, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := sendMessage(ctx, conn, msg); err != nil {
				log.Debugf("Failed to send %s event to %s: %v", msg.Type, id, err)
				return
			}
		}
	}
}

func sendMessage(ctx context.Context, conn *websocket.Conn, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
