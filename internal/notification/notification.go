// Package notification queues and delivers the draw engine's outbound
// messages. Delivery is decoupled from the caller so a slow consumer never
// blocks a draw run.
package notification

import (
	"sync"
	"time"

	"github.com/nantokaworks/draw-bot/internal/shared/logger"
	"go.uber.org/zap"
)

// Message is one outbound room notification.
type Message struct {
	RoomID    int64     `json:"room_id"`
	ChannelID int64     `json:"channel_id"`
	Text      string    `json:"text"`
	SentAt    time.Time `json:"sent_at"`
}

// Sink receives messages in order. The webserver installs the websocket
// broadcast here; tests install a capture function.
type Sink func(Message)

// Notifier implements draw.Notifier on top of a buffered queue.
type Notifier struct {
	queue chan Message
	done  chan struct{}

	mu   sync.RWMutex
	sink Sink
}

const queueCapacity = 100

// New creates a notifier and starts its delivery goroutine.
func New(sink Sink) *Notifier {
	n := &Notifier{
		queue: make(chan Message, queueCapacity),
		done:  make(chan struct{}),
		sink:  sink,
	}
	go n.deliver()
	return n
}

// SetSink replaces the delivery sink.
func (n *Notifier) SetSink(sink Sink) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sink = sink
}

// Notify enqueues one message for the room's output channel. When the
// queue is full the message is dropped rather than blocking the draw.
func (n *Notifier) Notify(roomID, channelID int64, text string) {
	msg := Message{
		RoomID:    roomID,
		ChannelID: channelID,
		Text:      text,
		SentAt:    time.Now(),
	}

	select {
	case n.queue <- msg:
	default:
		logger.Warn("Notification queue full, dropping message",
			zap.Int64("room_id", roomID))
	}
}

func (n *Notifier) deliver() {
	for {
		select {
		case msg := <-n.queue:
			logger.Info("Delivering room notification",
				zap.Int64("room_id", msg.RoomID),
				zap.Int64("channel_id", msg.ChannelID),
				zap.String("text", msg.Text))

			n.mu.RLock()
			sink := n.sink
			n.mu.RUnlock()
			if sink != nil {
				sink(msg)
			}
		case <-n.done:
			return
		}
	}
}

// Close stops the delivery goroutine. Queued but undelivered messages are
// discarded.
func (n *Notifier) Close() {
	close(n.done)
}
