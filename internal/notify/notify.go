// Package notify delivers operator-facing feedback: toasts, the new-order
// alert sound, and board change events.
package notify

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tableside/console/internal/enum"
	"github.com/tableside/console/internal/ws"
)

// Notifier is implemented by every feedback sink.
type Notifier interface {
	Toast(level, message string)
	Alert()
	Publish(eventType string, payload any)
}

// Toast is the payload of an enum.EventToast event.
type Toast struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Alert is the payload of an enum.EventAlert event.
type Alert struct {
	Sound string `json:"sound"`
}

// LogNotifier writes feedback to the log.
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (n LogNotifier) Toast(level, message string) {
	entry := n.Log.WithField("level_hint", level)
	if level == enum.LevelError {
		entry.Warn(message)
		return
	}
	entry.Info(message)
}

func (n LogNotifier) Alert() {
	n.Log.Info("new order alert")
}

func (n LogNotifier) Publish(eventType string, _ any) {
	n.Log.WithField("event", eventType).Debug("board event")
}

// Broadcaster is the part of ws.Hub the HubNotifier needs.
type Broadcaster interface {
	BroadcastTo(topic string, event ws.Event)
}

// HubNotifier fans feedback out to connected views on one topic.
type HubNotifier struct {
	hub   Broadcaster
	topic string
	sound string
	log   logrus.FieldLogger
}

// NewHubNotifier builds a HubNotifier. sound is the asset path views play
// on Alert.
func NewHubNotifier(hub Broadcaster, topic, sound string, log logrus.FieldLogger) *HubNotifier {
	return &HubNotifier{hub: hub, topic: topic, sound: sound, log: log}
}

func (n *HubNotifier) Toast(level, message string) {
	n.Publish(enum.EventToast, Toast{Level: level, Message: message})
}

func (n *HubNotifier) Alert() {
	n.Publish(enum.EventAlert, Alert{Sound: n.sound})
}

func (n *HubNotifier) Publish(eventType string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		n.log.WithError(err).WithField("event", eventType).Error("marshal notification")
		return
	}
	n.hub.BroadcastTo(n.topic, ws.Event{Type: eventType, Payload: b})
}

// Multi sends to every notifier in order.
type Multi []Notifier

func (m Multi) Toast(level, message string) {
	for _, n := range m {
		n.Toast(level, message)
	}
}

func (m Multi) Alert() {
	for _, n := range m {
		n.Alert()
	}
}

func (m Multi) Publish(eventType string, payload any) {
	for _, n := range m {
		n.Publish(eventType, payload)
	}
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
	alerts int
	events []string
}

func (r *Recorder) Toast(level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, Toast{Level: level, Message: message})
}

func (r *Recorder) Alert() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts++
}

func (r *Recorder) Publish(eventType string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
}

// Toasts returns the recorded toasts.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Alerts returns how many alerts were raised.
func (r *Recorder) Alerts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alerts
}

// Events returns the published event types.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}
