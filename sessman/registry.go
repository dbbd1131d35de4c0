// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package sessman

import (
	"sync"

	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
	"github.com/flyvercity/iot-ngin-c2ng/internal/metrics"
)

// Subscriber receives notification frames for one (UasID, Segment)
type Subscriber interface {
	Notify(notification Notification) error
}

// Registry is the per-(UasID, Segment) table of live notification
// subscribers. Each key holds at most one subscriber; the last
// subscribe wins.
type Registry struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
}

// NewRegistry creates an empty subscriber registry
func NewRegistry() *Registry {
	return &Registry{
		subscribers: make(map[string]Subscriber),
	}
}

func subID(uasid, segment string) string {
	return uasid + "::" + segment
}

// Subscribe registers a subscriber, replacing any existing one
func (r *Registry) Subscribe(uasid, segment string, subscriber Subscriber) {
	key := subID(uasid, segment)
	logger.Info("Subscribing", logger.String("subscription", key))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, replaced := r.subscribers[key]; !replaced {
		metrics.SubscribersActive.Inc()
	}

	r.subscribers[key] = subscriber
}

// Unsubscribe removes a subscription, tolerant of missing entries
func (r *Registry) Unsubscribe(uasid, segment string) {
	key := subID(uasid, segment)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subscribers[key]; ok {
		logger.Info("Unsubscribing", logger.String("subscription", key))
		delete(r.subscribers, key)
		metrics.SubscribersActive.Dec()
	} else {
		logger.Info("No subscriber to unsubscribe", logger.String("subscription", key))
	}
}

// Notify pushes an event to the registered subscriber if any. Delivery
// is best-effort: transport failures are logged, never retried.
func (r *Registry) Notify(uasid, segment, event string) {
	key := subID(uasid, segment)

	r.mu.RLock()
	subscriber := r.subscribers[key]
	r.mu.RUnlock()

	if subscriber == nil {
		logger.Info("No subscriber", logger.String("subscription", key))
		return
	}

	logger.Info("Notifying",
		logger.String("subscription", key),
		logger.String("event", event))

	notification := Notification{Action: "notification", Event: event}

	if err := subscriber.Notify(notification); err != nil {
		logger.Warn("Notification delivery failed",
			logger.String("subscription", key),
			logger.Error(err))
		return
	}

	metrics.NotificationsSent.WithLabelValues(event).Inc()
}
