// Package memory implements an in-process publisher. It backs the
// events.provider "memory" setting and lets pipeline tests assert on the
// run-summary payload without a broker.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// PublishedMessage is one recorded publish call: the topic the summary was
// addressed to and the payload exactly as handed in, never serialized.
type PublishedMessage struct {
	Topic   string
	Payload any
}

// Publisher records every published run summary in order.
type Publisher struct {
	mu       sync.RWMutex
	messages []PublishedMessage
}

// New returns an empty Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the payload and returns a synthetic message id of the form
// "memory-N", where N is the 1-based publish count.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, PublishedMessage{Topic: topic, Payload: payload})
	return fmt.Sprintf("memory-%d", len(p.messages)), nil
}

// Messages returns a copy of everything published so far, oldest first.
func (p *Publisher) Messages() []PublishedMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PublishedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}
