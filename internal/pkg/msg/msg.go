/*
Package msg is the in-process pub/sub fabric connecting the solve pipeline
to its sinks (databases, datastreams). Subscribers receive messages by
topic; slow subscribers drop messages rather than block the publisher.
*/
package msg

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Topic partitions published messages.
type Topic int

const (
	// Status carries pipeline progress payloads.
	Status Topic = iota
	// Config carries component configuration payloads.
	Config
	// Solution carries completed solve results.
	Solution
)

func (t Topic) String() string {
	switch t {
	case Status:
		return "status"
	case Config:
		return "config"
	case Solution:
		return "solution"
	default:
		return fmt.Sprintf("topic(%d)", int(t))
	}
}

// Publisher is an interface for objects that allow subscription to their events.
type Publisher interface {
	Subscribe(uuid.UUID, Topic) (<-chan Msg, error)
	Unsubscribe(uuid.UUID)
}

// Msg is one published event.
type Msg struct {
	sender  uuid.UUID
	topic   Topic
	payload interface{}
}

// New is the Msg factory function.
func New(sender uuid.UUID, topic Topic, payload interface{}) Msg {
	return Msg{sender, topic, payload}
}

// PID returns the sender's PID.
func (m Msg) PID() uuid.UUID {
	return m.sender
}

// Topic returns the message topic.
func (m Msg) Topic() Topic {
	return m.topic
}

// Payload returns the message data.
func (m Msg) Payload() interface{} {
	return m.payload
}

// PubSub fans published messages out to per-subscriber, per-topic channels.
type PubSub struct {
	mux  *sync.Mutex
	pid  uuid.UUID
	subs map[uuid.UUID]map[Topic]chan Msg
}

// NewPublisher returns a PubSub owned by the sender pid.
func NewPublisher(pid uuid.UUID) *PubSub {
	return &PubSub{
		mux:  &sync.Mutex{},
		pid:  pid,
		subs: make(map[uuid.UUID]map[Topic]chan Msg),
	}
}

// PID returns the publisher's PID.
func (p *PubSub) PID() uuid.UUID {
	return p.pid
}

// Subscribe returns a read-only channel carrying the requested topic.
func (p *PubSub) Subscribe(pid uuid.UUID, topic Topic) (<-chan Msg, error) {
	p.mux.Lock()
	defer p.mux.Unlock()

	topics, ok := p.subs[pid]
	if !ok {
		topics = make(map[Topic]chan Msg)
		p.subs[pid] = topics
	}
	if _, exists := topics[topic]; exists {
		return nil, fmt.Errorf("pid %v already subscribed to topic %v", pid, topic)
	}

	ch := make(chan Msg, 8)
	topics[topic] = ch
	return ch, nil
}

// Unsubscribe closes and removes all channels held by the pid.
func (p *PubSub) Unsubscribe(pid uuid.UUID) {
	p.mux.Lock()
	defer p.mux.Unlock()
	if topics, ok := p.subs[pid]; ok {
		for _, ch := range topics {
			close(ch)
		}
		delete(p.subs, pid)
	}
}

// Publish sends the payload to every subscriber of the topic. Full
// subscriber channels are skipped.
func (p *PubSub) Publish(topic Topic, payload interface{}) {
	p.mux.Lock()
	defer p.mux.Unlock()
	for _, topics := range p.subs {
		if ch, ok := topics[topic]; ok {
			select {
			case ch <- New(p.pid, topic, payload):
			default:
			}
		}
	}
}

// Stop closes every subscriber channel.
func (p *PubSub) Stop() {
	p.mux.Lock()
	defer p.mux.Unlock()
	for pid, topics := range p.subs {
		for _, ch := range topics {
			close(ch)
		}
		delete(p.subs, pid)
	}
}
