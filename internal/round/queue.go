package round

import (
	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

type queueKey struct {
	from party.ID
	tag  Tag
}

// Queue holds messages received before the machine of their phase reached their tag.
//
// It is immutable: Store and Take return a new Queue.
// At most one message is kept per sender and tag.
type Queue struct {
	messages []*Message
	keys     map[queueKey]struct{}
}

// Store returns a Queue containing msg, and true.
// If a message from the same sender with the same tag was already stored,
// the receiver is returned unchanged with false.
func (q Queue) Store(msg *Message) (Queue, bool) {
	key := queueKey{from: msg.From, tag: msg.Content.Tag()}
	if _, ok := q.keys[key]; ok {
		return q, false
	}
	keys := make(map[queueKey]struct{}, len(q.keys)+1)
	for k := range q.keys {
		keys[k] = struct{}{}
	}
	keys[key] = struct{}{}
	messages := make([]*Message, 0, len(q.messages)+1)
	messages = append(messages, q.messages...)
	messages = append(messages, msg)
	return Queue{messages: messages, keys: keys}, true
}

// Take removes and returns, in arrival order, all messages whose tag satisfies match.
func (q Queue) Take(match func(Tag) bool) (Queue, []*Message) {
	var taken []*Message
	remaining := make([]*Message, 0, len(q.messages))
	keys := make(map[queueKey]struct{}, len(q.keys))
	for _, msg := range q.messages {
		tag := msg.Content.Tag()
		if match(tag) {
			taken = append(taken, msg)
			continue
		}
		remaining = append(remaining, msg)
		keys[queueKey{from: msg.From, tag: tag}] = struct{}{}
	}
	if len(taken) == 0 {
		return q, nil
	}
	return Queue{messages: remaining, keys: keys}, taken
}

// Len returns the number of deferred messages.
func (q Queue) Len() int {
	return len(q.messages)
}
