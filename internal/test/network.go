package test

import (
	"sync"

	"github.com/taurusgroup/paillier-dkg/pkg/party"
	"github.com/taurusgroup/paillier-dkg/pkg/protocol"
)

// Network delivers the messages of a set of in-process parties.
// Mailboxes are unbounded, so that Send never blocks.
type Network struct {
	parties   party.IDSlice
	mailboxes map[party.ID]*mailbox
	done      chan struct{}
	closed    chan *protocol.Message
	mtx       sync.Mutex
}

type mailbox struct {
	out     chan *protocol.Message
	quit    chan struct{}
	mtx     sync.Mutex
	cond    *sync.Cond
	pending []*protocol.Message
	closed  bool
}

func newMailbox() *mailbox {
	m := &mailbox{
		out:  make(chan *protocol.Message),
		quit: make(chan struct{}),
	}
	m.cond = sync.NewCond(&m.mtx)
	go m.run()
	return m
}

func (m *mailbox) push(msg *protocol.Message) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.closed {
		return
	}
	m.pending = append(m.pending, msg)
	m.cond.Signal()
}

func (m *mailbox) close() {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.pending = nil
	close(m.quit)
	m.cond.Broadcast()
}

func (m *mailbox) run() {
	for {
		m.mtx.Lock()
		for len(m.pending) == 0 && !m.closed {
			m.cond.Wait()
		}
		if m.closed {
			m.mtx.Unlock()
			return
		}
		msg := m.pending[0]
		m.pending = m.pending[1:]
		m.mtx.Unlock()

		select {
		case m.out <- msg:
		case <-m.quit:
			return
		}
	}
}

func NewNetwork(parties party.IDSlice) *Network {
	closed := make(chan *protocol.Message)
	close(closed)
	n := &Network{
		parties:   parties,
		mailboxes: make(map[party.ID]*mailbox, len(parties)),
		done:      make(chan struct{}),
		closed:    closed,
	}
	for _, id := range parties {
		n.mailboxes[id] = newMailbox()
	}
	return n
}

// Next returns the channel of messages for id.
func (n *Network) Next(id party.ID) <-chan *protocol.Message {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	m, ok := n.mailboxes[id]
	if !ok {
		return n.closed
	}
	return m.out
}

// Send delivers msg to all its recipients.
func (n *Network) Send(msg *protocol.Message) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	for id, m := range n.mailboxes {
		if msg.IsFor(id) {
			m.push(msg)
		}
	}
}

// Done removes id from the network, and returns a channel closed once all parties are done.
func (n *Network) Done(id party.ID) chan struct{} {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if m, ok := n.mailboxes[id]; ok {
		m.close()
		delete(n.mailboxes, id)
		if len(n.mailboxes) == 0 {
			close(n.done)
		}
	}
	return n.done
}
