package protocol

import "sync"

// outbox buffers outgoing messages without bound, so that a transition never blocks
// on a slow reader of Listen.
type outbox struct {
	out chan *Message

	mtx     sync.Mutex
	cond    *sync.Cond
	pending []*Message
	closed  bool
}

func newOutbox() *outbox {
	o := &outbox{out: make(chan *Message)}
	o.cond = sync.NewCond(&o.mtx)
	go o.run()
	return o
}

func (o *outbox) push(msg *Message) {
	o.mtx.Lock()
	defer o.mtx.Unlock()
	if o.closed {
		return
	}
	o.pending = append(o.pending, msg)
	o.cond.Signal()
}

// close stops accepting messages; out is closed once the pending ones were delivered.
func (o *outbox) close() {
	o.mtx.Lock()
	defer o.mtx.Unlock()
	o.closed = true
	o.cond.Signal()
}

func (o *outbox) run() {
	for {
		o.mtx.Lock()
		for len(o.pending) == 0 && !o.closed {
			o.cond.Wait()
		}
		if len(o.pending) == 0 {
			o.mtx.Unlock()
			close(o.out)
			return
		}
		msg := o.pending[0]
		o.pending = o.pending[1:]
		o.mtx.Unlock()
		o.out <- msg
	}
}
