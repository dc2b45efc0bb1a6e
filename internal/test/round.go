package test

import (
	"errors"
	"fmt"
	"io"
	mrand "math/rand"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/math/sample"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
	"golang.org/x/sync/errgroup"
)

// ErrStalled is returned by Run when the remaining messages can never be delivered.
var ErrStalled = errors.New("test: execution stalled")

// Machine is a state machine of a single party that Run can drive.
type Machine[M any] interface {
	Step(rand io.Reader, event interface{}) (M, round.Emissions, error)
	Classify(content round.Content) round.Verdict
}

// Config describes various hooks that can be applied to an execution.
type Config struct {
	// Seed determines the randomness of all parties, and the delivery order.
	Seed int64
	// Shuffle delivers pending messages in a random order instead of FIFO.
	Shuffle bool
	// Duplicate delivers every message twice.
	Duplicate bool
	// DeferFuture holds back messages the recipient classifies as Future,
	// for machines which drop them.
	DeferFuture bool
	// NewContent returns an empty content for a tag. When set, every content is sent
	// through a cbor round trip before delivery.
	NewContent func(tag round.Tag) (round.Content, error)
	// Tamper may modify the content of a single delivery, after it was decoded.
	// Without NewContent, the content is shared by all recipients.
	Tamper func(from, to party.ID, content round.Content)
	// MaxDeliveries bounds the execution, 0 means no bound.
	MaxDeliveries int
}

// Result is the state of all parties at the end of Run.
type Result[M any] struct {
	Machines map[party.ID]M
	Outputs  map[party.ID][]interface{}
	Errors   map[party.ID]error
	// Deliveries counts the messages that were stepped.
	Deliveries int
}

type delivery struct {
	to  party.ID
	msg *round.Message
}

// Run feeds every party its start events, then delivers all emitted messages until none is left.
// A party whose transition returns an error is stopped and receives nothing more,
// but the messages it emitted along with the error are delivered.
func Run[M Machine[M]](machines map[party.ID]M, start map[party.ID][]interface{}, cfg Config) (*Result[M], error) {
	result := &Result[M]{
		Machines: make(map[party.ID]M, len(machines)),
		Outputs:  make(map[party.ID][]interface{}, len(machines)),
		Errors:   make(map[party.ID]error),
	}
	readers := make(map[party.ID]io.Reader, len(machines))
	ids := make(party.IDSlice, 0, len(machines))
	for id, m := range machines {
		result.Machines[id] = m
		readers[id] = sample.NewSeededReader([]byte(fmt.Sprintf("%d/%s", cfg.Seed, id)), "test party")
		ids = append(ids, id)
	}
	ids = party.NewIDSlice(ids)

	// the first transitions are independent, run them concurrently
	var (
		mtx      sync.Mutex
		errGroup errgroup.Group
		emitted  = make(map[party.ID][]*round.Message, len(ids))
	)
	for _, id := range ids {
		id := id
		m := result.Machines[id]
		errGroup.Go(func() error {
			var messages []*round.Message
			for _, event := range start[id] {
				next, emissions, err := m.Step(readers[id], event)
				messages = append(messages, emissions.Messages...)
				if err != nil {
					mtx.Lock()
					result.Errors[id] = err
					mtx.Unlock()
					break
				}
				m = next
				if emissions.Output != nil {
					mtx.Lock()
					result.Outputs[id] = append(result.Outputs[id], emissions.Output)
					mtx.Unlock()
				}
			}
			mtx.Lock()
			result.Machines[id] = m
			emitted[id] = messages
			mtx.Unlock()
			return nil
		})
	}
	_ = errGroup.Wait()

	var pending []delivery
	enqueue := func(messages []*round.Message) error {
		for _, msg := range messages {
			for _, to := range ids {
				if to == msg.From || !(msg.Broadcast || msg.To == to) {
					continue
				}
				copies := 1
				if cfg.Duplicate {
					copies = 2
				}
				for c := 0; c < copies; c++ {
					d, err := cfg.deliveryFor(msg, to)
					if err != nil {
						return err
					}
					pending = append(pending, d)
				}
			}
		}
		return nil
	}
	for _, id := range ids {
		if err := enqueue(emitted[id]); err != nil {
			return result, err
		}
	}

	shuffler := mrand.New(mrand.NewSource(cfg.Seed))
	deferred := 0
	for len(pending) > 0 {
		if cfg.MaxDeliveries > 0 && result.Deliveries >= cfg.MaxDeliveries {
			return result, fmt.Errorf("test: %d deliveries: %w", result.Deliveries, ErrStalled)
		}
		i := 0
		if cfg.Shuffle {
			i = shuffler.Intn(len(pending))
		}
		d := pending[i]
		pending = append(pending[:i], pending[i+1:]...)

		if _, failed := result.Errors[d.to]; failed {
			continue
		}
		m := result.Machines[d.to]
		if cfg.DeferFuture && m.Classify(d.msg.Content) == round.Future {
			pending = append(pending, d)
			deferred++
			if deferred > len(pending) {
				return result, ErrStalled
			}
			continue
		}
		deferred = 0

		result.Deliveries++
		next, emissions, err := m.Step(readers[d.to], d.msg)
		if errEnqueue := enqueue(emissions.Messages); errEnqueue != nil {
			return result, errEnqueue
		}
		if err != nil {
			result.Errors[d.to] = err
			continue
		}
		result.Machines[d.to] = next
		if emissions.Output != nil {
			result.Outputs[d.to] = append(result.Outputs[d.to], emissions.Output)
		}
	}
	return result, nil
}

// deliveryFor returns the delivery of msg to a single party, with its own content.
func (cfg Config) deliveryFor(msg *round.Message, to party.ID) (delivery, error) {
	content := msg.Content
	if cfg.NewContent != nil {
		data, err := cbor.Marshal(msg.Content)
		if err != nil {
			return delivery{}, fmt.Errorf("test: marshal %s: %w", msg.Content.Tag(), err)
		}
		if content, err = cfg.NewContent(msg.Content.Tag()); err != nil {
			return delivery{}, err
		}
		if err = cbor.Unmarshal(data, content); err != nil {
			return delivery{}, fmt.Errorf("test: unmarshal %s: %w", msg.Content.Tag(), err)
		}
	}
	if cfg.Tamper != nil {
		cfg.Tamper(msg.From, to, content)
	}
	return delivery{
		to: to,
		msg: &round.Message{
			From:      msg.From,
			To:        msg.To,
			Broadcast: msg.Broadcast,
			Content:   content,
		},
	}, nil
}
