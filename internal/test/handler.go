package test

import (
	"github.com/taurusgroup/paillier-dkg/pkg/party"
	"github.com/taurusgroup/paillier-dkg/pkg/protocol"
)

// HandlerLoop blocks until the handler has finished. The result of the execution is given by Handler.Result().
func HandlerLoop(id party.ID, h *protocol.Handler, network *Network) {
	incoming := network.Next(id)
	for {
		select {

		// outgoing messages
		case msg, ok := <-h.Listen():
			if !ok {
				<-network.Done(id)
				// the channel was closed, indicating that the protocol is done executing.
				return
			}
			network.Send(msg)

		// incoming messages
		case msg := <-incoming:
			h.Accept(msg)
		}
	}
}
