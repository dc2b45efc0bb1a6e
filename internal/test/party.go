package test

import (
	"fmt"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/math/sample"
	"github.com/taurusgroup/paillier-dkg/pkg/params"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
	"github.com/taurusgroup/paillier-dkg/pkg/pool"
)

// PartyIDs returns a party.IDSlice (sorted) with IDs represented as simple strings.
func PartyIDs(n int) party.IDSlice {
	baseString := ""
	ids := make(party.IDSlice, n)
	for i := range ids {
		if i%26 == 0 && i > 0 {
			baseString += "a"
		}
		ids[i] = party.ID(baseString + string('a'+rune(i%26)))
	}
	return party.NewIDSlice(ids)
}

// Parameters returns parameters for n parties with threshold t and k bit factor shares,
// whose prime is derived deterministically from seed.
func Parameters(n, t, bits int, seed string) (*params.Parameters, error) {
	return params.New(n, t, bits, params.WithRand(sample.NewSeededReader([]byte(seed), "parameters")))
}

// Helpers creates the round.Helper of every party, all sharing the same session.
func Helpers(protocolID string, ids party.IDSlice, prm *params.Parameters, pl *pool.Pool) (map[party.ID]*round.Helper, error) {
	helpers := make(map[party.ID]*round.Helper, len(ids))
	for _, id := range ids {
		h, err := round.NewSession(round.Info{
			ProtocolID: protocolID,
			SelfID:     id,
			PartyIDs:   ids,
			Params:     prm,
		}, []byte("test session"), pl)
		if err != nil {
			return nil, fmt.Errorf("test: helper for %s: %w", id, err)
		}
		helpers[id] = h
	}
	return helpers, nil
}
