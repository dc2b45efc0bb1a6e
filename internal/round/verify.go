package round

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
	"github.com/taurusgroup/paillier-dkg/pkg/pool"
)

// VerifyDealers runs verify for every dealer index in parallel, and returns the dealers
// whose shares are invalid, together with all their errors aggregated.
func VerifyDealers(pl *pool.Pool, registry *party.Registry, dealers []int, verify func(dealer int) error) ([]party.ID, error) {
	errs := pl.Errors(len(dealers), func(i int) error {
		return verify(dealers[i])
	})

	var (
		culprits []party.ID
		result   *multierror.Error
	)
	for i, err := range errs {
		if err == nil {
			continue
		}
		id, _ := registry.ID(dealers[i])
		culprits = append(culprits, id)
		result = multierror.Append(result, fmt.Errorf("dealer %s: %w", id, err))
	}
	return culprits, result.ErrorOrNil()
}
