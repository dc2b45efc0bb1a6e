package paillier

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// MarshalBinary implements encoding.BinaryMarshaler using cbor.
func (k *PrivateThresholdKey) MarshalBinary() ([]byte, error) {
	type plain PrivateThresholdKey
	return cbor.Marshal((*plain)(k))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, and validates the decoded key.
func (k *PrivateThresholdKey) UnmarshalBinary(data []byte) error {
	type plain PrivateThresholdKey
	var decoded plain
	if err := cbor.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("paillier: %w", err)
	}
	key := PrivateThresholdKey(decoded)
	if err := key.Validate(); err != nil {
		return err
	}
	*k = key
	return nil
}
