package rewards

import (
	"bytes"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

const discriminatorLength = 8

const (
	recordFeeSchedule = "FeeSchedule"
	recordFreezeState = "FreezeState"
	recordTokenConfig = "TokenConfig"
)

// discriminator tags a stored record with its type so that a value written
// for one singleton can never be decoded as another.
func discriminator(name string) []byte {
	return ethcrypto.Keccak256([]byte("account:" + name))[:discriminatorLength]
}

func encodeRecord(name string, value interface{}) ([]byte, error) {
	payload, err := rlp.EncodeToBytes(value)
	if err != nil {
		return nil, fmt.Errorf("rewards engine: encode %s: %w", name, err)
	}
	out := make([]byte, 0, discriminatorLength+len(payload))
	out = append(out, discriminator(name)...)
	return append(out, payload...), nil
}

func decodeRecord(name string, data []byte, out interface{}) error {
	if len(data) < discriminatorLength {
		return fmt.Errorf("%w: %s", errRecordTooShort, name)
	}
	if !bytes.Equal(data[:discriminatorLength], discriminator(name)) {
		return fmt.Errorf("%w: %s", errDiscriminatorMismatch, name)
	}
	if err := rlp.DecodeBytes(data[discriminatorLength:], out); err != nil {
		return fmt.Errorf("rewards engine: decode %s: %w", name, err)
	}
	return nil
}
