package genesis

import (
	"fmt"

	"rwdledger/crypto"
)

// ParseBech32Account decodes a rwd-prefixed account string.
func ParseBech32Account(addr string) ([20]byte, error) {
	out, err := crypto.ParseAddress(addr)
	if err != nil {
		return out, fmt.Errorf("decode bech32 account: %w", err)
	}
	return out, nil
}
