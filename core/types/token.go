package types

// TokenMetadata describes a fungible token registered on the ledger. The mint
// address doubles as the token identifier.
type TokenMetadata struct {
	Mint          [20]byte `json:"mint"`
	Name          string   `json:"name"`
	Symbol        string   `json:"symbol"`
	URI           string   `json:"uri"`
	Decimals      uint8    `json:"decimals"`
	MintAuthority [20]byte `json:"mintAuthority"`
	Supply        uint64   `json:"supply"`
}

// TokenAccount holds a balance of a single token on behalf of its owner.
type TokenAccount struct {
	Address [20]byte `json:"address"`
	Mint    [20]byte `json:"mint"`
	Owner   [20]byte `json:"owner"`
	Amount  uint64   `json:"amount"`
}
