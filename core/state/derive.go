package state

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	derivationDomain = []byte("rwd-derived-address")

	// AssociatedAccountProgram namespaces the canonical token account of an
	// owner for a given mint.
	AssociatedAccountProgram = [20]byte{'a', 's', 's', 'o', 'c', 'i', 'a', 't', 'e', 'd', '-', 'a', 'c', 'c', 'o', 'u', 'n', 't', 's', '1'}
)

// DeriveAddress deterministically derives an address owned by program from
// the supplied seeds. Each seed is length-prefixed so that ("ab","c") and
// ("a","bc") never collide.
func DeriveAddress(program [20]byte, seeds ...[]byte) [20]byte {
	buf := make([]byte, 0, len(derivationDomain)+len(program)+64)
	buf = append(buf, derivationDomain...)
	buf = append(buf, program[:]...)
	for _, seed := range seeds {
		buf = append(buf, byte(len(seed)))
		buf = append(buf, seed...)
	}
	hash := ethcrypto.Keccak256(buf)
	var out [20]byte
	copy(out[:], hash[len(hash)-20:])
	return out
}

// AssociatedAccount returns the canonical token account address for owner and
// mint.
func AssociatedAccount(owner, mint [20]byte) [20]byte {
	return DeriveAddress(AssociatedAccountProgram, owner[:], mint[:])
}
