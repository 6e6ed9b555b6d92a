package state

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"rwdledger/core/types"
	"rwdledger/storage"
)

// Manager is the reference ledger substrate: token mints, token accounts and
// a small parameter store, all RLP-encoded over a key-value database.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database. Pass
// a storage.Overlay to make a sequence of calls atomic.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var (
	tokenPrefix   = []byte("token:")
	accountPrefix = []byte("account:")
	paramPrefix   = []byte("params/")
	tokenListKey  = ethcrypto.Keccak256([]byte("token-list"))
)

func prefixedKey(prefix []byte, id []byte) []byte {
	buf := make([]byte, len(prefix)+len(id))
	copy(buf, prefix)
	copy(buf[len(prefix):], id)
	return ethcrypto.Keccak256(buf)
}

func tokenKey(mint [20]byte) []byte { return prefixedKey(tokenPrefix, mint[:]) }
func accountKey(addr [20]byte) []byte { return prefixedKey(accountPrefix, addr[:]) }
func paramKey(name string) []byte { return prefixedKey(paramPrefix, []byte(name)) }
func isZero(addr [20]byte) bool { return addr == [20]byte{} }
func hexAddr(addr [20]byte) string { return fmt.Sprintf("%x", addr[:]) }
func normalizeName(name string) string { return strings.TrimSpace(name) }

func (m *Manager) get(key []byte) ([]byte, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (m *Manager) put(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) loadTokenList() ([][20]byte, error) {
	data, err := m.get(tokenListKey)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return [][20]byte{}, nil
	}
	var list [][20]byte
	if err := rlp.DecodeBytes(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (m *Manager) loadToken(mint [20]byte) (*types.TokenMetadata, error) {
	data, err := m.get(tokenKey(mint))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	meta := new(types.TokenMetadata)
	if err := rlp.DecodeBytes(data, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func (m *Manager) loadAccount(addr [20]byte) (*types.TokenAccount, error) {
	data, err := m.get(accountKey(addr))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	acct := new(types.TokenAccount)
	if err := rlp.DecodeBytes(data, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// RegisterToken stores the metadata for a new mint and records it in the
// token index. The initial supply is always zero.
func (m *Manager) RegisterToken(meta types.TokenMetadata) error {
	if isZero(meta.Mint) {
		return ErrZeroAddress
	}
	if strings.TrimSpace(meta.Symbol) == "" {
		return fmt.Errorf("state: token symbol must not be empty")
	}
	if existing, err := m.loadToken(meta.Mint); err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("%w: %s", ErrTokenExists, hexAddr(meta.Mint))
	}

	list, err := m.loadTokenList()
	if err != nil {
		return err
	}
	list = append(list, meta.Mint)
	sort.Slice(list, func(i, j int) bool { return bytes.Compare(list[i][:], list[j][:]) < 0 })
	if err := m.put(tokenListKey, list); err != nil {
		return err
	}

	meta.Name = normalizeName(meta.Name)
	meta.Symbol = normalizeName(meta.Symbol)
	meta.Supply = 0
	return m.put(tokenKey(meta.Mint), &meta)
}

// Token retrieves metadata for a registered mint.
func (m *Manager) Token(mint [20]byte) (*types.TokenMetadata, error) {
	meta, err := m.loadToken(mint)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, hexAddr(mint))
	}
	return meta, nil
}

// TokenList returns all registered mints in byte order.
func (m *Manager) TokenList() ([][20]byte, error) {
	return m.loadTokenList()
}

// CreateTokenAccount opens an empty account for mint held by owner.
func (m *Manager) CreateTokenAccount(address, mint, owner [20]byte) (*types.TokenAccount, error) {
	if isZero(address) || isZero(owner) {
		return nil, ErrZeroAddress
	}
	if _, err := m.Token(mint); err != nil {
		return nil, err
	}
	existing, err := m.loadAccount(address)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, hexAddr(address))
	}
	acct := &types.TokenAccount{Address: address, Mint: mint, Owner: owner}
	if err := m.put(accountKey(address), acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// EnsureTokenAccount returns the account at address, creating it when absent.
// An existing account must match both mint and owner.
func (m *Manager) EnsureTokenAccount(address, mint, owner [20]byte) (*types.TokenAccount, error) {
	existing, err := m.loadAccount(address)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return m.CreateTokenAccount(address, mint, owner)
	}
	if existing.Mint != mint {
		return nil, fmt.Errorf("%w: %s", ErrMintMismatch, hexAddr(address))
	}
	if existing.Owner != owner {
		return nil, fmt.Errorf("%w: account %s owner", ErrAuthorityMismatch, hexAddr(address))
	}
	return existing, nil
}

// TokenAccount loads the account stored at address.
func (m *Manager) TokenAccount(address [20]byte) (*types.TokenAccount, error) {
	acct, err := m.loadAccount(address)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, hexAddr(address))
	}
	return acct, nil
}

// Balance returns the amount held at address, or zero when the account does
// not exist.
func (m *Manager) Balance(address [20]byte) (uint64, error) {
	acct, err := m.loadAccount(address)
	if err != nil {
		return 0, err
	}
	if acct == nil {
		return 0, nil
	}
	return acct.Amount, nil
}

func (m *Manager) accountForMint(address, mint [20]byte) (*types.TokenAccount, error) {
	acct, err := m.TokenAccount(address)
	if err != nil {
		return nil, err
	}
	if acct.Mint != mint {
		return nil, fmt.Errorf("%w: %s", ErrMintMismatch, hexAddr(address))
	}
	return acct, nil
}

// MintTo increases supply and credits destination. authority must match the
// mint authority recorded on the token.
func (m *Manager) MintTo(mint, destination, authority [20]byte, amount uint64) error {
	meta, err := m.Token(mint)
	if err != nil {
		return err
	}
	if isZero(meta.MintAuthority) {
		return ErrMintAuthorityDisabled
	}
	if meta.MintAuthority != authority {
		return fmt.Errorf("%w: mint authority", ErrAuthorityMismatch)
	}
	acct, err := m.accountForMint(destination, mint)
	if err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	if meta.Supply > math.MaxUint64-amount || acct.Amount > math.MaxUint64-amount {
		return ErrOverflow
	}
	meta.Supply += amount
	acct.Amount += amount
	if err := m.put(tokenKey(mint), meta); err != nil {
		return err
	}
	return m.put(accountKey(destination), acct)
}

// BurnFrom debits source and decreases supply. owner must own the account.
func (m *Manager) BurnFrom(mint, source, owner [20]byte, amount uint64) error {
	meta, err := m.Token(mint)
	if err != nil {
		return err
	}
	acct, err := m.accountForMint(source, mint)
	if err != nil {
		return err
	}
	if acct.Owner != owner {
		return fmt.Errorf("%w: account %s owner", ErrAuthorityMismatch, hexAddr(source))
	}
	if acct.Amount < amount {
		return fmt.Errorf("%w: have %d need %d", ErrInsufficientBalance, acct.Amount, amount)
	}
	if amount == 0 {
		return nil
	}
	acct.Amount -= amount
	meta.Supply -= amount
	if err := m.put(tokenKey(mint), meta); err != nil {
		return err
	}
	return m.put(accountKey(source), acct)
}

// TransferChecked moves amount between two accounts of the same mint after
// confirming the caller's view of the mint decimals.
func (m *Manager) TransferChecked(mint, source, destination, owner [20]byte, amount uint64, decimals uint8) error {
	meta, err := m.Token(mint)
	if err != nil {
		return err
	}
	if meta.Decimals != decimals {
		return fmt.Errorf("%w: mint has %d, caller expects %d", ErrDecimalsMismatch, meta.Decimals, decimals)
	}
	from, err := m.accountForMint(source, mint)
	if err != nil {
		return err
	}
	if from.Owner != owner {
		return fmt.Errorf("%w: account %s owner", ErrAuthorityMismatch, hexAddr(source))
	}
	to, err := m.accountForMint(destination, mint)
	if err != nil {
		return err
	}
	if from.Amount < amount {
		return fmt.Errorf("%w: have %d need %d", ErrInsufficientBalance, from.Amount, amount)
	}
	if amount == 0 || source == destination {
		return nil
	}
	if to.Amount > math.MaxUint64-amount {
		return ErrOverflow
	}
	from.Amount -= amount
	to.Amount += amount
	if err := m.put(accountKey(source), from); err != nil {
		return err
	}
	return m.put(accountKey(destination), to)
}

// ParamStoreSet stores a raw parameter value under name.
func (m *Manager) ParamStoreSet(name string, value []byte) error {
	trimmed := normalizeName(name)
	if trimmed == "" {
		return fmt.Errorf("params: name must not be empty")
	}
	return m.db.Put(paramKey(trimmed), append([]byte(nil), value...))
}

// ParamStoreGet loads the raw parameter value stored under name. The boolean
// reports whether a value was present.
func (m *Manager) ParamStoreGet(name string) ([]byte, bool, error) {
	trimmed := normalizeName(name)
	if trimmed == "" {
		return nil, false, fmt.Errorf("params: name must not be empty")
	}
	data, err := m.get(paramKey(trimmed))
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return nil, false, nil
	}
	return data, true, nil
}
