// Package ledger implements a LevelDB-backed balance ledger for the
// external base-asset token the staking pool custodies deposits in,
// satisfying staking.BaseAsset without a real chain or contract behind it.
package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gtonstaking/storage"
)

const balanceKeyPrefix = "ledger/balance/"

// Ledger persists per-address balances one key at a time, the scoped
// counterpart to core/staking/store.go's single pool-wide JSON blob:
// balances here are touched independently by many unrelated holders, so a
// shared blob would serialize every transfer against every other.
type Ledger struct {
	db       storage.Database
	decimals uint8
	pool     common.Address
}

// New constructs a Ledger. pool identifies the account representing the
// staking pool's own custody balance; Transfer/TransferFrom move funds to
// and from this account.
func New(db storage.Database, decimals uint8, pool common.Address) *Ledger {
	return &Ledger{db: db, decimals: decimals, pool: pool}
}

func balanceKey(addr common.Address) []byte {
	return []byte(balanceKeyPrefix + addr.Hex())
}

// Decimals reports the ledger's smallest-unit scale.
func (l *Ledger) Decimals() uint8 { return l.decimals }

// Address reports the pool's own custody account on this ledger.
func (l *Ledger) Address() common.Address { return l.pool }

// BalanceOf reports addr's current balance, zero if never touched.
func (l *Ledger) BalanceOf(addr common.Address) (*uint256.Int, error) {
	data, err := l.db.Get(balanceKey(addr))
	if err != nil {
		return uint256.NewInt(0), nil
	}
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return nil, fmt.Errorf("ledger: decode balance: %w", err)
	}
	value, overflow := uint256.FromHex(encoded)
	if overflow {
		return nil, fmt.Errorf("ledger: balance overflows uint256")
	}
	return value, nil
}

func (l *Ledger) setBalance(addr common.Address, amount *uint256.Int) error {
	data, err := json.Marshal(amount.Hex())
	if err != nil {
		return fmt.Errorf("ledger: encode balance: %w", err)
	}
	return l.db.Put(balanceKey(addr), data)
}

// Credit funds addr directly. Used at genesis/operator top-up time, outside
// the Transfer/TransferFrom surface staking.BaseAsset exposes to the pool.
func (l *Ledger) Credit(addr common.Address, amount *uint256.Int) error {
	bal, err := l.BalanceOf(addr)
	if err != nil {
		return err
	}
	return l.setBalance(addr, new(uint256.Int).Add(bal, amount))
}

// TransferFrom moves amount from from into the pool's own custody account,
// the deposit step staking.Mint relies on. Only from's balance is checked;
// the ledger keeps no allowances.
func (l *Ledger) TransferFrom(from common.Address, amount *uint256.Int) error {
	return l.move(from, l.pool, amount)
}

// Transfer moves amount from the pool's custody account to to.
func (l *Ledger) Transfer(to common.Address, amount *uint256.Int) error {
	return l.move(l.pool, to, amount)
}

func (l *Ledger) move(from, to common.Address, amount *uint256.Int) error {
	fromBal, err := l.BalanceOf(from)
	if err != nil {
		return err
	}
	if amount.Gt(fromBal) {
		return fmt.Errorf("ledger: insufficient balance")
	}
	toBal, err := l.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := l.setBalance(from, new(uint256.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return l.setBalance(to, new(uint256.Int).Add(toBal, amount))
}
