package staking

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	errTransferFailed         = errors.New("mock: transfer failed")
	errTransferFromFailed     = errors.New("mock: transferFrom failed")
	errInsufficientMockBalance = errors.New("mock: insufficient balance")
)

// fakeClock is a deterministic Clock: tests advance it explicitly instead of
// sleeping, mirroring the teacher's time.Unix(...)-based fixtures in
// core/staking_test.go.
type fakeClock struct {
	now time.Time
}

func newFakeClock(unix int64) *fakeClock {
	return &fakeClock{now: time.Unix(unix, 0).UTC()}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// mockBaseAsset is an in-memory stand-in for the external GTON ledger,
// letting tests assert custody moves without a real chain state processor.
type mockBaseAsset struct {
	decimals uint8
	balances map[common.Address]*uint256.Int
	pool     common.Address

	failTransfer     bool
	failTransferFrom bool
}

func newMockBaseAsset(pool common.Address) *mockBaseAsset {
	return &mockBaseAsset{
		decimals: 18,
		balances: make(map[common.Address]*uint256.Int),
		pool:     pool,
	}
}

func (m *mockBaseAsset) credit(addr common.Address, amount uint64) {
	bal, ok := m.balances[addr]
	if !ok {
		bal = uint256.NewInt(0)
	}
	m.balances[addr] = new(uint256.Int).Add(bal, uint256.NewInt(amount))
}

func (m *mockBaseAsset) Decimals() uint8 { return m.decimals }

func (m *mockBaseAsset) BalanceOf(addr common.Address) (*uint256.Int, error) {
	bal, ok := m.balances[addr]
	if !ok {
		return uint256.NewInt(0), nil
	}
	return cloneU256(bal), nil
}

// TransferFrom moves amount from an implicit caller (tracked by the test via
// credit) into pool custody. Tests call credit first so the caller has
// sufficient balance, mirroring an ERC20 allowance having already been
// granted to the pool.
func (m *mockBaseAsset) TransferFrom(from common.Address, amount *uint256.Int) error {
	if m.failTransferFrom {
		return errTransferFromFailed
	}
	bal, ok := m.balances[from]
	if !ok || amount.Gt(bal) {
		return errInsufficientMockBalance
	}
	m.balances[from] = new(uint256.Int).Sub(bal, amount)
	m.credit(m.pool, 0)
	poolBal := m.balances[m.pool]
	m.balances[m.pool] = new(uint256.Int).Add(poolBal, amount)
	return nil
}

func (m *mockBaseAsset) Transfer(to common.Address, amount *uint256.Int) error {
	if m.failTransfer {
		return errTransferFailed
	}
	poolBal, ok := m.balances[m.pool]
	if !ok || amount.Gt(poolBal) {
		return errInsufficientMockBalance
	}
	m.balances[m.pool] = new(uint256.Int).Sub(poolBal, amount)
	m.credit(to, 0)
	toBal := m.balances[to]
	m.balances[to] = new(uint256.Int).Add(toBal, amount)
	return nil
}

func (m *mockBaseAsset) Address() common.Address { return common.Address{0x99} }
