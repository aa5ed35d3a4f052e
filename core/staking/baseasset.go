package staking

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// BaseAsset is the external fungible-token ledger (GTON) the pool custodies
// deposits in and pays rewards from. Spec.md §1 treats it as an external
// collaborator; the pool never reimplements transfer/allowance accounting
// itself. Wrapped as an interface per spec.md §9 so tests can substitute a
// mock ledger.
type BaseAsset interface {
	// Transfer moves amount units from the pool's own custody to to.
	Transfer(to common.Address, amount *uint256.Int) error
	// TransferFrom moves amount units from from into the pool's custody,
	// subject to from having approved the pool as spender.
	TransferFrom(from common.Address, amount *uint256.Int) error
	// BalanceOf reports the ledger balance held by addr.
	BalanceOf(addr common.Address) (*uint256.Int, error)
	// Decimals reports the base asset's smallest-unit scale.
	Decimals() uint8
	// Address identifies the pool's own custody account on this ledger, so
	// callers (poolInfo, withdrawToken) can report or reuse it without the
	// pool keeping a second copy.
	Address() common.Address
}
