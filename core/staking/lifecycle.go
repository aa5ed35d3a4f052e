package staking

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	stakeerrors "gtonstaking/core/errors"
	"gtonstaking/core/events"
)

// Mint implements spec.md §4.2.1. It pulls amount base-asset units from the
// caller into pool custody and credits the beneficiary's principal.
func (p *Pool) Mint(caller, beneficiary common.Address, amount *uint256.Int) error {
	if err := p.requireNotPaused(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() == 0 {
		return stakeerrors.ErrNothingToDeposit
	}

	t := p.begin(beneficiary)
	p.updateRewardPool()
	arps := p.AccumulatedRewardPerShare

	// transferFrom runs before userInfo is updated: pulling funds in carries
	// no double-release risk, so there is no checks-effects-interactions
	// requirement here (contrast Burn/Harvest below).
	if err := p.BaseAsset.TransferFrom(caller, amount); err != nil {
		t.rollback()
		return err
	}

	h := p.holder(beneficiary).clone()
	creditPending(h, arps)
	h.Amount = new(uint256.Int).Add(h.Amount, amount)
	h.RewardDebt = shareOfPrincipal(h.Amount, arps)
	p.holders[beneficiary] = h
	p.TotalAmount = new(uint256.Int).Add(p.TotalAmount, amount)

	p.emit(events.Transfer{From: [20]byte{}, To: beneficiary, Amount: amount})
	return p.persist()
}

// Burn implements spec.md §4.2.2. It redeems amount principal from the
// caller and releases it from pool custody to recipient.
func (p *Pool) Burn(caller, recipient common.Address, amount *uint256.Int) error {
	if err := p.requireNotPaused(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() == 0 {
		return stakeerrors.ErrNothingToBurn
	}

	t := p.begin(caller)
	p.updateRewardPool()
	arps := p.AccumulatedRewardPerShare

	existing := p.holder(caller)
	if amount.Gt(existing.Amount) {
		t.rollback()
		return stakeerrors.ErrInsufficientShare
	}

	h := existing.clone()
	creditPending(h, arps)
	h.Amount = new(uint256.Int).Sub(h.Amount, amount)
	h.RewardDebt = shareOfPrincipal(h.Amount, arps)
	p.holders[caller] = h
	p.TotalAmount = new(uint256.Int).Sub(p.TotalAmount, amount)

	// Effects are committed before the external release call so a
	// reentering BaseAsset implementation observes post-burn state; on
	// failure we manually unwind, the Go stand-in for the atomic tx revert
	// a ledger contract would get for free.
	if err := p.BaseAsset.Transfer(recipient, amount); err != nil {
		t.rollback()
		return err
	}

	p.emit(events.Transfer{From: caller, To: [20]byte{}, Amount: amount})
	return p.persist()
}

// Harvest implements spec.md §4.2.3. It pays out amount units of the
// caller's already-pending reward, subject to the per-holder harvest
// cooldown.
func (p *Pool) Harvest(caller common.Address, amount *uint256.Int) error {
	if err := p.requireNotPaused(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() == 0 {
		return stakeerrors.ErrNothingToHarvest
	}

	t := p.begin(caller)
	p.updateRewardPool()
	arps := p.AccumulatedRewardPerShare

	existing := p.holder(caller)
	pending := pendingReward(existing, arps)
	if amount.Gt(pending) {
		t.rollback()
		return stakeerrors.ErrInsufficientToHarvest
	}

	now := p.now()
	if existing.LastHarvestTimestamp != 0 && now-existing.LastHarvestTimestamp < p.HarvestIntervalSeconds {
		t.rollback()
		return stakeerrors.ErrHarvestCooldown
	}

	h := existing.clone()
	h.AccumulatedReward = new(uint256.Int).Sub(pending, amount)
	h.RewardDebt = shareOfPrincipal(h.Amount, arps)
	h.LastHarvestTimestamp = now
	p.holders[caller] = h

	if err := p.BaseAsset.Transfer(caller, amount); err != nil {
		t.rollback()
		return err
	}

	return p.persist()
}
