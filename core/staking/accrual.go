package staking

import "github.com/holiman/uint256"

// updateRewardPool is the Reward Accumulator described in spec.md §4.1. It
// is the only writer of AccumulatedRewardPerShare and LastRewardTimestamp
// outside the constructor, and must run as the first mutating step of every
// stake-lifecycle and share-transfer call.
func (p *Pool) updateRewardPool() {
	now := p.now()
	dt := now - p.LastRewardTimestamp
	if dt == 0 {
		return
	}
	if p.TotalAmount.Sign() > 0 {
		minted := accrualIncrement(dt, p.AprBasisPoints)
		p.AccumulatedRewardPerShare = new(uint256.Int).Add(p.AccumulatedRewardPerShare, minted)
	}
	p.LastRewardTimestamp = now
}

// liveAccumulatedRewardPerShare advances ARPS to now without committing the
// change, so pure reads (balanceOf, totalSupply) observe continuous accrual
// per spec.md §4.3.
func (p *Pool) liveAccumulatedRewardPerShare() *uint256.Int {
	now := p.now()
	dt := now - p.LastRewardTimestamp
	if dt == 0 || p.TotalAmount.Sign() == 0 {
		return cloneU256(p.AccumulatedRewardPerShare)
	}
	minted := accrualIncrement(dt, p.AprBasisPoints)
	return new(uint256.Int).Add(p.AccumulatedRewardPerShare, minted)
}

// UpdateRewardPool is the public entry point named in spec.md §6. Like every
// other user-facing mutator it is rejected while the pool is paused.
func (p *Pool) UpdateRewardPool() error {
	if err := p.requireNotPaused(); err != nil {
		return err
	}
	p.updateRewardPool()
	return p.persist()
}

// pendingReward computes holder h's pending reward at the given ARPS value,
// per spec.md §3 invariant 4: amount*A/CALC_DECIMALS - rewardDebt + accumulatedReward.
func pendingReward(h *Holder, arps *uint256.Int) *uint256.Int {
	earned := shareOfPrincipal(h.Amount, arps)
	pending := new(uint256.Int).Sub(earned, h.RewardDebt)
	pending.Add(pending, h.AccumulatedReward)
	return pending
}

// creditPending folds a holder's accrued-but-uncredited reward into
// AccumulatedReward using the fresh ARPS, leaving RewardDebt untouched; the
// caller recomputes RewardDebt immediately afterward once Amount changes.
func creditPending(h *Holder, arps *uint256.Int) {
	if h.Amount.Sign() == 0 {
		return
	}
	earned := shareOfPrincipal(h.Amount, arps)
	uncredited := new(uint256.Int).Sub(earned, h.RewardDebt)
	h.AccumulatedReward = new(uint256.Int).Add(h.AccumulatedReward, uncredited)
}
