package staking

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	stakeerrors "gtonstaking/core/errors"
	"gtonstaking/core/events"
)

// DecimalsOf returns the share token's decimal scale, fixed at construction to
// the base asset's own decimals.
func (p *Pool) DecimalsOf() uint8 { return p.Decimals }

// BalanceOf implements spec.md §4.3: principal plus pending reward, where
// ARPS is advanced to now without committing so off-chain observers see
// continuous accrual.
func (p *Pool) BalanceOf(addr common.Address) *uint256.Int {
	h, ok := p.holders[addr]
	if !ok {
		return uint256.NewInt(0)
	}
	live := p.liveAccumulatedRewardPerShare()
	balance := new(uint256.Int).Set(h.Amount)
	balance.Add(balance, pendingReward(h, live))
	return balance
}

// TotalSupply implements spec.md §4.3: totalAmount plus the sum of pending
// reward across all holders, computed by iterating holders and summing the
// live per-holder pending reward (the only place this engine iterates
// holders, and only because totalSupply is an explicit read, never a
// mutating path).
func (p *Pool) TotalSupply() *uint256.Int {
	live := p.liveAccumulatedRewardPerShare()
	total := new(uint256.Int).Set(p.TotalAmount)
	for _, h := range p.holders {
		total.Add(total, pendingReward(h, live))
	}
	return total
}

// Allowance is a pure read of allowance[owner][spender].
func (p *Pool) Allowance(owner, spender common.Address) *uint256.Int {
	spenders, ok := p.allowances[owner]
	if !ok {
		return uint256.NewInt(0)
	}
	amount, ok := spenders[spender]
	if !ok {
		return uint256.NewInt(0)
	}
	return cloneU256(amount)
}

// Approve implements spec.md §4.3: overwrites allowance[caller][spender].
func (p *Pool) Approve(caller, spender common.Address, amount *uint256.Int) error {
	if err := p.requireNotPaused(); err != nil {
		return err
	}
	if amount == nil {
		amount = uint256.NewInt(0)
	}
	spenders, ok := p.allowances[caller]
	if !ok {
		spenders = make(map[common.Address]*uint256.Int)
		p.allowances[caller] = spenders
	}
	spenders[spender] = cloneU256(amount)
	p.emit(events.Approval{Owner: caller, Spender: spender, Amount: amount})
	return p.persist()
}

// Transfer implements spec.md §4.3: moves principal only, both ends absorb
// their pre-transfer pending reward into AccumulatedReward, totalAmount is
// unchanged.
func (p *Pool) Transfer(caller, to common.Address, amount *uint256.Int) error {
	return p.transferPrincipal(caller, to, amount)
}

// TransferFrom implements spec.md §4.3: checks allowance[from][caller]
// before moving principal and spends it once the move has succeeded.
func (p *Pool) TransferFrom(caller, from, to common.Address, amount *uint256.Int) error {
	if err := p.requireNotPaused(); err != nil {
		return err
	}
	allowed := p.Allowance(from, caller)
	if amount != nil && amount.Gt(allowed) {
		return stakeerrors.ErrTransferExceedsAllowance
	}
	t := p.begin(from, to)
	if err := p.transferPrincipalUnguarded(from, to, amount); err != nil {
		t.rollback()
		return err
	}
	if amount != nil {
		remaining := new(uint256.Int).Sub(allowed, amount)
		spenders, ok := p.allowances[from]
		if !ok {
			spenders = make(map[common.Address]*uint256.Int)
			p.allowances[from] = spenders
		}
		spenders[caller] = remaining
	}
	return p.persist()
}

func (p *Pool) transferPrincipal(caller, to common.Address, amount *uint256.Int) error {
	if err := p.requireNotPaused(); err != nil {
		return err
	}
	t := p.begin(caller, to)
	if err := p.transferPrincipalUnguarded(caller, to, amount); err != nil {
		t.rollback()
		return err
	}
	return p.persist()
}

// transferPrincipalUnguarded performs the pause-independent core of
// transfer/transferFrom: updateRewardPool, credit both ends' pending
// reward, move principal, recompute both rewardDebts. It deliberately
// compares against principal (u.amount), not full share-balance including
// pending — see DESIGN.md's Open Question decision. Every caller wraps
// this in p.begin(from, to)/t.rollback() so a failed balance check here
// leaves the pool's ARPS/holder state exactly as it found it.
func (p *Pool) transferPrincipalUnguarded(from, to common.Address, amount *uint256.Int) error {
	if amount == nil {
		amount = uint256.NewInt(0)
	}

	p.updateRewardPool()
	arps := p.AccumulatedRewardPerShare

	if from == to {
		self := p.holder(from).clone()
		creditPending(self, arps)
		if amount.Gt(self.Amount) {
			return stakeerrors.ErrTransferExceedsBalance
		}
		self.RewardDebt = shareOfPrincipal(self.Amount, arps)
		p.holders[from] = self
		p.emit(events.Transfer{From: from, To: to, Amount: amount})
		return nil
	}

	sender := p.holder(from).clone()
	receiver := p.holder(to).clone()

	creditPending(sender, arps)
	creditPending(receiver, arps)

	if amount.Gt(sender.Amount) {
		return stakeerrors.ErrTransferExceedsBalance
	}

	sender.Amount = new(uint256.Int).Sub(sender.Amount, amount)
	receiver.Amount = new(uint256.Int).Add(receiver.Amount, amount)

	sender.RewardDebt = shareOfPrincipal(sender.Amount, arps)
	receiver.RewardDebt = shareOfPrincipal(receiver.Amount, arps)

	p.holders[from] = sender
	p.holders[to] = receiver

	p.emit(events.Transfer{From: from, To: to, Amount: amount})
	return nil
}
