package staking

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	stakeerrors "gtonstaking/core/errors"
	"gtonstaking/core/events"
)

// requireOwner is shared by every admin mutator except WithdrawToken, which
// uses the no-trailing-period sentinel per spec.md §4.4.
func (p *Pool) requireOwner(caller common.Address) error {
	if caller != p.Owner {
		return stakeerrors.ErrNotOwner
	}
	return nil
}

// TransferOwnership implements spec.md §4.4. Only the current owner may
// call it; paused state does not block it (spec.md §3 invariant 6).
func (p *Pool) TransferOwnership(caller, newOwner common.Address) error {
	if err := p.requireOwner(caller); err != nil {
		return err
	}
	previous := p.Owner
	p.Owner = newOwner
	p.emit(events.OwnershipTransferred{PreviousOwner: previous, NewOwner: newOwner})
	return p.persist()
}

// SetApr implements spec.md §4.4. Deliberately does NOT call
// updateRewardPool first: any time elapsed since the previous update is
// retroactively credited at the new rate on the next mutator that does
// advance ARPS. This is a faithful preservation of the source's observable
// behavior, not an oversight — see DESIGN.md's Open Question decision.
func (p *Pool) SetApr(caller common.Address, bps uint64) error {
	if err := p.requireOwner(caller); err != nil {
		return err
	}
	previous := p.AprBasisPoints
	p.AprBasisPoints = bps
	p.emit(events.AprUpdated{PreviousBps: previous, NewBps: bps})
	return p.persist()
}

// SetHarvestInterval implements spec.md §4.4.
func (p *Pool) SetHarvestInterval(caller common.Address, seconds uint64) error {
	if err := p.requireOwner(caller); err != nil {
		return err
	}
	previous := p.HarvestIntervalSeconds
	p.HarvestIntervalSeconds = seconds
	p.emit(events.HarvestIntervalUpdated{PreviousSeconds: previous, NewSeconds: seconds})
	return p.persist()
}

// TogglePause implements spec.md §4.4.
func (p *Pool) TogglePause(caller common.Address) error {
	if err := p.requireOwner(caller); err != nil {
		return err
	}
	p.Paused = !p.Paused
	p.emit(events.PauseToggled{Paused: p.Paused})
	return p.persist()
}

// WithdrawToken implements spec.md §4.4: an unconditional owner rescue, not
// gated by the pause flag, used to rescue rewards or stray tokens. Uses the
// no-trailing-period sentinel, preserved verbatim for observability
// compatibility.
func (p *Pool) WithdrawToken(caller common.Address, rescue RescueAsset, recipient common.Address, amount *uint256.Int) error {
	if caller != p.Owner {
		return stakeerrors.ErrNotOwnerWithdraw
	}
	if err := rescue.Transfer(recipient, amount); err != nil {
		return err
	}
	p.emit(events.TokenWithdrawn{Token: rescue.Address(), Recipient: recipient, Amount: amount})
	return p.persist()
}

// RescueAsset is the minimal surface withdrawToken needs from whatever
// token is being rescued — it may or may not be the pool's own BaseAsset.
type RescueAsset interface {
	Address() common.Address
	Transfer(to common.Address, amount *uint256.Int) error
}
