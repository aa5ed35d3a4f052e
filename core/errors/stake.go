// Package errors collects the sentinel errors the staking pool surfaces to
// callers. Diagnostic strings are a stable interface: callers and tests
// pattern-match on them, so the text is never changed without a deliberate
// compatibility decision.
package errors

import stderrors "errors"

var (
	// ErrPaused is returned by every user-facing mutator while the pool is paused.
	ErrPaused = stderrors.New("Staking: contract paused.")

	// ErrNothingToDeposit guards mint against a zero-amount deposit.
	ErrNothingToDeposit = stderrors.New("Staking: Nothing to deposit")

	// ErrNothingToBurn guards burn against a zero-amount withdrawal.
	ErrNothingToBurn = stderrors.New("Staking: Nothing to burn")

	// ErrInsufficientShare is returned when burn is asked to redeem more
	// principal than the caller holds.
	ErrInsufficientShare = stderrors.New("Staking: Insufficient share")

	// ErrNothingToHarvest guards harvest against a zero-amount claim.
	ErrNothingToHarvest = stderrors.New("Staking: Nothing to harvest")

	// ErrInsufficientToHarvest is returned when harvest is asked to pay out
	// more than the holder's pending reward.
	ErrInsufficientToHarvest = stderrors.New("Staking: Insufficient to harvest")

	// ErrHarvestCooldown is returned when harvest is called again before
	// harvestInterval has elapsed since the caller's last harvest.
	ErrHarvestCooldown = stderrors.New("Staking: less than 24 hours since last harvest")

	// ErrTransferExceedsBalance mirrors the ERC20 "exceeds balance" guard;
	// it compares against principal, not full share-balance. See DESIGN.md.
	ErrTransferExceedsBalance = stderrors.New("ERC20: transfer amount exceeds balance")

	// ErrTransferExceedsAllowance mirrors the ERC20 "exceeds allowance" guard.
	ErrTransferExceedsAllowance = stderrors.New("ERC20: transfer amount exceeds allowance")

	// ErrNotOwner is returned by admin mutators (with the trailing period)
	// when the caller is not the pool owner.
	ErrNotOwner = stderrors.New("Staking: permitted to owner only.")

	// ErrNotOwnerWithdraw is the withdrawToken-specific variant without the
	// trailing period, preserved verbatim for observability compatibility.
	ErrNotOwnerWithdraw = stderrors.New("Staking: permitted to owner only")
)
