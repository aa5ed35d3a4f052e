package events

import (
	"strconv"

	"gtonstaking/core/types"
)

const (
	// TypeTransfer is emitted for every share-token balance movement: mint
	// (from the zero address), burn (to the zero address), and ordinary
	// principal transfers.
	TypeTransfer = "staking.transfer"
	// TypeApproval is emitted when an allowance is set.
	TypeApproval = "staking.approval"
	// TypeOwnershipTransferred is emitted when the pool owner changes.
	TypeOwnershipTransferred = "staking.ownershipTransferred"
	// TypeAprUpdated is emitted when the APR is reconfigured.
	TypeAprUpdated = "staking.aprUpdated"
	// TypeHarvestIntervalUpdated is emitted when the harvest cooldown changes.
	TypeHarvestIntervalUpdated = "staking.harvestIntervalUpdated"
	// TypePauseToggled is emitted whenever the pause flag flips.
	TypePauseToggled = "staking.pauseToggled"
	// TypeTokenWithdrawn is emitted by the owner rescue operation.
	TypeTokenWithdrawn = "staking.tokenWithdrawn"
)

// Transfer captures a share-token balance movement. Mint sets From to the
// zero address; burn sets To to the zero address.
type Transfer struct {
	From   [20]byte
	To     [20]byte
	Amount stringer
}

// EventType satisfies the Event interface.
func (Transfer) EventType() string { return TypeTransfer }

// Event converts the payload into a broadcastable event.
func (e Transfer) Event() *types.Event {
	return &types.Event{
		Type: TypeTransfer,
		Attributes: map[string]string{
			"from":   addressString(e.From),
			"to":     addressString(e.To),
			"amount": formatAmount(e.Amount),
		},
	}
}

// Approval captures an allowance update.
type Approval struct {
	Owner   [20]byte
	Spender [20]byte
	Amount  stringer
}

// EventType satisfies the Event interface.
func (Approval) EventType() string { return TypeApproval }

// Event converts the payload into a broadcastable event.
func (e Approval) Event() *types.Event {
	return &types.Event{
		Type: TypeApproval,
		Attributes: map[string]string{
			"owner":   addressString(e.Owner),
			"spender": addressString(e.Spender),
			"amount":  formatAmount(e.Amount),
		},
	}
}

// OwnershipTransferred captures an ownership change.
type OwnershipTransferred struct {
	PreviousOwner [20]byte
	NewOwner      [20]byte
}

// EventType satisfies the Event interface.
func (OwnershipTransferred) EventType() string { return TypeOwnershipTransferred }

// Event converts the payload into a broadcastable event.
func (e OwnershipTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeOwnershipTransferred,
		Attributes: map[string]string{
			"previousOwner": addressString(e.PreviousOwner),
			"newOwner":      addressString(e.NewOwner),
		},
	}
}

// AprUpdated captures an APR reconfiguration.
type AprUpdated struct {
	PreviousBps uint64
	NewBps      uint64
}

// EventType satisfies the Event interface.
func (AprUpdated) EventType() string { return TypeAprUpdated }

// Event converts the payload into a broadcastable event.
func (e AprUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeAprUpdated,
		Attributes: map[string]string{
			"previousBps": formatUint(e.PreviousBps),
			"newBps":      formatUint(e.NewBps),
		},
	}
}

// HarvestIntervalUpdated captures a harvest-cooldown reconfiguration.
type HarvestIntervalUpdated struct {
	PreviousSeconds uint64
	NewSeconds      uint64
}

// EventType satisfies the Event interface.
func (HarvestIntervalUpdated) EventType() string { return TypeHarvestIntervalUpdated }

// Event converts the payload into a broadcastable event.
func (e HarvestIntervalUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeHarvestIntervalUpdated,
		Attributes: map[string]string{
			"previousSeconds": formatUint(e.PreviousSeconds),
			"newSeconds":      formatUint(e.NewSeconds),
		},
	}
}

// PauseToggled captures a pause/unpause transition.
type PauseToggled struct {
	Paused bool
}

// EventType satisfies the Event interface.
func (PauseToggled) EventType() string { return TypePauseToggled }

// Event converts the payload into a broadcastable event.
func (e PauseToggled) Event() *types.Event {
	state := "false"
	if e.Paused {
		state = "true"
	}
	return &types.Event{
		Type:       TypePauseToggled,
		Attributes: map[string]string{"paused": state},
	}
}

// TokenWithdrawn captures an owner rescue of stray or reward-reserve tokens.
type TokenWithdrawn struct {
	Token     [20]byte
	Recipient [20]byte
	Amount    stringer
}

// EventType satisfies the Event interface.
func (TokenWithdrawn) EventType() string { return TypeTokenWithdrawn }

// Event converts the payload into a broadcastable event.
func (e TokenWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenWithdrawn,
		Attributes: map[string]string{
			"token":     addressString(e.Token),
			"recipient": addressString(e.Recipient),
			"amount":    formatAmount(e.Amount),
		},
	}
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
