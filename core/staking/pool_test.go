package staking

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	stakeerrors "gtonstaking/core/errors"
)

var (
	owner       = common.Address{0x01}
	poolAddr    = common.Address{0x02}
	alice       = common.Address{0xA1}
	bob         = common.Address{0xB2}
)

func newTestPool(t *testing.T, clock *fakeClock) (*Pool, *mockBaseAsset) {
	t.Helper()
	asset := newMockBaseAsset(poolAddr)
	p, err := NewPool(asset, owner, WithClock(clock))
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	return p, asset
}

func TestAccrualIncrementFormula(t *testing.T) {
	// 100 seconds at 1200bps (12%) APR.
	got := accrualIncrement(100, 1200)
	// CALC_DECIMALS * dt * apr / BASIS / SECONDS_PER_YEAR
	want := mulDivFloor(mulDivFloor(calcDecimalsU256, u256(100), u256(1)), u256(1200), new(uint256.Int).Mul(basisDivisorU256, secondsPerYearU))
	if !got.Eq(want) {
		t.Fatalf("accrualIncrement(100, 1200) = %s, want %s", got, want)
	}
}

func TestMintCreditsPrincipalAndDebt(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, asset := newTestPool(t, clock)
	asset.credit(alice, 1_000)

	if err := p.Mint(alice, alice, uint256.NewInt(1_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	info := p.UserInfo(alice)
	if !info.Amount.Eq(uint256.NewInt(1_000)) {
		t.Fatalf("principal = %s, want 1000", info.Amount)
	}
	if !p.TotalAmount.Eq(uint256.NewInt(1_000)) {
		t.Fatalf("totalAmount = %s, want 1000", p.TotalAmount)
	}
	wantDebt := shareOfPrincipal(info.Amount, p.AccumulatedRewardPerShare)
	if !info.RewardDebt.Eq(wantDebt) {
		t.Fatalf("rewardDebt = %s, want %s", info.RewardDebt, wantDebt)
	}
}

func TestMintZeroAmountRejected(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, _ := newTestPool(t, clock)
	if err := p.Mint(alice, alice, uint256.NewInt(0)); !errors.Is(err, stakeerrors.ErrNothingToDeposit) {
		t.Fatalf("expected ErrNothingToDeposit, got %v", err)
	}
}

func TestMintRollsBackOnTransferFromFailure(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, asset := newTestPool(t, clock)
	asset.failTransferFrom = true

	before := p.TotalAmount.Clone()
	if err := p.Mint(alice, alice, uint256.NewInt(500)); !errors.Is(err, errTransferFromFailed) {
		t.Fatalf("expected errTransferFromFailed, got %v", err)
	}
	if !p.TotalAmount.Eq(before) {
		t.Fatalf("totalAmount mutated despite rollback: %s", p.TotalAmount)
	}
	info := p.UserInfo(alice)
	if info.Amount.Sign() != 0 {
		t.Fatalf("holder principal mutated despite rollback: %s", info.Amount)
	}
}

func TestAccrualThenHarvest(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, asset := newTestPool(t, clock)
	asset.credit(alice, 1_000_000)

	if err := p.Mint(alice, alice, uint256.NewInt(1_000_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := p.SetApr(owner, 1200); err != nil {
		t.Fatalf("SetApr: %v", err)
	}

	clock.Advance(daySeconds(1))
	if err := p.UpdateRewardPool(); err != nil {
		t.Fatalf("UpdateRewardPool: %v", err)
	}

	pending := p.BalanceOf(alice)
	principal := uint256.NewInt(1_000_000)
	if !pending.Gt(principal) {
		t.Fatalf("expected accrued balance above principal, got %s", pending)
	}

	earned := new(uint256.Int).Sub(pending, principal)
	if err := p.Harvest(alice, earned); err != nil {
		t.Fatalf("Harvest: %v", err)
	}

	bal, err := asset.BalanceOf(alice)
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if !bal.Eq(earned) {
		t.Fatalf("base asset balance after harvest = %s, want %s", bal, earned)
	}
}

func TestHarvestCooldownEnforced(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, asset := newTestPool(t, clock)
	asset.credit(alice, 1_000_000)

	if err := p.Mint(alice, alice, uint256.NewInt(1_000_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	clock.Advance(daySeconds(1))
	if err := p.UpdateRewardPool(); err != nil {
		t.Fatalf("UpdateRewardPool: %v", err)
	}

	pending := new(uint256.Int).Sub(p.BalanceOf(alice), uint256.NewInt(1_000_000))
	if pending.Sign() == 0 {
		t.Fatalf("expected nonzero pending reward before first harvest")
	}
	half := new(uint256.Int).Div(pending, uint256.NewInt(2))
	if half.Sign() == 0 {
		half = uint256.NewInt(1)
	}
	if err := p.Harvest(alice, half); err != nil {
		t.Fatalf("first Harvest: %v", err)
	}

	clock.Advance(3600) // 1 hour, well under the 24h default cooldown
	if err := p.UpdateRewardPool(); err != nil {
		t.Fatalf("UpdateRewardPool: %v", err)
	}
	if err := p.Harvest(alice, uint256.NewInt(1)); !errors.Is(err, stakeerrors.ErrHarvestCooldown) {
		t.Fatalf("expected ErrHarvestCooldown, got %v", err)
	}
}

func TestBurnReturnsPrincipalAndPreservesPendingReward(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, asset := newTestPool(t, clock)
	asset.credit(alice, 1_000_000)

	if err := p.Mint(alice, alice, uint256.NewInt(1_000_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	clock.Advance(daySeconds(1))

	if err := p.Burn(alice, alice, uint256.NewInt(400_000)); err != nil {
		t.Fatalf("Burn: %v", err)
	}

	info := p.UserInfo(alice)
	if !info.Amount.Eq(uint256.NewInt(600_000)) {
		t.Fatalf("principal after burn = %s, want 600000", info.Amount)
	}
	if info.AccumulatedReward.Sign() == 0 {
		t.Fatalf("expected pending reward credited into AccumulatedReward on burn")
	}

	bal, err := asset.BalanceOf(alice)
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if !bal.Eq(uint256.NewInt(400_000)) {
		t.Fatalf("base asset balance after burn = %s, want 400000", bal)
	}
}

func TestBurnInsufficientShareRejected(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, asset := newTestPool(t, clock)
	asset.credit(alice, 1_000)
	if err := p.Mint(alice, alice, uint256.NewInt(1_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := p.Burn(alice, alice, uint256.NewInt(1_001)); !errors.Is(err, stakeerrors.ErrInsufficientShare) {
		t.Fatalf("expected ErrInsufficientShare, got %v", err)
	}
}

func TestBurnRollsBackOnTransferFailure(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, asset := newTestPool(t, clock)
	asset.credit(alice, 1_000)
	if err := p.Mint(alice, alice, uint256.NewInt(1_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	asset.failTransfer = true
	if err := p.Burn(alice, alice, uint256.NewInt(500)); !errors.Is(err, errTransferFailed) {
		t.Fatalf("expected errTransferFailed, got %v", err)
	}

	info := p.UserInfo(alice)
	if !info.Amount.Eq(uint256.NewInt(1_000)) {
		t.Fatalf("principal mutated despite rollback: %s", info.Amount)
	}
	if !p.TotalAmount.Eq(uint256.NewInt(1_000)) {
		t.Fatalf("totalAmount mutated despite rollback: %s", p.TotalAmount)
	}
}

func TestTransferSplitsPendingRewardAndMovesPrincipalOnly(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, asset := newTestPool(t, clock)
	asset.credit(alice, 1_000_000)
	if err := p.Mint(alice, alice, uint256.NewInt(1_000_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	clock.Advance(daySeconds(1))

	if err := p.Transfer(alice, bob, uint256.NewInt(300_000)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	aliceInfo := p.UserInfo(alice)
	bobInfo := p.UserInfo(bob)

	if !aliceInfo.Amount.Eq(uint256.NewInt(700_000)) {
		t.Fatalf("alice principal = %s, want 700000", aliceInfo.Amount)
	}
	if !bobInfo.Amount.Eq(uint256.NewInt(300_000)) {
		t.Fatalf("bob principal = %s, want 300000", bobInfo.Amount)
	}
	if aliceInfo.AccumulatedReward.Sign() == 0 {
		t.Fatalf("expected alice's pre-transfer pending reward credited")
	}
	if !p.TotalAmount.Eq(uint256.NewInt(1_000_000)) {
		t.Fatalf("totalAmount should be unchanged by a transfer, got %s", p.TotalAmount)
	}
}

func TestTransferExceedsPrincipalRejectedEvenWithPendingReward(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, asset := newTestPool(t, clock)
	asset.credit(alice, 1_000_000)
	if err := p.Mint(alice, alice, uint256.NewInt(1_000_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	clock.Advance(daySeconds(30))

	// Balance (principal + pending) now exceeds principal, but transfer must
	// still compare against principal only.
	if err := p.Transfer(alice, bob, uint256.NewInt(1_000_001)); !errors.Is(err, stakeerrors.ErrTransferExceedsBalance) {
		t.Fatalf("expected ErrTransferExceedsBalance, got %v", err)
	}
}

func TestTransferRollsBackArpsOnExceedsBalanceFailure(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, asset := newTestPool(t, clock)
	asset.credit(alice, 1_000_000)
	if err := p.Mint(alice, alice, uint256.NewInt(1_000_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := p.SetApr(owner, 1200); err != nil {
		t.Fatalf("SetApr: %v", err)
	}
	clock.Advance(daySeconds(30))

	beforeArps := p.AccumulatedRewardPerShare.Clone()
	beforeLastReward := p.LastRewardTimestamp
	beforeAlice := p.UserInfo(alice)

	if err := p.Transfer(alice, bob, uint256.NewInt(1_000_001)); !errors.Is(err, stakeerrors.ErrTransferExceedsBalance) {
		t.Fatalf("expected ErrTransferExceedsBalance, got %v", err)
	}

	if !p.AccumulatedRewardPerShare.Eq(beforeArps) {
		t.Fatalf("ARPS mutated despite rollback: %s, want %s", p.AccumulatedRewardPerShare, beforeArps)
	}
	if p.LastRewardTimestamp != beforeLastReward {
		t.Fatalf("lastRewardTimestamp mutated despite rollback: %d, want %d", p.LastRewardTimestamp, beforeLastReward)
	}
	afterAlice := p.UserInfo(alice)
	if !afterAlice.AccumulatedReward.Eq(beforeAlice.AccumulatedReward) {
		t.Fatalf("alice's accumulated reward mutated despite rollback: %s, want %s", afterAlice.AccumulatedReward, beforeAlice.AccumulatedReward)
	}
	if !afterAlice.RewardDebt.Eq(beforeAlice.RewardDebt) {
		t.Fatalf("alice's rewardDebt mutated despite rollback: %s, want %s", afterAlice.RewardDebt, beforeAlice.RewardDebt)
	}
	bobInfo := p.UserInfo(bob)
	if bobInfo.Amount.Sign() != 0 {
		t.Fatalf("bob should not have been created by a failed transfer, got amount %s", bobInfo.Amount)
	}
}

func TestTransferFromRollsBackOnExceedsBalanceFailure(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, asset := newTestPool(t, clock)
	asset.credit(alice, 1_000_000)
	if err := p.Mint(alice, alice, uint256.NewInt(1_000_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := p.Approve(alice, bob, uint256.NewInt(1_000_001)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := p.SetApr(owner, 1200); err != nil {
		t.Fatalf("SetApr: %v", err)
	}
	clock.Advance(daySeconds(30))

	beforeArps := p.AccumulatedRewardPerShare.Clone()

	if err := p.TransferFrom(bob, alice, bob, uint256.NewInt(1_000_001)); !errors.Is(err, stakeerrors.ErrTransferExceedsBalance) {
		t.Fatalf("expected ErrTransferExceedsBalance, got %v", err)
	}

	if !p.AccumulatedRewardPerShare.Eq(beforeArps) {
		t.Fatalf("ARPS mutated despite rollback: %s, want %s", p.AccumulatedRewardPerShare, beforeArps)
	}
	aliceInfo := p.UserInfo(alice)
	if !aliceInfo.Amount.Eq(uint256.NewInt(1_000_000)) {
		t.Fatalf("alice principal mutated despite rollback: %s", aliceInfo.Amount)
	}
	allowance := p.Allowance(alice, bob)
	if !allowance.Eq(uint256.NewInt(1_000_001)) {
		t.Fatalf("allowance spent despite rollback: %s", allowance)
	}
}

func TestSelfTransferIsNoopOnPrincipalButCreditsPendingOnce(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, asset := newTestPool(t, clock)
	asset.credit(alice, 1_000_000)
	if err := p.Mint(alice, alice, uint256.NewInt(1_000_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	clock.Advance(daySeconds(1))

	if err := p.Transfer(alice, alice, uint256.NewInt(1_000_000)); err != nil {
		t.Fatalf("self Transfer: %v", err)
	}
	info := p.UserInfo(alice)
	if !info.Amount.Eq(uint256.NewInt(1_000_000)) {
		t.Fatalf("principal after self-transfer = %s, want unchanged 1000000", info.Amount)
	}
	if info.AccumulatedReward.Sign() == 0 {
		t.Fatalf("expected pending reward credited exactly once on self-transfer")
	}
}

func TestApproveAllowanceTransferFrom(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, asset := newTestPool(t, clock)
	asset.credit(alice, 1_000)
	if err := p.Mint(alice, alice, uint256.NewInt(1_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if err := p.Approve(alice, bob, uint256.NewInt(400)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got := p.Allowance(alice, bob); !got.Eq(uint256.NewInt(400)) {
		t.Fatalf("allowance = %s, want 400", got)
	}

	if err := p.TransferFrom(bob, alice, bob, uint256.NewInt(300)); err != nil {
		t.Fatalf("TransferFrom: %v", err)
	}
	if got := p.Allowance(alice, bob); !got.Eq(uint256.NewInt(100)) {
		t.Fatalf("allowance after spend = %s, want 100", got)
	}

	if err := p.TransferFrom(bob, alice, bob, uint256.NewInt(200)); !errors.Is(err, stakeerrors.ErrTransferExceedsAllowance) {
		t.Fatalf("expected ErrTransferExceedsAllowance, got %v", err)
	}
}

func TestPauseBlocksAllMutators(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, asset := newTestPool(t, clock)
	asset.credit(alice, 1_000)
	if err := p.Mint(alice, alice, uint256.NewInt(1_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := p.TogglePause(owner); err != nil {
		t.Fatalf("TogglePause: %v", err)
	}
	if !p.Paused {
		t.Fatalf("expected pool paused")
	}

	if err := p.Mint(alice, alice, uint256.NewInt(1)); !errors.Is(err, stakeerrors.ErrPaused) {
		t.Fatalf("Mint: expected ErrPaused, got %v", err)
	}
	if err := p.Burn(alice, alice, uint256.NewInt(1)); !errors.Is(err, stakeerrors.ErrPaused) {
		t.Fatalf("Burn: expected ErrPaused, got %v", err)
	}
	if err := p.Harvest(alice, uint256.NewInt(1)); !errors.Is(err, stakeerrors.ErrPaused) {
		t.Fatalf("Harvest: expected ErrPaused, got %v", err)
	}
	if err := p.Transfer(alice, bob, uint256.NewInt(1)); !errors.Is(err, stakeerrors.ErrPaused) {
		t.Fatalf("Transfer: expected ErrPaused, got %v", err)
	}
	if err := p.Approve(alice, bob, uint256.NewInt(1)); !errors.Is(err, stakeerrors.ErrPaused) {
		t.Fatalf("Approve: expected ErrPaused, got %v", err)
	}
	if err := p.TransferFrom(bob, alice, bob, uint256.NewInt(1)); !errors.Is(err, stakeerrors.ErrPaused) {
		t.Fatalf("TransferFrom: expected ErrPaused, got %v", err)
	}

	// Admin ops are not gated by pause; WithdrawToken still runs.
	rescue := newMockBaseAsset(poolAddr)
	rescue.credit(poolAddr, 50)
	if err := p.WithdrawToken(owner, rescue, owner, uint256.NewInt(50)); err != nil {
		t.Fatalf("WithdrawToken while paused: %v", err)
	}
}

func TestOnlyOwnerCanAdminister(t *testing.T) {
	clock := newFakeClock(1_700_000_000)
	p, _ := newTestPool(t, clock)

	if err := p.SetApr(alice, 100); !errors.Is(err, stakeerrors.ErrNotOwner) {
		t.Fatalf("SetApr: expected ErrNotOwner, got %v", err)
	}
	if err := p.SetHarvestInterval(alice, 1); !errors.Is(err, stakeerrors.ErrNotOwner) {
		t.Fatalf("SetHarvestInterval: expected ErrNotOwner, got %v", err)
	}
	if err := p.TogglePause(alice); !errors.Is(err, stakeerrors.ErrNotOwner) {
		t.Fatalf("TogglePause: expected ErrNotOwner, got %v", err)
	}
	if err := p.TransferOwnership(alice, bob); !errors.Is(err, stakeerrors.ErrNotOwner) {
		t.Fatalf("TransferOwnership: expected ErrNotOwner, got %v", err)
	}

	rescue := newMockBaseAsset(poolAddr)
	if err := p.WithdrawToken(alice, rescue, alice, uint256.NewInt(1)); !errors.Is(err, stakeerrors.ErrNotOwnerWithdraw) {
		t.Fatalf("WithdrawToken: expected ErrNotOwnerWithdraw, got %v", err)
	}
}

func TestSetAprDoesNotRetroactivelyReconcilePriorPeriod(t *testing.T) {
	// Locked-in Open Question decision: SetApr does not call
	// updateRewardPool first, so elapsed time since lastRewardTimestamp is
	// credited entirely at the new rate on the next accrual, not split
	// proportionally across the old and new rate.
	clock := newFakeClock(1_700_000_000)
	p, asset := newTestPool(t, clock)
	asset.credit(alice, 1_000_000)
	if err := p.Mint(alice, alice, uint256.NewInt(1_000_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	clock.Advance(daySeconds(10))
	if err := p.SetApr(owner, 9000); err != nil {
		t.Fatalf("SetApr: %v", err)
	}
	if err := p.UpdateRewardPool(); err != nil {
		t.Fatalf("UpdateRewardPool: %v", err)
	}

	want := accrualIncrement(10*86400, 9000)
	if !p.AccumulatedRewardPerShare.Eq(want) {
		t.Fatalf("ARPS = %s, want entire 10-day gap credited at the new rate: %s", p.AccumulatedRewardPerShare, want)
	}
}

func daySeconds(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }
