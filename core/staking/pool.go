// Package staking implements the reward-accounting state machine described
// in spec.md: a shared pool of a base asset (GTON) that accrues yield at a
// configurable APR and presents itself as a second, derived fungible share
// token whose balance equals principal plus pending reward.
package staking

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	stakeerrors "gtonstaking/core/errors"
	"gtonstaking/core/events"
)

// DefaultAprBasisPoints is the APR applied to a freshly constructed pool.
const DefaultAprBasisPoints = 2500

// DefaultHarvestIntervalSeconds is the harvest cooldown applied to a freshly
// constructed pool (24h).
const DefaultHarvestIntervalSeconds = 86400

// Clock supplies the current time to the engine so tests can substitute a
// deterministic source, per spec.md §9.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// Holder is the per-address record described in spec.md §3.
type Holder struct {
	Amount              *uint256.Int
	RewardDebt          *uint256.Int
	AccumulatedReward   *uint256.Int
	LastHarvestTimestamp uint64
}

func newHolder() *Holder {
	return &Holder{
		Amount:            uint256.NewInt(0),
		RewardDebt:        uint256.NewInt(0),
		AccumulatedReward: uint256.NewInt(0),
	}
}

func (h *Holder) clone() *Holder {
	if h == nil {
		return newHolder()
	}
	return &Holder{
		Amount:               cloneU256(h.Amount),
		RewardDebt:           cloneU256(h.RewardDebt),
		AccumulatedReward:    cloneU256(h.AccumulatedReward),
		LastHarvestTimestamp: h.LastHarvestTimestamp,
	}
}

// Pool is the singleton pool state described in spec.md §3.
type Pool struct {
	Owner     common.Address
	BaseAsset BaseAsset
	Decimals  uint8

	TotalAmount               *uint256.Int
	AprBasisPoints            uint64
	HarvestIntervalSeconds    uint64
	AccumulatedRewardPerShare *uint256.Int
	LastRewardTimestamp       uint64
	Paused                    bool

	holders    map[common.Address]*Holder
	allowances map[common.Address]map[common.Address]*uint256.Int

	clock   Clock
	emitter events.Emitter
	store   Store
}

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithClock overrides the default SystemClock.
func WithClock(c Clock) Option {
	return func(p *Pool) { p.clock = c }
}

// WithEmitter overrides the default NoopEmitter.
func WithEmitter(e events.Emitter) Option {
	return func(p *Pool) { p.emitter = e }
}

// WithStore attaches a persistence backend; when set, every mutator
// persists the fresh pool/holder state after it commits in memory.
func WithStore(s Store) Option {
	return func(p *Pool) { p.store = s }
}

// NewPool constructs a pool bound to the given base asset and owner, per
// spec.md §3's lifecycle: lastRewardTimestamp = now, all other numeric
// fields zero except the documented defaults.
func NewPool(baseAsset BaseAsset, owner common.Address, opts ...Option) (*Pool, error) {
	if baseAsset == nil {
		return nil, fmt.Errorf("staking: base asset is required")
	}
	p := &Pool{
		Owner:                  owner,
		BaseAsset:              baseAsset,
		Decimals:               baseAsset.Decimals(),
		TotalAmount:            uint256.NewInt(0),
		AprBasisPoints:         DefaultAprBasisPoints,
		HarvestIntervalSeconds: DefaultHarvestIntervalSeconds,
		AccumulatedRewardPerShare: uint256.NewInt(0),
		holders:                   make(map[common.Address]*Holder),
		allowances:                make(map[common.Address]map[common.Address]*uint256.Int),
		clock:                     SystemClock{},
		emitter:                   events.NoopEmitter{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.LastRewardTimestamp = uint64(p.clock.Now().UTC().Unix())
	return p, nil
}

func (p *Pool) now() uint64 {
	return uint64(p.clock.Now().UTC().Unix())
}

func (p *Pool) emit(e events.Event) {
	if p.emitter == nil {
		return
	}
	p.emitter.Emit(e)
}

// holder returns the holder record for addr, materializing it lazily on
// first touch per spec.md §3's lifecycle note.
func (p *Pool) holder(addr common.Address) *Holder {
	h, ok := p.holders[addr]
	if !ok {
		h = newHolder()
		p.holders[addr] = h
	}
	return h
}

// UserInfo returns a defensive copy of the holder record for addr. Never
// materializes a new record.
func (p *Pool) UserInfo(addr common.Address) Holder {
	h, ok := p.holders[addr]
	if !ok {
		return *newHolder()
	}
	return *h.clone()
}

func (p *Pool) requireNotPaused() error {
	if p.Paused {
		return stakeerrors.ErrPaused
	}
	return nil
}

func (p *Pool) persist() error {
	if p.store == nil {
		return nil
	}
	return p.store.Save(p)
}

// holderSnapshot captures one holder slot's pre-mutation state, present or
// absent, so rollback can restore it exactly.
type holderSnapshot struct {
	addr      common.Address
	hadHolder bool
	prev      *Holder
}

// txn captures pool- and holder-level state before a mutator applies its
// effects, so a later failure (most commonly the external BaseAsset call,
// or a principal/allowance check) can roll back every effect already
// applied in this call — the Go equivalent of the atomic transaction
// revert spec.md §5 describes.
type txn struct {
	pool       *Pool
	totalAmt   *uint256.Int
	arps       *uint256.Int
	lastReward uint64
	holders    []holderSnapshot
}

// begin snapshots the pool-level accrual fields plus every holder slot
// named in addrs. Transfer/TransferFrom pass both ends so a mid-call
// failure (the sender's principal-balance guard, most commonly) rolls
// back both holders, not just the caller's.
func (p *Pool) begin(addrs ...common.Address) *txn {
	snaps := make([]holderSnapshot, 0, len(addrs))
	for _, addr := range addrs {
		prev, hadHolder := p.holders[addr]
		snaps = append(snaps, holderSnapshot{addr: addr, hadHolder: hadHolder, prev: prev})
	}
	return &txn{
		pool:       p,
		totalAmt:   p.TotalAmount,
		arps:       p.AccumulatedRewardPerShare,
		lastReward: p.LastRewardTimestamp,
		holders:    snaps,
	}
}

func (t *txn) rollback() {
	t.pool.TotalAmount = t.totalAmt
	t.pool.AccumulatedRewardPerShare = t.arps
	t.pool.LastRewardTimestamp = t.lastReward
	for _, s := range t.holders {
		if s.hadHolder {
			t.pool.holders[s.addr] = s.prev
		} else {
			delete(t.pool.holders, s.addr)
		}
	}
}
