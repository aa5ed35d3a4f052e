package staking

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gtonstaking/storage"
)

// Store persists Pool state across restarts. Satisfied by LevelDBStore
// (production) or left nil for a purely in-memory engine (tests).
type Store interface {
	Save(p *Pool) error
	Load() (*snapshot, error)
}

const poolKey = "staking/pool"

// snapshot is the wire representation of a Pool, decoupled from the live
// in-memory maps so it can be JSON-encoded.
type snapshot struct {
	Owner                     common.Address                        `json:"owner"`
	Decimals                  uint8                                  `json:"decimals"`
	TotalAmount               string                                 `json:"totalAmount"`
	AprBasisPoints            uint64                                 `json:"aprBasisPoints"`
	HarvestIntervalSeconds    uint64                                 `json:"harvestIntervalSeconds"`
	AccumulatedRewardPerShare string                                 `json:"accumulatedRewardPerShare"`
	LastRewardTimestamp       uint64                                 `json:"lastRewardTimestamp"`
	Paused                    bool                                   `json:"paused"`
	Holders                   map[string]holderSnapshot             `json:"holders"`
	Allowances                map[string]map[string]string          `json:"allowances"`
}

type holderSnapshot struct {
	Amount               string `json:"amount"`
	RewardDebt           string `json:"rewardDebt"`
	AccumulatedReward    string `json:"accumulatedReward"`
	LastHarvestTimestamp uint64 `json:"lastHarvestTimestamp"`
}

func toSnapshot(p *Pool) *snapshot {
	s := &snapshot{
		Owner:                     p.Owner,
		Decimals:                  p.Decimals,
		TotalAmount:               p.TotalAmount.Hex(),
		AprBasisPoints:            p.AprBasisPoints,
		HarvestIntervalSeconds:    p.HarvestIntervalSeconds,
		AccumulatedRewardPerShare: p.AccumulatedRewardPerShare.Hex(),
		LastRewardTimestamp:       p.LastRewardTimestamp,
		Paused:                    p.Paused,
		Holders:                   make(map[string]holderSnapshot, len(p.holders)),
		Allowances:                make(map[string]map[string]string, len(p.allowances)),
	}
	for addr, h := range p.holders {
		s.Holders[addr.Hex()] = holderSnapshot{
			Amount:               h.Amount.Hex(),
			RewardDebt:           h.RewardDebt.Hex(),
			AccumulatedReward:    h.AccumulatedReward.Hex(),
			LastHarvestTimestamp: h.LastHarvestTimestamp,
		}
	}
	for owner, spenders := range p.allowances {
		row := make(map[string]string, len(spenders))
		for spender, amount := range spenders {
			row[spender.Hex()] = amount.Hex()
		}
		s.Allowances[owner.Hex()] = row
	}
	return s
}

func parseU256(hex string) (*uint256.Int, error) {
	v, overflow := uint256.FromHex(hex)
	if overflow {
		return nil, fmt.Errorf("staking: value %q overflows uint256", hex)
	}
	return v, nil
}

// applyTo restores a Pool's mutable fields from the snapshot. The Pool's
// BaseAsset, Clock, and Emitter must already be set by the caller.
func (s *snapshot) applyTo(p *Pool) error {
	total, err := parseU256(s.TotalAmount)
	if err != nil {
		return err
	}
	arps, err := parseU256(s.AccumulatedRewardPerShare)
	if err != nil {
		return err
	}
	p.Owner = s.Owner
	p.Decimals = s.Decimals
	p.TotalAmount = total
	p.AprBasisPoints = s.AprBasisPoints
	p.HarvestIntervalSeconds = s.HarvestIntervalSeconds
	p.AccumulatedRewardPerShare = arps
	p.LastRewardTimestamp = s.LastRewardTimestamp
	p.Paused = s.Paused

	p.holders = make(map[common.Address]*Holder, len(s.Holders))
	for addrHex, hs := range s.Holders {
		amount, err := parseU256(hs.Amount)
		if err != nil {
			return err
		}
		debt, err := parseU256(hs.RewardDebt)
		if err != nil {
			return err
		}
		accum, err := parseU256(hs.AccumulatedReward)
		if err != nil {
			return err
		}
		p.holders[common.HexToAddress(addrHex)] = &Holder{
			Amount:               amount,
			RewardDebt:           debt,
			AccumulatedReward:    accum,
			LastHarvestTimestamp: hs.LastHarvestTimestamp,
		}
	}

	p.allowances = make(map[common.Address]map[common.Address]*uint256.Int, len(s.Allowances))
	for ownerHex, spenders := range s.Allowances {
		row := make(map[common.Address]*uint256.Int, len(spenders))
		for spenderHex, amountHex := range spenders {
			amount, err := parseU256(amountHex)
			if err != nil {
				return err
			}
			row[common.HexToAddress(spenderHex)] = amount
		}
		p.allowances[common.HexToAddress(ownerHex)] = row
	}
	return nil
}

// LevelDBStore persists a Pool's snapshot as a single JSON blob under the
// storage.Database the teacher's storage package already provides.
type LevelDBStore struct {
	db storage.Database
}

// NewLevelDBStore wraps a storage.Database (MemDB or LevelDB) as a Store.
func NewLevelDBStore(db storage.Database) *LevelDBStore {
	return &LevelDBStore{db: db}
}

// Save encodes and writes the pool snapshot.
func (s *LevelDBStore) Save(p *Pool) error {
	data, err := json.Marshal(toSnapshot(p))
	if err != nil {
		return fmt.Errorf("staking: encode snapshot: %w", err)
	}
	return s.db.Put([]byte(poolKey), data)
}

// Load reads and decodes the most recently saved pool snapshot, if any.
func (s *LevelDBStore) Load() (*snapshot, error) {
	data, err := s.db.Get([]byte(poolKey))
	if err != nil {
		return nil, nil
	}
	snap := &snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("staking: decode snapshot: %w", err)
	}
	return snap, nil
}

// LoadInto restores a previously saved snapshot into a freshly constructed
// Pool (whose BaseAsset/Clock/Emitter are already configured).
func LoadInto(p *Pool, s Store) (bool, error) {
	snap, err := s.Load()
	if err != nil {
		return false, err
	}
	if snap == nil {
		return false, nil
	}
	if err := snap.applyTo(p); err != nil {
		return false, err
	}
	return true, nil
}
