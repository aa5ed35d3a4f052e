package rpc

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gtonstaking/core/events"
	"gtonstaking/core/staking"
	"gtonstaking/crypto"
)

const testJWTEnvVar = "RPC_TEST_JWT_SECRET"
const testJWTSecret = "rpc-test-secret"

// newTestServer wires a Server around a freshly constructed pool, enabling
// HS256 JWT auth by default so guarded mutators can be exercised without a
// real issuer, mirroring the teacher's test bootstrap convention.
func newTestServer(t testing.TB, pool *staking.Pool, emitter *events.BroadcastEmitter, cfg ServerConfig) *Server {
	t.Helper()
	if !cfg.JWT.Enable && cfg.TLSClientCAFile == "" {
		t.Setenv(testJWTEnvVar, testJWTSecret)
		cfg.JWT = JWTConfig{
			Enable:         true,
			Alg:            "HS256",
			HSSecretEnv:    testJWTEnvVar,
			Issuer:         "rpc-tests",
			Audience:       []string{"unit-tests"},
			MaxSkewSeconds: 60,
		}
	}
	if pool == nil {
		pool = newTestPool(t, common.Address{0x01})
	}
	srv, err := NewServer(pool, emitter, cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

// stubPoolCustodyAddress is the address the stub base asset treats as the
// pool's own custody account, mirroring core/staking's unexported
// mockBaseAsset fixture.
var stubPoolCustodyAddress = common.Address{0xEE}

// newTestPool builds a pool over an in-memory base asset ledger.
func newTestPool(t testing.TB, owner common.Address, opts ...staking.Option) *staking.Pool {
	pool, _ := newTestPoolWithAsset(t, owner, opts...)
	return pool
}

// newTestPoolWithAsset is the newTestPool variant that also hands back the
// stub ledger so callers can pre-fund addresses before exercising mint/burn.
func newTestPoolWithAsset(t testing.TB, owner common.Address, opts ...staking.Option) (*staking.Pool, *stubBaseAsset) {
	t.Helper()
	asset := newStubBaseAsset()
	pool, err := staking.NewPool(asset, owner, opts...)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	return pool, asset
}

var errStubInsufficientBalance = errors.New("stub: insufficient balance")

// stubBaseAsset is a minimal in-memory staking.BaseAsset, the rpc package's
// own analogue of core/staking's unexported mockBaseAsset fixture.
type stubBaseAsset struct {
	pool     common.Address
	balances map[common.Address]*uint256.Int
}

func newStubBaseAsset() *stubBaseAsset {
	return &stubBaseAsset{pool: stubPoolCustodyAddress, balances: make(map[common.Address]*uint256.Int)}
}

// creditCaller gives addr a balance in the stub ledger. The stub keeps no
// allowances, so TransferFrom only checks that balance.
func (s *stubBaseAsset) creditCaller(addr common.Address, amount uint64) {
	s.credit(addr, uint256.NewInt(amount))
}

func (s *stubBaseAsset) credit(addr common.Address, amount *uint256.Int) {
	bal, ok := s.balances[addr]
	if !ok {
		bal = uint256.NewInt(0)
	}
	s.balances[addr] = new(uint256.Int).Add(bal, amount)
}

func (s *stubBaseAsset) Decimals() uint8 { return 18 }

func (s *stubBaseAsset) Address() common.Address { return s.pool }

func (s *stubBaseAsset) BalanceOf(addr common.Address) (*uint256.Int, error) {
	bal, ok := s.balances[addr]
	if !ok {
		return uint256.NewInt(0), nil
	}
	return new(uint256.Int).Set(bal), nil
}

func (s *stubBaseAsset) TransferFrom(from common.Address, amount *uint256.Int) error {
	bal, ok := s.balances[from]
	if !ok || amount.Gt(bal) {
		return errStubInsufficientBalance
	}
	s.balances[from] = new(uint256.Int).Sub(bal, amount)
	s.credit(s.pool, amount)
	return nil
}

func (s *stubBaseAsset) Transfer(to common.Address, amount *uint256.Int) error {
	bal, ok := s.balances[s.pool]
	if !ok || amount.Gt(bal) {
		return errStubInsufficientBalance
	}
	s.balances[s.pool] = new(uint256.Int).Sub(bal, amount)
	s.credit(to, amount)
	return nil
}

func bech32Of(addr common.Address) string {
	return crypto.MustNewAddress(crypto.NHBPrefix, addr[:]).String()
}

// fixedClock lets handler tests assert against a deterministic now().
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
