package rpc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gtonstaking/crypto"
)

// RPCRequest is the JSON-RPC 2.0 envelope accepted by the server.
type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

// RPCResponse is the JSON-RPC 2.0 envelope written back to callers.
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError mirrors the JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// HolderResult reports a single holder's position: principal amount and
// accrued-but-unharvested reward, mirroring Pool.UserInfo.
type HolderResult struct {
	Address              string `json:"address"`
	Amount               string `json:"amount"`
	AccumulatedReward    string `json:"accumulatedReward"`
	LastHarvestTimestamp uint64 `json:"lastHarvestTimestamp"`
}

// PoolResult summarises pool-wide configuration and totals.
type PoolResult struct {
	Owner                     string `json:"owner"`
	BaseAsset                 string `json:"baseAsset"`
	Decimals                  uint8  `json:"decimals"`
	TotalAmount               string `json:"totalAmount"`
	AprBasisPoints            uint64 `json:"aprBasisPoints"`
	HarvestIntervalSeconds    uint64 `json:"harvestIntervalSeconds"`
	AccumulatedRewardPerShare string `json:"accumulatedRewardPerShare"`
	LastRewardTimestamp       uint64 `json:"lastRewardTimestamp"`
	Paused                    bool   `json:"paused"`
}

// decodeBech32 parses a bech32-encoded address string into the 20-byte
// common.Address form the pool uses as its canonical identity/map-key type.
func decodeBech32(addrStr string) (common.Address, error) {
	trimmed := strings.TrimSpace(addrStr)
	if trimmed == "" {
		return common.Address{}, fmt.Errorf("address is required")
	}
	decoded, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(decoded.Bytes()), nil
}

// encodeAddress renders addr in the same bech32 convention emitted events use.
func encodeAddress(addr common.Address) string {
	return crypto.MustNewAddress(crypto.NHBPrefix, addr[:]).String()
}

// parseU256 parses a base-10 string amount into a *uint256.Int, rejecting
// blank, negative, or malformed input.
func parseU256(amount string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	value, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	return value, nil
}
