package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/holiman/uint256"

	stakeerrors "gtonstaking/core/errors"
	"gtonstaking/core/staking"
	"gtonstaking/observability/metrics"
)

const stakingModulePausedMessage = "staking module paused"

// dispatchTable maps JSON-RPC method names to handlers. Read-only queries
// (balanceOf, totalSupply, allowance, decimals, poolInfo, userInfo) skip
// auth and rate limiting; every mutator requires a bearer token (or mTLS)
// and is subject to per-source rate limiting.
var dispatchTable = map[string]func(*Server, http.ResponseWriter, *http.Request, *RPCRequest){
	"staking_decimals":    (*Server).handleDecimals,
	"staking_balanceOf":   (*Server).handleBalanceOf,
	"staking_totalSupply": (*Server).handleTotalSupply,
	"staking_allowance":   (*Server).handleAllowance,
	"staking_userInfo":    (*Server).handleUserInfo,
	"staking_poolInfo":    (*Server).handlePoolInfo,

	"staking_mint":         (*Server).handleMint,
	"staking_burn":         (*Server).handleBurn,
	"staking_harvest":      (*Server).handleHarvest,
	"staking_transfer":     (*Server).handleTransfer,
	"staking_transferFrom": (*Server).handleTransferFrom,
	"staking_approve":      (*Server).handleApprove,
	"staking_updateRewardPool": (*Server).handleUpdateRewardPool,

	"staking_transferOwnership": (*Server).handleTransferOwnership,
	"staking_setApr":            (*Server).handleSetApr,
	"staking_setHarvestInterval": (*Server).handleSetHarvestInterval,
	"staking_togglePause":       (*Server).handleTogglePause,
	"staking_withdrawToken":     (*Server).handleWithdrawToken,
}

func (s *Server) guardMutator(w http.ResponseWriter, r *http.Request, req *RPCRequest) (*http.Request, bool) {
	updated, authErr := s.requireAuth(r)
	if authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return nil, false
	}
	source := s.clientSource(updated)
	if !s.allowSource(source, time.Now()) {
		writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "rate limit exceeded", source)
		return nil, false
	}
	return updated, true
}

// writeMutatorError maps a pool sentinel error onto the JSON-RPC error
// codes the server's conventions reserve: paused state gets its own code,
// everything else is a plain invalid-params rejection.
func (s *Server) writeMutatorError(w http.ResponseWriter, id interface{}, operation string, err error) {
	metrics.Staking().ObserveRejection(operation, err.Error())
	switch err {
	case stakeerrors.ErrPaused:
		writeError(w, http.StatusServiceUnavailable, id, codeModulePaused, stakingModulePausedMessage, nil)
	default:
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, err.Error(), nil)
	}
}

type addressParam struct {
	Address string `json:"address"`
}

func (s *Server) handleDecimals(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	writeResult(w, req.ID, s.pool.DecimalsOf())
}

func (s *Server) handleBalanceOf(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "address parameter required", nil)
		return
	}
	var params addressParam
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	writeResult(w, req.ID, s.pool.BalanceOf(addr).Dec())
}

func (s *Server) handleTotalSupply(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	writeResult(w, req.ID, s.pool.TotalSupply().Dec())
}

type allowanceParams struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params allowanceParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	owner, err := decodeBech32(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner address", err.Error())
		return
	}
	spender, err := decodeBech32(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spender address", err.Error())
		return
	}
	writeResult(w, req.ID, s.pool.Allowance(owner, spender).Dec())
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "address parameter required", nil)
		return
	}
	var params addressParam
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	holder := s.pool.UserInfo(addr)
	writeResult(w, req.ID, HolderResult{
		Address:              params.Address,
		Amount:               holder.Amount.Dec(),
		AccumulatedReward:    holder.AccumulatedReward.Dec(),
		LastHarvestTimestamp: holder.LastHarvestTimestamp,
	})
}

func (s *Server) handlePoolInfo(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	p := s.pool
	writeResult(w, req.ID, PoolResult{
		Owner:                     encodeAddress(p.Owner),
		BaseAsset:                 encodeAddress(p.BaseAsset.Address()),
		Decimals:                  p.DecimalsOf(),
		TotalAmount:               p.TotalAmount.Dec(),
		AprBasisPoints:            p.AprBasisPoints,
		HarvestIntervalSeconds:    p.HarvestIntervalSeconds,
		AccumulatedRewardPerShare: p.AccumulatedRewardPerShare.Dec(),
		LastRewardTimestamp:       p.LastRewardTimestamp,
		Paused:                    p.Paused,
	})
}

type mintParams struct {
	Caller      string              `json:"caller"`
	Beneficiary string              `json:"beneficiary,omitempty"`
	Amount      string              `json:"amount"`
	Meta        callerMetadataParams `json:"meta,omitempty"`
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	updated, ok := s.guardMutator(w, r, req)
	if !ok {
		return
	}
	r = updated
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params mintParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	beneficiary := caller
	if params.Beneficiary != "" {
		beneficiary, err = decodeBech32(params.Beneficiary)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid beneficiary address", err.Error())
			return
		}
	}
	amount, err := parseU256(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.validateCallerMetadata(callerKeyFromAddress(caller), params.Meta); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.pool.Mint(caller, beneficiary, amount); err != nil {
		s.writeMutatorError(w, req.ID, "mint", err)
		return
	}
	metrics.Staking().ObserveMint()
	writeResult(w, req.ID, map[string]string{"beneficiary": encodeAddress(beneficiary), "amount": amount.Dec()})
}

type burnParams struct {
	Caller    string               `json:"caller"`
	Recipient string               `json:"recipient,omitempty"`
	Amount    string               `json:"amount"`
	Meta      callerMetadataParams `json:"meta,omitempty"`
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	updated, ok := s.guardMutator(w, r, req)
	if !ok {
		return
	}
	r = updated
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params burnParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	recipient := caller
	if params.Recipient != "" {
		recipient, err = decodeBech32(params.Recipient)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
			return
		}
	}
	amount, err := parseU256(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.validateCallerMetadata(callerKeyFromAddress(caller), params.Meta); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.pool.Burn(caller, recipient, amount); err != nil {
		s.writeMutatorError(w, req.ID, "burn", err)
		return
	}
	metrics.Staking().ObserveBurn()
	writeResult(w, req.ID, map[string]string{"recipient": encodeAddress(recipient), "amount": amount.Dec()})
}

type harvestParams struct {
	Caller string               `json:"caller"`
	Amount string               `json:"amount"`
	Meta   callerMetadataParams `json:"meta,omitempty"`
}

func (s *Server) handleHarvest(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	updated, ok := s.guardMutator(w, r, req)
	if !ok {
		return
	}
	r = updated
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params harvestParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	amount, err := parseU256(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.validateCallerMetadata(callerKeyFromAddress(caller), params.Meta); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.pool.Harvest(caller, amount); err != nil {
		s.writeMutatorError(w, req.ID, "harvest", err)
		return
	}
	metrics.Staking().ObserveHarvest(harvestPayoutFloat(amount))
	writeResult(w, req.ID, map[string]string{"harvested": amount.Dec()})
}

func harvestPayoutFloat(amount *uint256.Int) float64 {
	f := new(big.Float).SetInt(amount.ToBig())
	v, _ := f.Float64()
	return v
}

type transferParams struct {
	Caller string               `json:"caller"`
	To     string               `json:"to"`
	Amount string               `json:"amount"`
	Meta   callerMetadataParams `json:"meta,omitempty"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	updated, ok := s.guardMutator(w, r, req)
	if !ok {
		return
	}
	r = updated
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params transferParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	to, err := decodeBech32(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	amount, err := parseU256(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.validateCallerMetadata(callerKeyFromAddress(caller), params.Meta); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.pool.Transfer(caller, to, amount); err != nil {
		s.writeMutatorError(w, req.ID, "transfer", err)
		return
	}
	metrics.Staking().ObserveTransfer()
	writeResult(w, req.ID, map[string]string{"to": encodeAddress(to), "amount": amount.Dec()})
}

type transferFromParams struct {
	Caller string               `json:"caller"`
	From   string               `json:"from"`
	To     string               `json:"to"`
	Amount string               `json:"amount"`
	Meta   callerMetadataParams `json:"meta,omitempty"`
}

func (s *Server) handleTransferFrom(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	updated, ok := s.guardMutator(w, r, req)
	if !ok {
		return
	}
	r = updated
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params transferFromParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	from, err := decodeBech32(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid from address", err.Error())
		return
	}
	to, err := decodeBech32(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	amount, err := parseU256(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.validateCallerMetadata(callerKeyFromAddress(caller), params.Meta); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.pool.TransferFrom(caller, from, to, amount); err != nil {
		s.writeMutatorError(w, req.ID, "transferFrom", err)
		return
	}
	metrics.Staking().ObserveTransfer()
	writeResult(w, req.ID, map[string]string{"from": encodeAddress(from), "to": encodeAddress(to), "amount": amount.Dec()})
}

type approveParams struct {
	Caller  string `json:"caller"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	updated, ok := s.guardMutator(w, r, req)
	if !ok {
		return
	}
	r = updated
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params approveParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	spender, err := decodeBech32(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spender address", err.Error())
		return
	}
	amount, err := parseU256(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.pool.Approve(caller, spender, amount); err != nil {
		s.writeMutatorError(w, req.ID, "approve", err)
		return
	}
	writeResult(w, req.ID, map[string]string{"spender": encodeAddress(spender), "amount": amount.Dec()})
}

type ownerParams struct {
	Caller   string `json:"caller"`
	NewOwner string `json:"newOwner"`
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	updated, ok := s.guardMutator(w, r, req)
	if !ok {
		return
	}
	r = updated
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params ownerParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	newOwner, err := decodeBech32(params.NewOwner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid newOwner address", err.Error())
		return
	}
	if err := s.pool.TransferOwnership(caller, newOwner); err != nil {
		s.writeMutatorError(w, req.ID, "transferOwnership", err)
		return
	}
	writeResult(w, req.ID, map[string]string{"owner": encodeAddress(newOwner)})
}

type setAprParams struct {
	Caller         string `json:"caller"`
	AprBasisPoints uint64 `json:"aprBasisPoints"`
}

func (s *Server) handleSetApr(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	updated, ok := s.guardMutator(w, r, req)
	if !ok {
		return
	}
	r = updated
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params setAprParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.pool.SetApr(caller, params.AprBasisPoints); err != nil {
		s.writeMutatorError(w, req.ID, "setApr", err)
		return
	}
	metrics.Staking().SetAprBasisPoints(params.AprBasisPoints)
	writeResult(w, req.ID, map[string]uint64{"aprBasisPoints": params.AprBasisPoints})
}

type setHarvestIntervalParams struct {
	Caller                 string `json:"caller"`
	HarvestIntervalSeconds uint64 `json:"harvestIntervalSeconds"`
}

func (s *Server) handleSetHarvestInterval(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	updated, ok := s.guardMutator(w, r, req)
	if !ok {
		return
	}
	r = updated
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params setHarvestIntervalParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.pool.SetHarvestInterval(caller, params.HarvestIntervalSeconds); err != nil {
		s.writeMutatorError(w, req.ID, "setHarvestInterval", err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"harvestIntervalSeconds": params.HarvestIntervalSeconds})
}

func (s *Server) handleTogglePause(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	updated, ok := s.guardMutator(w, r, req)
	if !ok {
		return
	}
	r = updated
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params addressParam
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.pool.TogglePause(caller); err != nil {
		s.writeMutatorError(w, req.ID, "togglePause", err)
		return
	}
	metrics.Staking().SetPaused(s.pool.Paused)
	writeResult(w, req.ID, map[string]bool{"paused": s.pool.Paused})
}

// handleUpdateRewardPool exposes the Reward Accumulator as a standalone sync
// point with no owner check: any authenticated caller may advance ARPS to
// now without otherwise mutating a holder, which is useful for indexers and
// explorers that want a fresh accrual snapshot between lifecycle calls. Like
// every mutator it requires auth and is rate limited.
func (s *Server) handleUpdateRewardPool(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	updated, ok := s.guardMutator(w, r, req)
	if !ok {
		return
	}
	r = updated
	if err := s.pool.UpdateRewardPool(); err != nil {
		s.writeMutatorError(w, req.ID, "updateRewardPool", err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"accumulatedRewardPerShare": s.pool.AccumulatedRewardPerShare.Dec(),
		"lastRewardTimestamp":       new(big.Int).SetUint64(s.pool.LastRewardTimestamp).String(),
	})
}

type withdrawTokenParams struct {
	Caller    string `json:"caller"`
	Token     string `json:"token"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// handleWithdrawToken resolves the token parameter to a staking.RescueAsset
// and delegates to the pool's owner-only rescue path. This deployment only
// ever custodies one ledger (the pool's own BaseAsset), so the only
// resolvable rescue target is that same ledger — naming a different token
// address is rejected rather than silently rescuing the wrong asset.
func (s *Server) handleWithdrawToken(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	updated, ok := s.guardMutator(w, r, req)
	if !ok {
		return
	}
	r = updated
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params withdrawTokenParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	recipient, err := decodeBech32(params.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	amount, err := parseU256(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	rescue, err := s.resolveRescueAsset(params.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.pool.WithdrawToken(caller, rescue, recipient, amount); err != nil {
		s.writeMutatorError(w, req.ID, "withdrawToken", err)
		return
	}
	writeResult(w, req.ID, map[string]string{"recipient": encodeAddress(recipient), "amount": amount.Dec()})
}

func (s *Server) resolveRescueAsset(token string) (staking.RescueAsset, error) {
	addr, err := decodeBech32(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token address: %w", err)
	}
	if addr == s.pool.BaseAsset.Address() {
		return s.pool.BaseAsset, nil
	}
	return nil, fmt.Errorf("unsupported rescue token %s", token)
}
