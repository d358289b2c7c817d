package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type callerParams struct {
	Caller string `json:"caller"`
}

type operatorParams struct {
	Caller   string `json:"caller"`
	Operator string `json:"operator"`
}

type batchOperatorParams struct {
	Caller    string   `json:"caller"`
	Operators []string `json:"operators"`
}

type batchAddParams struct {
	Caller     string   `json:"caller"`
	Indices    []uint64 `json:"indices"`
	Accounts   []string `json:"accounts"`
	Amounts    []string `json:"amounts"`
	Categories []uint8  `json:"categories"`
}

type batchRemoveParams struct {
	Caller       string   `json:"caller"`
	Indices      []uint64 `json:"indices"`
	FailOnMinted bool     `json:"failOnMinted"`
}

type mintParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Index  uint64 `json:"index"`
	Label  string `json:"label"`
}

type snapshotParams struct {
	Caller string `json:"caller"`
	Year   uint16 `json:"year"`
	Month  uint8  `json:"month"`
}

type transferOwnershipParams struct {
	Caller   string `json:"caller"`
	NewOwner string `json:"newOwner"`
}

type balanceAtParams struct {
	Account string `json:"account"`
	Block   uint64 `json:"block"`
}

type supplyAtParams struct {
	Block uint64 `json:"block"`
}

type shareParams struct {
	Year    uint16 `json:"year"`
	Month   uint8  `json:"month"`
	Account string `json:"account"`
}

type previewParams struct {
	Year       uint16 `json:"year"`
	Month      uint8  `json:"month"`
	Account    string `json:"account"`
	Allocation string `json:"allocation"`
}

type indexParams struct {
	Index uint64 `json:"index"`
}

type eventsParams struct {
	FromBlock uint64 `json:"fromBlock"`
}

type whitelistInfoResult struct {
	Found    bool   `json:"found"`
	Account  string `json:"account,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Category string `json:"category,omitempty"`
	Minted   bool   `json:"minted"`
}

type shareResult struct {
	Balance       string `json:"balance"`
	TotalSupply   string `json:"totalSupply"`
	ShareFraction string `json:"shareFraction"`
}

type snapshotResult struct {
	Block uint64 `json:"block"`
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one parameter object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(field, value string) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return [20]byte{}, fmt.Errorf("%s must be a hex address", field)
	}
	return common.HexToAddress(trimmed), nil
}

func parseAmount(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%s required", field)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %s", field, value)
	}
	return amount, nil
}

func (s *Server) handleAddAuthorizedUser(w http.ResponseWriter, req *RPCRequest) {
	var params operatorParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	operator, err := parseAddress("operator", params.Operator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.AddAuthorizedUser(caller, operator); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleBatchAddAuthorizedUsers(w http.ResponseWriter, req *RPCRequest) {
	var params batchOperatorParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	operators := make([][20]byte, 0, len(params.Operators))
	for _, raw := range params.Operators {
		operator, err := parseAddress("operator", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		operators = append(operators, operator)
	}
	if err := s.node.BatchAddAuthorizedUsers(caller, operators); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleRemoveAuthorizedUser(w http.ResponseWriter, req *RPCRequest) {
	var params operatorParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	operator, err := parseAddress("operator", params.Operator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.RemoveAuthorizedUser(caller, operator); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleBatchAddToWhitelist(w http.ResponseWriter, req *RPCRequest) {
	var params batchAddParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	accounts := make([][20]byte, 0, len(params.Accounts))
	for _, raw := range params.Accounts {
		account, err := parseAddress("account", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		accounts = append(accounts, account)
	}
	amounts := make([]*big.Int, 0, len(params.Amounts))
	for _, raw := range params.Amounts {
		amount, err := parseAmount("amount", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		amounts = append(amounts, amount)
	}
	if err := s.node.BatchAddToWhitelist(caller, params.Indices, accounts, amounts, params.Categories); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleBatchRemoveFromWhitelist(w http.ResponseWriter, req *RPCRequest) {
	var params batchRemoveParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.BatchRemoveFromWhitelist(caller, params.Indices, params.FailOnMinted); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleMint(w http.ResponseWriter, req *RPCRequest) {
	var params mintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	to, err := parseAddress("to", params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.Mint(caller, to, params.Index, params.Label); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleTakeMonthlySnapshot(w http.ResponseWriter, req *RPCRequest) {
	var params snapshotParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	block, err := s.node.TakeMonthlySnapshot(caller, params.Year, params.Month)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, snapshotResult{Block: block})
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, req *RPCRequest) {
	var params transferOwnershipParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	newOwner, err := parseAddress("newOwner", params.NewOwner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.TransferOwnership(caller, newOwner); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleBalanceOfAtBlock(w http.ResponseWriter, req *RPCRequest) {
	var params balanceAtParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := parseAddress("account", params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.BalanceOfAtBlock(account, params.Block)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, balance.String())
}

func (s *Server) handleTotalSupplyAtBlock(w http.ResponseWriter, req *RPCRequest) {
	var params supplyAtParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	supply, err := s.node.TotalSupplyAtBlock(params.Block)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, supply.String())
}

func (s *Server) handleGetMonthlySnapshotShare(w http.ResponseWriter, req *RPCRequest) {
	var params shareParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := parseAddress("account", params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, supply, share, err := s.node.GetMonthlySnapshotShare(params.Year, params.Month, account)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, shareResult{
		Balance:       balance.String(),
		TotalSupply:   supply.String(),
		ShareFraction: share.String(),
	})
}

func (s *Server) handlePreviewMonthlyReward(w http.ResponseWriter, req *RPCRequest) {
	var params previewParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := parseAddress("account", params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	allocation, err := parseAmount("allocation", params.Allocation)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	reward, err := s.node.PreviewMonthlyReward(params.Year, params.Month, account, allocation)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, reward.String())
}

func (s *Server) handleGetWhitelistInfo(w http.ResponseWriter, req *RPCRequest) {
	var params indexParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	entry, minted, found, err := s.node.GetWhitelistInfo(params.Index)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	result := whitelistInfoResult{Found: found, Minted: minted}
	if found {
		result.Account = common.BytesToAddress(entry.Account[:]).Hex()
		result.Amount = entry.Amount.String()
		result.Category = entry.Category.String()
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleNextIndex(w http.ResponseWriter, req *RPCRequest) {
	next, err := s.node.NextIndex()
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, next)
}

func (s *Server) handleHeight(w http.ResponseWriter, req *RPCRequest) {
	writeResult(w, req.ID, s.node.Height())
}

func (s *Server) handleGetEvents(w http.ResponseWriter, req *RPCRequest) {
	params := eventsParams{}
	if len(req.Params) > 0 {
		if err := decodeParams(req, &params); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
	}
	writeResult(w, req.ID, s.node.Events(params.FromBlock))
}
