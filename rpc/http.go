package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rewardmint/core"
	"rewardmint/native/entitlement"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

// Server exposes the entitlement contract over JSON-RPC 2.0. State-changing
// methods require the bearer token from REWARDMINT_RPC_TOKEN when one is
// configured; read methods are open.
type Server struct {
	node      *core.Node
	authToken string
}

func NewServer(node *core.Node) *Server {
	return &Server{
		node:      node,
		authToken: strings.TrimSpace(os.Getenv("REWARDMINT_RPC_TOKEN")),
	}
}

// Start serves JSON-RPC on addr, with Prometheus metrics on /metrics and a
// liveness probe on /health.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return http.ListenAndServe(addr, mux)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeModuleError maps the contract's sentinel errors onto JSON-RPC codes:
// authorization failures surface as unauthorized, everything else the module
// rejected is an invalid-params failure, and unknown errors are server-side.
func writeModuleError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, entitlement.ErrNotOwner), errors.Is(err, entitlement.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, entitlement.ErrEmptyBatch),
		errors.Is(err, entitlement.ErrLengthMismatch),
		errors.Is(err, entitlement.ErrZeroAccount),
		errors.Is(err, entitlement.ErrZeroAmount),
		errors.Is(err, entitlement.ErrInvalidCategory),
		errors.Is(err, entitlement.ErrInvalidMonth),
		errors.Is(err, entitlement.ErrEntryExists),
		errors.Is(err, entitlement.ErrEntryNotFound),
		errors.Is(err, entitlement.ErrAlreadyMinted),
		errors.Is(err, entitlement.ErrRecipientMismatch),
		errors.Is(err, entitlement.ErrOperatorExists),
		errors.Is(err, entitlement.ErrOperatorNotFound),
		errors.Is(err, entitlement.ErrSnapshotExists),
		errors.Is(err, entitlement.ErrValueOverflow),
		errors.Is(err, entitlement.ErrTransfersDisabled):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	switch req.Method {
	case "entitlement_addAuthorizedUser":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleAddAuthorizedUser(w, req)
	case "entitlement_batchAddAuthorizedUsers":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleBatchAddAuthorizedUsers(w, req)
	case "entitlement_removeAuthorizedUser":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleRemoveAuthorizedUser(w, req)
	case "entitlement_batchAddToWhitelist":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleBatchAddToWhitelist(w, req)
	case "entitlement_batchRemoveFromWhitelist":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleBatchRemoveFromWhitelist(w, req)
	case "entitlement_mint":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleMint(w, req)
	case "entitlement_takeMonthlySnapshot":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleTakeMonthlySnapshot(w, req)
	case "entitlement_transferOwnership":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleTransferOwnership(w, req)
	case "entitlement_balanceOfAtBlock":
		s.handleBalanceOfAtBlock(w, req)
	case "entitlement_totalSupplyAtBlock":
		s.handleTotalSupplyAtBlock(w, req)
	case "entitlement_getMonthlySnapshotShare":
		s.handleGetMonthlySnapshotShare(w, req)
	case "entitlement_previewMonthlyReward":
		s.handlePreviewMonthlyReward(w, req)
	case "entitlement_getWhitelistInfo":
		s.handleGetWhitelistInfo(w, req)
	case "entitlement_nextIndex":
		s.handleNextIndex(w, req)
	case "entitlement_height":
		s.handleHeight(w, req)
	case "entitlement_getEvents":
		s.handleGetEvents(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
	}
}
