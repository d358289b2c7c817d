package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"rewardmint/core"
	"rewardmint/storage"
)

const (
	testOwner     = "0x00000000000000000000000000000000000000Aa"
	testRecipient = "0x00000000000000000000000000000000000000Bb"
	testOperator  = "0x00000000000000000000000000000000000000Cc"
	testToken     = "test-token"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	t.Setenv("REWARDMINT_RPC_TOKEN", testToken)
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	var owner [20]byte
	owner[19] = 0xAA
	node, err := core.NewNode(db, owner, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(NewServer(node).handle))
	t.Cleanup(srv.Close)
	return srv
}

func rpcCall(t *testing.T, srv *httptest.Server, token, method string, params interface{}) (*RPCResponse, int) {
	t.Helper()
	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq, err := http.NewRequest(http.MethodPost, srv.URL, bytes.NewReader(body))
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := &RPCResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return out, resp.StatusCode
}

func decodeResult(t *testing.T, resp *RPCResponse, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func whitelistParams(indices []uint64, accounts, amounts []string, categories []uint8) map[string]interface{} {
	return map[string]interface{}{
		"caller":     testOwner,
		"indices":    indices,
		"accounts":   accounts,
		"amounts":    amounts,
		"categories": categories,
	}
}

func TestMutationsRequireBearerToken(t *testing.T) {
	srv := newTestServer(t)

	resp, status := rpcCall(t, srv, "", "entitlement_mint", map[string]interface{}{
		"caller": testRecipient, "to": testRecipient, "index": 1,
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	resp, status = rpcCall(t, srv, "wrong-token", "entitlement_mint", map[string]interface{}{
		"caller": testRecipient, "to": testRecipient, "index": 1,
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)

	// Read methods stay open.
	resp, status = rpcCall(t, srv, "", "entitlement_height", nil)
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)
}

func TestWhitelistAndMintOverRPC(t *testing.T) {
	srv := newTestServer(t)

	resp, status := rpcCall(t, srv, testToken, "entitlement_batchAddToWhitelist",
		whitelistParams([]uint64{5}, []string{testRecipient}, []string{"100"}, []uint8{1}))
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)

	resp, status = rpcCall(t, srv, testToken, "entitlement_mint", map[string]interface{}{
		"caller": testRecipient, "to": testRecipient, "index": 5, "label": "monthly",
	})
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)

	resp, status = rpcCall(t, srv, "", "entitlement_balanceOfAtBlock", map[string]interface{}{
		"account": testRecipient, "block": 2,
	})
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)
	require.Equal(t, "100", resp.Result)

	resp, _ = rpcCall(t, srv, "", "entitlement_getWhitelistInfo", map[string]interface{}{"index": 5})
	require.Nil(t, resp.Error)
	var info whitelistInfoResult
	decodeResult(t, resp, &info)
	require.True(t, info.Found)
	require.True(t, info.Minted)
	require.Equal(t, "100", info.Amount)
	require.Equal(t, "royalty", info.Category)

	// A second mint for the same index is rejected as invalid params.
	resp, status = rpcCall(t, srv, testToken, "entitlement_mint", map[string]interface{}{
		"caller": testRecipient, "to": testRecipient, "index": 5,
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestSnapshotOverRPC(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := rpcCall(t, srv, testToken, "entitlement_batchAddToWhitelist",
		whitelistParams([]uint64{1, 2}, []string{testRecipient, testOperator}, []string{"40", "60"}, []uint8{0, 0}))
	require.Nil(t, resp.Error)
	resp, _ = rpcCall(t, srv, testToken, "entitlement_mint", map[string]interface{}{
		"caller": testRecipient, "to": testRecipient, "index": 1,
	})
	require.Nil(t, resp.Error)
	resp, _ = rpcCall(t, srv, testToken, "entitlement_mint", map[string]interface{}{
		"caller": testOperator, "to": testOperator, "index": 2,
	})
	require.Nil(t, resp.Error)

	resp, _ = rpcCall(t, srv, testToken, "entitlement_takeMonthlySnapshot", map[string]interface{}{
		"caller": testOwner, "year": 2025, "month": 6,
	})
	require.Nil(t, resp.Error)
	var snap snapshotResult
	decodeResult(t, resp, &snap)
	require.Equal(t, uint64(4), snap.Block)

	resp, _ = rpcCall(t, srv, "", "entitlement_getMonthlySnapshotShare", map[string]interface{}{
		"year": 2025, "month": 6, "account": testRecipient,
	})
	require.Nil(t, resp.Error)
	var share shareResult
	decodeResult(t, resp, &share)
	require.Equal(t, "40", share.Balance)
	require.Equal(t, "100", share.TotalSupply)
	require.Equal(t, "400000000000000000", share.ShareFraction)

	resp, _ = rpcCall(t, srv, "", "entitlement_previewMonthlyReward", map[string]interface{}{
		"year": 2025, "month": 6, "account": testRecipient, "allocation": "1000",
	})
	require.Nil(t, resp.Error)
	require.Equal(t, "400", resp.Result)
}

func TestModuleErrorMapping(t *testing.T) {
	srv := newTestServer(t)

	// Non-owner caller: the module's authorization failure maps to 403.
	resp, status := rpcCall(t, srv, testToken, "entitlement_batchAddToWhitelist",
		map[string]interface{}{
			"caller":     testRecipient,
			"indices":    []uint64{1},
			"accounts":   []string{testRecipient},
			"amounts":    []string{"10"},
			"categories": []uint8{0},
		})
	require.Equal(t, http.StatusForbidden, status)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	// A month outside 1..12 is invalid params.
	resp, status = rpcCall(t, srv, testToken, "entitlement_takeMonthlySnapshot", map[string]interface{}{
		"caller": testOwner, "year": 2025, "month": 13,
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestRequestValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, status := rpcCall(t, srv, "", "entitlement_noSuchMethod", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)

	httpResp, err := srv.Client().Post(srv.URL, "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer httpResp.Body.Close()
	out := &RPCResponse{}
	require.NoError(t, json.NewDecoder(httpResp.Body).Decode(out))
	require.Equal(t, codeParseError, out.Error.Code)

	// Bad address strings are rejected before the module sees them.
	resp, status = rpcCall(t, srv, "", "entitlement_balanceOfAtBlock", map[string]interface{}{
		"account": "nope", "block": 1,
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}
