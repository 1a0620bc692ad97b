package availrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	e := NewError(AlreadyImportedCode, "Transaction Already Imported", "")
	require.Equal(t, "Transaction Already Imported (1013)", e.Error())

	e = NewError(InvalidTransactionCode, "Invalid Transaction", "Transaction is outdated")
	require.Equal(t, "Invalid Transaction (1010) - Transaction is outdated", e.Error())

	var parsed Error
	require.NoError(t, json.Unmarshal([]byte(`{"code":1010,"message":"Invalid Transaction","data":{"x":1}}`), &parsed))
	require.Equal(t, `{"x":1}`, parsed.DataString())

	wrapped := fmt.Errorf("submit: %w", e)
	require.ErrorIs(t, wrapped, &Error{Code: InvalidTransactionCode})
	require.False(t, errors.Is(wrapped, &Error{Code: AlreadyImportedCode}))
}

func TestErrorHelpers(t *testing.T) {
	require.True(t, IsAlreadyImported(NewError(AlreadyImportedCode, "Transaction Already Imported", "")))
	require.True(t, IsAlreadyImported(fmt.Errorf("x: %w", NewError(TemporarilyBannedCode, "Transaction is temporarily banned", ""))))
	require.True(t, IsAlreadyImported(errors.New("transaction already imported")))
	require.False(t, IsAlreadyImported(nil))
	require.False(t, IsAlreadyImported(NewError(InvalidTransactionCode, "Invalid Transaction", "")))

	require.True(t, IsStale(NewError(InvalidTransactionCode, "Invalid Transaction", "Transaction is outdated")))
	require.False(t, IsStale(NewError(InvalidTransactionCode, "Invalid Transaction", "Inability to pay some fees")))
	require.False(t, IsStale(nil))

	require.True(t, IsPriorityTooLow(NewError(TooLowPriorityCode, "Priority is too low: (1 vs 1)", "")))
	require.False(t, IsPriorityTooLow(errors.New("connection refused")))
}

func TestRequest(t *testing.T) {
	r := NewRequest(5, ChainGetBlockHash)
	data, err := json.Marshal(r)
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","method":"chain_getBlockHash","params":[],"id":5}`, string(data))

	var n Notification
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"chain_newHead",
		"params":{"subscription":"abc","result":{"number":"0x10"}}}`), &n))
	require.Equal(t, ChainNewHeadEvent, n.Method)
	require.Equal(t, "abc", n.Params.Subscription)
	require.JSONEq(t, `{"number":"0x10"}`, string(n.Params.Result))
}
