package abi_test

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/tonfoundry/tondeploy/pkg/abi"
)

const counterABI = `{
	"ABI version": 2,
	"functions": [
		{
			"name": "constructor",
			"inputs": [
				{"name": "id", "type": "uint64"},
				{"name": "count", "type": "uint32"}
			],
			"outputs": []
		},
		{
			"name": "increment",
			"id": "0x4",
			"inputs": [{"name": "by", "type": "uint32"}],
			"outputs": []
		}
	],
	"data": [
		{"name": "seed", "type": "uint64"}
	]
}`

func params(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestParse(t *testing.T) {
	c, err := abi.Parse([]byte(counterABI))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Version)
	assert.Len(t, c.Functions, 2)

	ctor, ok := c.Constructor()
	require.True(t, ok)
	assert.Len(t, ctor.Inputs, 2)
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	_, err := abi.Parse([]byte(`{"functions": [`))
	require.Error(t, err)
}

func TestParseRejectsUnknownType(t *testing.T) {
	_, err := abi.Parse([]byte(`{
		"functions": [{"name": "constructor", "inputs": [{"name": "x", "type": "float64"}]}]
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestConstructorAbsent(t *testing.T) {
	c, err := abi.Parse([]byte(`{"functions": [{"name": "get", "inputs": []}]}`))
	require.NoError(t, err)
	_, ok := c.Constructor()
	assert.False(t, ok)
}

func TestOpCodeExplicit(t *testing.T) {
	c, err := abi.Parse([]byte(counterABI))
	require.NoError(t, err)

	op, err := c.Functions[1].OpCode()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), op)
}

func TestOpCodeDerivedIsDeterministic(t *testing.T) {
	c, err := abi.Parse([]byte(counterABI))
	require.NoError(t, err)

	ctor, ok := c.Constructor()
	require.True(t, ok)

	first, err := ctor.OpCode()
	require.NoError(t, err)
	second, err := ctor.OpCode()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NotZero(t, first)
	assert.Less(t, first, uint64(1)<<32)
}

func TestEncodeBodyDeterministic(t *testing.T) {
	c, err := abi.Parse([]byte(counterABI))
	require.NoError(t, err)
	ctor, _ := c.Constructor()

	a, err := ctor.EncodeBody(params(t, `{"id": 1337, "count": 0}`))
	require.NoError(t, err)
	b, err := ctor.EncodeBody(params(t, `{"id": 1337, "count": 0}`))
	require.NoError(t, err)
	assert.Equal(t, a.Hash(), b.Hash())

	other, err := ctor.EncodeBody(params(t, `{"id": 1338, "count": 0}`))
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash(), other.Hash())
}

func TestEncodeBodyLayout(t *testing.T) {
	c, err := abi.Parse([]byte(counterABI))
	require.NoError(t, err)
	ctor, _ := c.Constructor()

	body, err := ctor.EncodeBody(params(t, `{"id": 1337, "count": 7}`))
	require.NoError(t, err)

	op, err := ctor.OpCode()
	require.NoError(t, err)

	s := body.BeginParse()
	gotOp, err := s.LoadUInt(32)
	require.NoError(t, err)
	assert.Equal(t, op, gotOp)

	id, err := s.LoadUInt(64)
	require.NoError(t, err)
	assert.Equal(t, uint64(1337), id)

	count, err := s.LoadUInt(32)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), count)
}

func TestEncodeBodyMissingArgument(t *testing.T) {
	c, err := abi.Parse([]byte(counterABI))
	require.NoError(t, err)
	ctor, _ := c.Constructor()

	_, err = ctor.EncodeBody(params(t, `{"id": 1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing argument "count"`)
}

func TestEncodeBodyUnknownArgument(t *testing.T) {
	c, err := abi.Parse([]byte(counterABI))
	require.NoError(t, err)
	ctor, _ := c.Constructor()

	_, err = ctor.EncodeBody(params(t, `{"id": 1, "count": 2, "owner": 3}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown argument "owner"`)
}

func TestEncodeBodyTypeMismatch(t *testing.T) {
	c, err := abi.Parse([]byte(counterABI))
	require.NoError(t, err)
	ctor, _ := c.Constructor()

	_, err = ctor.EncodeBody(params(t, `{"id": "not a number", "count": 0}`))
	require.Error(t, err)
}

func TestEncodeBodyValueKinds(t *testing.T) {
	ref := base64.StdEncoding.EncodeToString(cell.BeginCell().EndCell().ToBOC())
	addr := address.NewAddress(0, 0, make([]byte, 32)).String()

	doc := `{
		"functions": [{
			"name": "constructor",
			"inputs": [
				{"name": "flag", "type": "bool"},
				{"name": "big", "type": "uint256"},
				{"name": "delta", "type": "int8"},
				{"name": "value", "type": "coins"},
				{"name": "owner", "type": "address"},
				{"name": "payload", "type": "cell"},
				{"name": "blob", "type": "bytes"},
				{"name": "note", "type": "string"}
			]
		}]
	}`
	c, err := abi.Parse([]byte(doc))
	require.NoError(t, err)
	ctor, _ := c.Constructor()

	body, err := ctor.EncodeBody(params(t, `{
		"flag": true,
		"big": "0xffffffffffffffff",
		"delta": -1,
		"value": "1000000000",
		"owner": "`+addr+`",
		"payload": "`+ref+`",
		"blob": "deadbeef",
		"note": "hello"
	}`))
	require.NoError(t, err)
	assert.Equal(t, 3, int(body.RefsNum()))
}

func TestEncodeBodyRejectsNegativeUint(t *testing.T) {
	c, err := abi.Parse([]byte(counterABI))
	require.NoError(t, err)
	ctor, _ := c.Constructor()

	_, err = ctor.EncodeBody(params(t, `{"id": -1, "count": 0}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")
}

func TestDataCellDependsOnPublicKey(t *testing.T) {
	c, err := abi.Parse([]byte(counterABI))
	require.NoError(t, err)

	pubA := ed25519.PublicKey(make([]byte, 32))
	pubB := make([]byte, 32)
	pubB[0] = 1

	a, err := c.DataCell(pubA)
	require.NoError(t, err)
	b, err := c.DataCell(pubB)
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash(), b.Hash())

	again, err := c.DataCell(pubA)
	require.NoError(t, err)
	assert.Equal(t, a.Hash(), again.Hash())
}

func TestDataCellUnsignedMatchesZeroKey(t *testing.T) {
	c, err := abi.Parse([]byte(counterABI))
	require.NoError(t, err)

	none, err := c.DataCell(nil)
	require.NoError(t, err)
	zero, err := c.DataCell(make([]byte, 32))
	require.NoError(t, err)
	assert.Equal(t, zero.Hash(), none.Hash())
}

func TestDataCellLayout(t *testing.T) {
	c, err := abi.Parse([]byte(counterABI))
	require.NoError(t, err)

	data, err := c.DataCell(nil)
	require.NoError(t, err)

	s := data.BeginParse()
	key, err := s.LoadSlice(256)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 32), key)

	seed, err := s.LoadUInt(64)
	require.NoError(t, err)
	assert.Zero(t, seed)
}
