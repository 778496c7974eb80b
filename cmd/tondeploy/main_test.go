package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"go.uber.org/zap/zaptest"

	"github.com/tonfoundry/tondeploy/pkg/config"
	"github.com/tonfoundry/tondeploy/pkg/deploy"
	"github.com/tonfoundry/tondeploy/pkg/keys"
)

const minimalABI = `{
	"ABI version": 2,
	"functions": [
		{"name": "constructor", "inputs": [], "outputs": []}
	],
	"data": []
}`

type stubBackend struct {
	sent int
}

func (s *stubBackend) CurrentMasterchainInfo(ctx context.Context) (*ton.BlockIDExt, error) {
	return &ton.BlockIDExt{SeqNo: 1}, nil
}

func (s *stubBackend) GetAccount(ctx context.Context, block *ton.BlockIDExt, addr *address.Address) (*tlb.Account, error) {
	return &tlb.Account{IsActive: true}, nil
}

func (s *stubBackend) SendExternalMessage(ctx context.Context, msg *tlb.ExternalMessage) error {
	s.sent++
	return nil
}

func writeConfigFile(t *testing.T, dir string, cfg map[string]any) string {
	t.Helper()
	body, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, body, 0o600))
	return path
}

func runApp(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	require.NoError(t, app.Run(append([]string{"tondeploy"}, args...)))
	return buf.String()
}

func TestRunMissingConfig(t *testing.T) {
	out := runApp(t, "--config", filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, strings.HasPrefix(out, "Cannot load config:"), out)
}

func TestRunNonexistentABIFailsBeforeNetwork(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, map[string]any{
		"abi_path":    filepath.Join(dir, "missing.abi.json"),
		"code_base64": "dGVzdA==",
		// unroutable on purpose: resolution must fail before any dial
		"network_url": "http://127.0.0.1:1/global.config.json",
	})

	out := runApp(t, "--config", path)
	assert.True(t, strings.HasPrefix(out, "Fail:"), out)
	assert.Contains(t, out, "failed to read ABI file")
}

func TestSubmitAndReportTranscript(t *testing.T) {
	dir := t.TempDir()
	abiPath := filepath.Join(dir, "contract.abi.json")
	require.NoError(t, os.WriteFile(abiPath, []byte(minimalABI), 0o600))

	kp, err := keys.Generate()
	require.NoError(t, err)
	code := cell.BeginCell().MustStoreUInt(0xC0DE, 32).EndCell()

	cfgPath := writeConfigFile(t, dir, map[string]any{
		"abi_path":    abiPath,
		"code_base64": base64.StdEncoding.EncodeToString(code.ToBOC()),
		"parameters":  "{}",
		"public_key":  kp.Public,
		"secret_key":  kp.Secret,
	})
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	in, err := deploy.ResolveInputs(cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	backend := &stubBackend{}
	err = submitAndReport(context.Background(), zaptest.NewLogger(t), cfg, in, backend, nil, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.sent)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "MessageId: "), lines[0])
	assert.NotEmpty(t, strings.TrimPrefix(lines[0], "MessageId: "))
	assert.Equal(t, "Transaction succeeded.", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Contract deployed at address: "), lines[2])
	assert.NotEmpty(t, strings.TrimPrefix(lines[2], "Contract deployed at address: "))
}
