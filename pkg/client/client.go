// Package client dials the liteserver pool described by a network
// global-config URL.
package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/ton/wallet"
	"go.uber.org/zap"

	"github.com/tonfoundry/tondeploy/pkg/deploy"
)

var _ deploy.Backend = (*ton.APIClient)(nil)

// Dial connects to the network behind the global-config URL and verifies it
// answers before returning.
func Dial(ctx context.Context, lggr *zap.Logger, configURL string) (*ton.APIClient, error) {
	cfg, err := liteclient.GetConfigFromUrl(ctx, configURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get network config from %s: %w", configURL, err)
	}

	pool := liteclient.NewConnectionPool()
	if err := pool.AddConnectionsFromConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to liteservers: %w", err)
	}

	api := ton.NewAPIClient(pool, ton.ProofCheckPolicyFast)
	api.SetTrustedBlockFromConfig(cfg)

	block, err := api.GetMasterchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("network not ready: %w", err)
	}
	lggr.Debug("connected to network", zap.String("configURL", configURL), zap.Uint32("masterchainSeqNo", block.SeqNo))
	return api, nil
}

// WalletFromMnemonic builds the funding wallet for wallet-funded deployments.
func WalletFromMnemonic(api *ton.APIClient, mnemonic string) (*wallet.Wallet, error) {
	w, err := wallet.FromSeed(api, strings.Fields(mnemonic), wallet.V3R2)
	if err != nil {
		return nil, fmt.Errorf("failed to derive wallet from mnemonic: %w", err)
	}
	return w, nil
}
