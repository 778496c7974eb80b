package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"
	"github.com/xssnick/tonutils-go/tlb"
	"go.uber.org/zap"

	"github.com/tonfoundry/tondeploy/pkg/client"
	"github.com/tonfoundry/tondeploy/pkg/config"
	"github.com/tonfoundry/tondeploy/pkg/deploy"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "tondeploy"
	app.Usage = "deploy a compiled smart contract described by a JSON config file"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "config.json",
			Usage: "path to the deployment config",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "enable debug logging",
		},
	}
	app.Action = run
	return app
}

// run always returns nil: success and failure alike are printed outcomes,
// not exit codes.
func run(cliCtx *cli.Context) error {
	out := cliCtx.App.Writer
	lggr := newLogger(cliCtx.Bool("verbose"))
	defer func() { _ = lggr.Sync() }()

	cfg, err := config.Load(cliCtx.String("config"))
	if err != nil {
		fmt.Fprintf(out, "Cannot load config: %s\n", err)
		return nil
	}

	if err := deployContract(context.Background(), lggr, cfg, out); err != nil {
		fmt.Fprintf(out, "Fail: %s\n", err)
		return nil
	}
	fmt.Fprintln(out, "Ok")
	return nil
}

// deployContract resolves all inputs before dialing the network, so a bad
// config never reaches submission.
func deployContract(ctx context.Context, lggr *zap.Logger, cfg *config.Config, out io.Writer) error {
	in, err := deploy.ResolveInputs(cfg)
	if err != nil {
		return err
	}

	api, err := client.Dial(ctx, lggr, cfg.NetworkURL)
	if err != nil {
		return err
	}

	var extra []deploy.Option
	if cfg.Mode == config.ModeWallet {
		amount, err := tlb.FromTON(cfg.Amount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", cfg.Amount, err)
		}
		w, err := client.WalletFromMnemonic(api, cfg.WalletMnemonic)
		if err != nil {
			return err
		}
		extra = append(extra, deploy.WithWallet(w, amount))
	}

	return submitAndReport(ctx, lggr, cfg, in, api, extra, out)
}

// submitAndReport runs the deployment against the backend and writes the
// user-facing transcript: the sent notification, then the success lines.
func submitAndReport(ctx context.Context, lggr *zap.Logger, cfg *config.Config, in *deploy.Inputs, backend deploy.Backend, extra []deploy.Option, out io.Writer) error {
	opts := []deploy.Option{
		deploy.WithWorkchain(cfg.Workchain),
		deploy.WithTimeout(cfg.ProcessingTimeout.Duration()),
		deploy.WithLogger(lggr),
		deploy.OnSent(func(id string) {
			fmt.Fprintf(out, "MessageId: %s\n", id)
		}),
	}
	opts = append(opts, extra...)

	res, err := deploy.New(backend, opts...).Deploy(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Transaction succeeded.")
	fmt.Fprintf(out, "Contract deployed at address: %s\n", res.Address)
	return nil
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	lggr, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return lggr
}
