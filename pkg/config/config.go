// Package config loads and validates the tondeploy configuration file.
//
// Two layouts are accepted. The legacy layout points at a separate
// initial-data file holding the contract fields; the flat layout carries the
// same fields at the top level of config.json. Both resolve into the same
// Config value.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	// DefaultNetworkURL is the global-config gateway of the public network.
	DefaultNetworkURL = "https://ton.org/global.config.json"

	DefaultWorkchain = 0

	// DefaultProcessingTimeout bounds how long a deployment waits for the
	// account to become active after the message is submitted.
	DefaultProcessingTimeout = 30 * time.Second
)

// DeployMode selects how the deployment message reaches the network.
type DeployMode string

const (
	// ModeExternal submits a signed external message carrying the state init.
	ModeExternal DeployMode = "external"
	// ModeWallet funds the deployment with an internal message from a wallet.
	ModeWallet DeployMode = "wallet"
)

type Config struct {
	// InitialData optionally points at a JSON file carrying the contract
	// fields below. Fields present in that file override the inline ones.
	InitialData string `json:"initial_data,omitempty"`

	ABIPath    string `json:"abi_path,omitempty"`
	CodeBase64 string `json:"code_base64,omitempty"`
	CodePath   string `json:"code_path,omitempty"`

	PublicKey string `json:"public_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
	KeysPath  string `json:"keys_path,omitempty"`

	// Parameters holds the constructor arguments: inline JSON when the string
	// contains '{', otherwise a path to a JSON file.
	Parameters string `json:"parameters,omitempty"`

	NetworkURL        string     `json:"network_url,omitempty"`
	Workchain         int8       `json:"workchain,omitempty"`
	ProcessingTimeout Duration   `json:"message_processing_timeout,omitempty"`
	Mode              DeployMode `json:"deploy_mode,omitempty"`

	// Wallet-funded deployments only.
	Amount         string `json:"amount,omitempty"`
	WalletMnemonic string `json:"wallet_mnemonic,omitempty"`
}

// Duration is a time.Duration that unmarshals from either a JSON number of
// milliseconds or a Go duration string such as "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid duration: %s", b)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// ErrMissing reports a required field absent from the configuration.
type ErrMissing struct {
	Name string
	Msg  string
}

func (e ErrMissing) Error() string { return fmt.Sprintf("%s: missing: %s", e.Name, e.Msg) }

// ErrEmpty reports a required field present but blank.
type ErrEmpty struct {
	Name string
	Msg  string
}

func (e ErrEmpty) Error() string { return fmt.Sprintf("%s: empty: %s", e.Name, e.Msg) }

// Load reads the config file, merges the initial-data file when one is
// referenced, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config %s is not valid JSON: %w", path, err)
	}

	if cfg.InitialData != "" {
		if err := cfg.mergeInitialData(); err != nil {
			return nil, err
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeInitialData overlays the referenced initial-data file onto the config.
// The file uses the same field names as the flat layout.
func (c *Config) mergeInitialData() error {
	raw, err := os.ReadFile(c.InitialData)
	if err != nil {
		return fmt.Errorf("cannot read initial data %s: %w", c.InitialData, err)
	}
	var overlay Config
	if err := json.Unmarshal(raw, &overlay); err != nil {
		return fmt.Errorf("initial data %s is not valid JSON: %w", c.InitialData, err)
	}
	if overlay.ABIPath != "" {
		c.ABIPath = overlay.ABIPath
	}
	if overlay.CodeBase64 != "" {
		c.CodeBase64 = overlay.CodeBase64
	}
	if overlay.CodePath != "" {
		c.CodePath = overlay.CodePath
	}
	if overlay.PublicKey != "" {
		c.PublicKey = overlay.PublicKey
	}
	if overlay.SecretKey != "" {
		c.SecretKey = overlay.SecretKey
	}
	if overlay.KeysPath != "" {
		c.KeysPath = overlay.KeysPath
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.NetworkURL == "" {
		c.NetworkURL = DefaultNetworkURL
	}
	if c.ProcessingTimeout == 0 {
		c.ProcessingTimeout = Duration(DefaultProcessingTimeout)
	}
	if c.Mode == "" {
		c.Mode = ModeExternal
	}
	if c.Amount == "" {
		c.Amount = "1"
	}
	if c.Parameters == "" {
		c.Parameters = "{}"
	}
}

func (c *Config) Validate() (err error) {
	if c.ABIPath == "" {
		err = errors.Join(err, ErrMissing{Name: "abi_path", Msg: "ABI file is not defined, supply it in the config"})
	}
	if c.CodeBase64 == "" && c.CodePath == "" {
		err = errors.Join(err, ErrMissing{Name: "code_base64", Msg: "contract image is not defined, supply code_base64 or code_path"})
	}
	if c.CodeBase64 != "" && c.CodePath != "" {
		err = errors.Join(err, fmt.Errorf("code_base64 and code_path are mutually exclusive"))
	}
	switch c.Mode {
	case ModeExternal:
	case ModeWallet:
		if c.WalletMnemonic == "" {
			err = errors.Join(err, ErrMissing{Name: "wallet_mnemonic", Msg: "required for wallet-funded deployments"})
		}
		// The wallet deploy path targets workchain 0 only; catching the
		// mismatch here keeps funds from being sent to the wrong address.
		if c.Workchain != 0 {
			err = errors.Join(err, fmt.Errorf("deploy_mode %q supports only workchain 0, got %d", ModeWallet, c.Workchain))
		}
	default:
		err = errors.Join(err, fmt.Errorf("unknown deploy_mode %q", c.Mode))
	}
	return err
}
