package deploy

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/tonfoundry/tondeploy/pkg/abi"
	"github.com/tonfoundry/tondeploy/pkg/config"
	"github.com/tonfoundry/tondeploy/pkg/contract"
	"github.com/tonfoundry/tondeploy/pkg/keys"
)

// Inputs is everything the deployer consumes: the parsed interface, the code
// cell, the constructor arguments and the signer.
type Inputs struct {
	ABI    *abi.Contract
	Code   *cell.Cell
	Params map[string]json.RawMessage
	Signer keys.Signer
}

// ResolveInputs turns configuration fields into concrete values. All
// resolution happens before any network interaction, so a bad config never
// produces a half-sent deployment.
func ResolveInputs(cfg *config.Config) (*Inputs, error) {
	contractABI, err := resolveABI(cfg)
	if err != nil {
		return nil, err
	}
	code, err := resolveImage(cfg)
	if err != nil {
		return nil, err
	}
	params, err := resolveParams(cfg.Parameters)
	if err != nil {
		return nil, err
	}
	signer, err := resolveSigner(cfg)
	if err != nil {
		return nil, err
	}
	return &Inputs{ABI: contractABI, Code: code, Params: params, Signer: signer}, nil
}

func resolveABI(cfg *config.Config) (*abi.Contract, error) {
	if cfg.ABIPath == "" {
		return nil, fmt.Errorf("%w: ABI file is not defined, supply it in the config", ErrConfig)
	}
	raw, err := os.ReadFile(cfg.ABIPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read ABI file: %v", ErrFile, err)
	}
	parsed, err := abi.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return parsed, nil
}

// resolveParams treats a string with no '{' as a file path and anything else
// as inline JSON. Either way the result must be a JSON object.
func resolveParams(params string) (map[string]json.RawMessage, error) {
	text := params
	if !strings.Contains(params, "{") {
		raw, err := os.ReadFile(params)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load params from file: %v", ErrFile, err)
		}
		text = string(raw)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, fmt.Errorf("%w: function arguments is not a json: %v", ErrParse, err)
	}
	return decoded, nil
}

func resolveImage(cfg *config.Config) (*cell.Cell, error) {
	if cfg.CodeBase64 != "" {
		code, err := contract.FromBase64(cfg.CodeBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		return code, nil
	}
	if cfg.CodePath == "" {
		return nil, fmt.Errorf("%w: contract image is not defined, supply code_base64 or code_path", ErrConfig)
	}
	code, err := contract.FromFile(cfg.CodePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFile, err)
	}
	return code, nil
}

// resolveSigner routes the key material to a signer variant. A full pair
// signs the deployment; anything less deploys unsigned.
func resolveSigner(cfg *config.Config) (keys.Signer, error) {
	var pair keys.KeyPair
	switch {
	case cfg.PublicKey != "" && cfg.SecretKey != "":
		pair = keys.KeyPair{Public: cfg.PublicKey, Secret: cfg.SecretKey}
	case cfg.KeysPath != "":
		raw, err := os.ReadFile(cfg.KeysPath)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read keys file %s: %v", ErrFile, cfg.KeysPath, err)
		}
		if err := json.Unmarshal(raw, &pair); err != nil {
			return nil, fmt.Errorf("%w: keys file %s is not valid JSON: %v", ErrParse, cfg.KeysPath, err)
		}
	default:
		return keys.NoneSigner{}, nil
	}
	if pair.Public == "" || pair.Secret == "" {
		return keys.NoneSigner{}, nil
	}
	signer, err := keys.NewKeysSigner(pair)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return signer, nil
}
