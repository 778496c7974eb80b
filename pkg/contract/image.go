// Package contract loads compiled contract images into code cells.
package contract

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// compiledJSON is the build output of TON contract compilers: either the
// hex-encoded BOC of a ".compiled.json" or the base64 "code" field of a
// compiled-contract bundle.
type compiledJSON struct {
	Name       string `json:"name,omitempty"`
	Hash       string `json:"hash,omitempty"`
	HashBase64 string `json:"hashBase64,omitempty"`
	Hex        string `json:"hex,omitempty"`
	Code       string `json:"code,omitempty"`
	Abi        string `json:"abi,omitempty"`
}

func (c compiledJSON) codeCell() (*cell.Cell, error) {
	switch {
	case c.Hex != "":
		boc, err := hex.DecodeString(c.Hex)
		if err != nil {
			return nil, fmt.Errorf("failed to decode hex BOC: %w", err)
		}
		return cell.FromBOC(boc)
	case c.Code != "":
		boc, err := base64.StdEncoding.DecodeString(c.Code)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 BOC: %w", err)
		}
		return cell.FromBOC(boc)
	default:
		return nil, fmt.Errorf("compiled contract JSON has neither hex nor code field")
	}
}

// FromBase64 parses a base64-encoded BOC string into the code cell.
func FromBase64(s string) (*cell.Cell, error) {
	boc, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("contract image is not valid base64: %w", err)
	}
	code, err := cell.FromBOC(boc)
	if err != nil {
		return nil, fmt.Errorf("contract image is not a valid BOC: %w", err)
	}
	return code, nil
}

// FromFile reads a compiled contract image from disk. JSON build outputs are
// unwrapped; any other file is treated as a raw BOC.
func FromFile(path string) (*cell.Cell, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("contract file not found: %s", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read compiled contract: %w", err)
	}

	if strings.HasSuffix(path, ".json") {
		var compiled compiledJSON
		if err := json.Unmarshal(raw, &compiled); err != nil {
			return nil, fmt.Errorf("failed to parse compiled contract JSON: %w", err)
		}
		return compiled.codeCell()
	}

	code, err := cell.FromBOC(raw)
	if err != nil {
		return nil, fmt.Errorf("contract image is not a valid BOC: %w", err)
	}
	return code, nil
}
