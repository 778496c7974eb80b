// Package abi parses the contract interface description and encodes
// constructor calls and initial data into cells.
package abi

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// ConstructorName is the reserved function name for the deployment call.
const ConstructorName = "constructor"

// Param is a single typed value in a function or data declaration.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Function describes one callable entry of the contract.
type Function struct {
	Name string `json:"name"`
	// ID optionally overrides the derived function id, as a hex string.
	ID      string  `json:"id,omitempty"`
	Inputs  []Param `json:"inputs"`
	Outputs []Param `json:"outputs"`
}

// Contract is the parsed interface description.
type Contract struct {
	Version   int        `json:"ABI version"`
	Functions []Function `json:"functions"`
	// Data lists the static variables laid out in the initial data cell
	// after the public key slot.
	Data []Param `json:"data"`
}

// Parse decodes an ABI JSON document and checks its declarations.
func Parse(raw []byte) (*Contract, error) {
	var c Contract
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("ABI is not a valid json: %w", err)
	}
	for _, f := range c.Functions {
		for _, p := range f.Inputs {
			if _, err := parseType(p.Type); err != nil {
				return nil, fmt.Errorf("function %s input %s: %w", f.Name, p.Name, err)
			}
		}
	}
	for _, p := range c.Data {
		if _, err := parseType(p.Type); err != nil {
			return nil, fmt.Errorf("data member %s: %w", p.Name, err)
		}
	}
	return &c, nil
}

// Constructor returns the deployment function, if the contract declares one.
func (c *Contract) Constructor() (*Function, bool) {
	for i := range c.Functions {
		if c.Functions[i].Name == ConstructorName {
			return &c.Functions[i], true
		}
	}
	return nil, false
}

// OpCode returns the 32-bit function id: the explicit ID when declared,
// otherwise the first 32 bits of the SHA-256 of the function signature
// "name(type1,type2)".
func (f *Function) OpCode() (uint64, error) {
	if f.ID != "" {
		id, err := strconv.ParseUint(strings.TrimPrefix(f.ID, "0x"), 16, 32)
		if err != nil {
			return 0, fmt.Errorf("function %s has invalid id %q: %w", f.Name, f.ID, err)
		}
		return id, nil
	}
	types := make([]string, len(f.Inputs))
	for i, p := range f.Inputs {
		types[i] = p.Type
	}
	sig := fmt.Sprintf("%s(%s)", f.Name, strings.Join(types, ","))
	sum := sha256.Sum256([]byte(sig))
	return uint64(binary.BigEndian.Uint32(sum[:4])), nil
}

// EncodeBody builds the message body for a call: the function id followed by
// the inputs in declaration order. Every declared input must be present in
// params and no unknown parameter may appear.
func (f *Function) EncodeBody(params map[string]json.RawMessage) (*cell.Cell, error) {
	op, err := f.OpCode()
	if err != nil {
		return nil, err
	}
	b := cell.BeginCell()
	if err := b.StoreUInt(op, 32); err != nil {
		return nil, fmt.Errorf("failed to store function id: %w", err)
	}
	for _, p := range f.Inputs {
		raw, ok := params[p.Name]
		if !ok {
			return nil, fmt.Errorf("function %s: missing argument %q", f.Name, p.Name)
		}
		if err := storeValue(b, p.Type, raw); err != nil {
			return nil, fmt.Errorf("function %s argument %q: %w", f.Name, p.Name, err)
		}
	}
	for name := range params {
		if !f.hasInput(name) {
			return nil, fmt.Errorf("function %s: unknown argument %q", f.Name, name)
		}
	}
	return b.EndCell(), nil
}

func (f *Function) hasInput(name string) bool {
	for _, p := range f.Inputs {
		if p.Name == name {
			return true
		}
	}
	return false
}

// DataCell builds the initial data cell: a 256-bit public key slot (zeroed
// for unsigned deployments) followed by the zero value of every declared
// data member. The cell participates in the state init and therefore in the
// address derivation.
func (c *Contract) DataCell(pub ed25519.PublicKey) (*cell.Cell, error) {
	slot := make([]byte, 32)
	copy(slot, pub)
	b := cell.BeginCell()
	if err := b.StoreSlice(slot, 256); err != nil {
		return nil, fmt.Errorf("failed to store public key: %w", err)
	}
	for _, p := range c.Data {
		if err := storeZero(b, p.Type); err != nil {
			return nil, fmt.Errorf("data member %q: %w", p.Name, err)
		}
	}
	return b.EndCell(), nil
}
