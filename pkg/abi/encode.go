package abi

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

type kind int

const (
	kindBool kind = iota
	kindUint
	kindInt
	kindCoins
	kindAddress
	kindCell
	kindBytes
	kindString
)

type valueType struct {
	kind kind
	bits uint
}

func parseType(typ string) (valueType, error) {
	switch {
	case typ == "bool":
		return valueType{kind: kindBool}, nil
	case typ == "coins":
		return valueType{kind: kindCoins}, nil
	case typ == "address":
		return valueType{kind: kindAddress}, nil
	case typ == "cell":
		return valueType{kind: kindCell}, nil
	case typ == "bytes":
		return valueType{kind: kindBytes}, nil
	case typ == "string":
		return valueType{kind: kindString}, nil
	case strings.HasPrefix(typ, "uint"):
		bits, err := strconv.Atoi(typ[4:])
		if err != nil || bits < 1 || bits > 256 {
			return valueType{}, fmt.Errorf("unsupported type %q", typ)
		}
		return valueType{kind: kindUint, bits: uint(bits)}, nil
	case strings.HasPrefix(typ, "int"):
		bits, err := strconv.Atoi(typ[3:])
		if err != nil || bits < 1 || bits > 257 {
			return valueType{}, fmt.Errorf("unsupported type %q", typ)
		}
		return valueType{kind: kindInt, bits: uint(bits)}, nil
	default:
		return valueType{}, fmt.Errorf("unsupported type %q", typ)
	}
}

func storeValue(b *cell.Builder, typ string, raw json.RawMessage) error {
	vt, err := parseType(typ)
	if err != nil {
		return err
	}
	switch vt.kind {
	case kindBool:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("expected bool: %w", err)
		}
		return b.StoreBoolBit(v)

	case kindUint:
		n, err := bigFromJSON(raw)
		if err != nil {
			return err
		}
		if n.Sign() < 0 {
			return fmt.Errorf("negative value for %s", typ)
		}
		return b.StoreBigUInt(n, vt.bits)

	case kindInt:
		n, err := bigFromJSON(raw)
		if err != nil {
			return err
		}
		return b.StoreBigInt(n, vt.bits)

	case kindCoins:
		n, err := bigFromJSON(raw)
		if err != nil {
			return err
		}
		if n.Sign() < 0 {
			return fmt.Errorf("negative coins value")
		}
		return b.StoreBigCoins(n)

	case kindAddress:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("expected address string: %w", err)
		}
		addr, err := address.ParseAddr(s)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", s, err)
		}
		return b.StoreAddr(addr)

	case kindCell:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("expected base64 BOC string: %w", err)
		}
		boc, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("invalid base64 BOC: %w", err)
		}
		ref, err := cell.FromBOC(boc)
		if err != nil {
			return fmt.Errorf("invalid BOC: %w", err)
		}
		return b.StoreRef(ref)

	case kindBytes:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("expected hex string: %w", err)
		}
		data, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return fmt.Errorf("invalid hex value: %w", err)
		}
		ref := cell.BeginCell()
		if err := ref.StoreBinarySnake(data); err != nil {
			return err
		}
		return b.StoreRef(ref.EndCell())

	case kindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("expected string: %w", err)
		}
		ref := cell.BeginCell()
		if err := ref.StoreStringSnake(s); err != nil {
			return err
		}
		return b.StoreRef(ref.EndCell())
	}
	return fmt.Errorf("unsupported type %q", typ)
}

// storeZero writes the zero value of the type: the layout matches storeValue
// so the data cell shape stays stable regardless of values.
func storeZero(b *cell.Builder, typ string) error {
	vt, err := parseType(typ)
	if err != nil {
		return err
	}
	switch vt.kind {
	case kindBool:
		return b.StoreBoolBit(false)
	case kindUint:
		return b.StoreBigUInt(big.NewInt(0), vt.bits)
	case kindInt:
		return b.StoreBigInt(big.NewInt(0), vt.bits)
	case kindCoins:
		return b.StoreBigCoins(big.NewInt(0))
	case kindAddress:
		// addr_none
		return b.StoreAddr(nil)
	case kindCell, kindBytes, kindString:
		return b.StoreRef(cell.BeginCell().EndCell())
	}
	return fmt.Errorf("unsupported type %q", typ)
}

// bigFromJSON accepts a JSON number or a decimal/0x-prefixed string.
func bigFromJSON(raw json.RawMessage) (*big.Int, error) {
	var num json.Number
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&num); err == nil {
		if n, ok := new(big.Int).SetString(num.String(), 10); ok {
			return n, nil
		}
		return nil, fmt.Errorf("non-integer number %q", num.String())
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("expected integer or string, got %s", raw)
	}
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "-0x") {
		base = 16
		s = strings.Replace(s, "0x", "", 1)
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}
