// Package settings encodes and decodes the opaque configuration payloads that
// extensions receive. The core never looks inside them.
package settings

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Codec packs a fixed tuple of ABI types.
type Codec struct {
	sig  string
	args abi.Arguments
}

// New builds a codec for the given solidity type names.
func New(types ...string) (*Codec, error) {
	args := make(abi.Arguments, 0, len(types))
	for _, name := range types {
		typ, err := abi.NewType(name, "", nil)
		if err != nil {
			return nil, fmt.Errorf("parse type %s: %w", name, err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return &Codec{sig: "(" + strings.Join(types, ",") + ")", args: args}, nil
}

// MustNew is New for package-level codecs with literal types.
func MustNew(types ...string) *Codec {
	c, err := New(types...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Codec) String() string {
	return c.sig
}

func (c *Codec) Encode(values ...interface{}) ([]byte, error) {
	out, err := c.args.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.sig, err)
	}
	return out, nil
}

func (c *Codec) Decode(data []byte) ([]interface{}, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode %s: empty payload", c.sig)
	}
	values, err := c.args.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.sig, err)
	}
	return values, nil
}

// Shared payload layouts.
var (
	Uint256        = MustNew("uint256")
	Uint256Pair    = MustNew("uint256", "uint256")
	Uint256Array   = MustNew("uint256[]")
	Address        = MustNew("address")
	AddressArray   = MustNew("address[]")
	AddressBytes   = MustNew("address", "bytes")
	Uint256Bytes   = MustNew("uint256", "bytes")
	ListSettings   = MustNew("uint256[]", "bytes[]")
	NewList        = MustNew("uint8", "address[]")
	IntegrationArg = MustNew("address", "bytes4", "bytes")
	CreatePosition = MustNew("uint256", "bytes", "bytes")
	AssetAmounts   = MustNew("address[]", "uint256[]")
)
