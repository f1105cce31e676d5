package settings

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// UpdateType controls who may change an address list after creation.
type UpdateType uint8

const (
	UpdateNone UpdateType = iota
	UpdateAddOnly
	UpdateRemoveOnly
	UpdateAddAndRemove
)

// AddressListSpec describes a list created inline by a list-based policy.
type AddressListSpec struct {
	UpdateType UpdateType
	Items      []common.Address
}

// ListPolicy is the decoded configuration of a list-based policy.
type ListPolicy struct {
	ExistingListIDs []*big.Int
	NewLists        []AddressListSpec
}

func EncodeListPolicy(p ListPolicy) ([]byte, error) {
	lists := make([][]byte, 0, len(p.NewLists))
	for _, l := range p.NewLists {
		items := l.Items
		if items == nil {
			items = []common.Address{}
		}
		encoded, err := NewList.Encode(uint8(l.UpdateType), items)
		if err != nil {
			return nil, err
		}
		lists = append(lists, encoded)
	}
	ids := p.ExistingListIDs
	if ids == nil {
		ids = []*big.Int{}
	}
	return ListSettings.Encode(ids, lists)
}

func DecodeListPolicy(data []byte) (ListPolicy, error) {
	values, err := ListSettings.Decode(data)
	if err != nil {
		return ListPolicy{}, err
	}
	out := ListPolicy{ExistingListIDs: values[0].([]*big.Int)}
	for i, raw := range values[1].([][]byte) {
		inner, err := NewList.Decode(raw)
		if err != nil {
			return ListPolicy{}, fmt.Errorf("new list %d: %w", i, err)
		}
		updateType := UpdateType(inner[0].(uint8))
		if updateType > UpdateAddAndRemove {
			return ListPolicy{}, fmt.Errorf("new list %d: invalid update type %d", i, updateType)
		}
		out.NewLists = append(out.NewLists, AddressListSpec{
			UpdateType: updateType,
			Items:      inner[1].([]common.Address),
		})
	}
	return out, nil
}

func EncodeUint256(v *big.Int) ([]byte, error) {
	return Uint256.Encode(v)
}

func DecodeUint256(data []byte) (*big.Int, error) {
	values, err := Uint256.Decode(data)
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

func EncodeUint256Pair(a, b *big.Int) ([]byte, error) {
	return Uint256Pair.Encode(a, b)
}

func DecodeUint256Pair(data []byte) (*big.Int, *big.Int, error) {
	values, err := Uint256Pair.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return values[0].(*big.Int), values[1].(*big.Int), nil
}

func EncodeUint256Array(v []*big.Int) ([]byte, error) {
	if v == nil {
		v = []*big.Int{}
	}
	return Uint256Array.Encode(v)
}

func DecodeUint256Array(data []byte) ([]*big.Int, error) {
	values, err := Uint256Array.Decode(data)
	if err != nil {
		return nil, err
	}
	return values[0].([]*big.Int), nil
}

func EncodeAddress(a common.Address) ([]byte, error) {
	return Address.Encode(a)
}

func DecodeAddress(data []byte) (common.Address, error) {
	values, err := Address.Decode(data)
	if err != nil {
		return common.Address{}, err
	}
	return values[0].(common.Address), nil
}

func EncodeAddresses(v []common.Address) ([]byte, error) {
	if v == nil {
		v = []common.Address{}
	}
	return AddressArray.Encode(v)
}

func DecodeAddresses(data []byte) ([]common.Address, error) {
	values, err := AddressArray.Decode(data)
	if err != nil {
		return nil, err
	}
	return values[0].([]common.Address), nil
}

// EncodeAssetAmounts packs parallel asset and amount arrays.
func EncodeAssetAmounts(assets []common.Address, amounts []*big.Int) ([]byte, error) {
	if len(assets) != len(amounts) {
		return nil, fmt.Errorf("encode asset amounts: %d assets, %d amounts", len(assets), len(amounts))
	}
	if assets == nil {
		assets, amounts = []common.Address{}, []*big.Int{}
	}
	return AssetAmounts.Encode(assets, amounts)
}

func DecodeAssetAmounts(data []byte) ([]common.Address, []*big.Int, error) {
	values, err := AssetAmounts.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	assets, amounts := values[0].([]common.Address), values[1].([]*big.Int)
	if len(assets) != len(amounts) {
		return nil, nil, fmt.Errorf("decode asset amounts: %d assets, %d amounts", len(assets), len(amounts))
	}
	return assets, amounts, nil
}

// EncodeAddressBytes packs an (address, bytes) pair, used for policy and position actions.
func EncodeAddressBytes(a common.Address, b []byte) ([]byte, error) {
	if b == nil {
		b = []byte{}
	}
	return AddressBytes.Encode(a, b)
}

func DecodeAddressBytes(data []byte) (common.Address, []byte, error) {
	values, err := AddressBytes.Decode(data)
	if err != nil {
		return common.Address{}, nil, err
	}
	return values[0].(common.Address), values[1].([]byte), nil
}

func EncodeUint256Bytes(n *big.Int, b []byte) ([]byte, error) {
	if b == nil {
		b = []byte{}
	}
	return Uint256Bytes.Encode(n, b)
}

func DecodeUint256Bytes(data []byte) (*big.Int, []byte, error) {
	values, err := Uint256Bytes.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return values[0].(*big.Int), values[1].([]byte), nil
}

// IntegrationCall is the payload of an integration call action.
type IntegrationCall struct {
	Adapter  common.Address
	Selector [4]byte
	Data     []byte
}

func EncodeIntegrationCall(c IntegrationCall) ([]byte, error) {
	data := c.Data
	if data == nil {
		data = []byte{}
	}
	return IntegrationArg.Encode(c.Adapter, c.Selector, data)
}

func DecodeIntegrationCall(data []byte) (IntegrationCall, error) {
	values, err := IntegrationArg.Decode(data)
	if err != nil {
		return IntegrationCall{}, err
	}
	return IntegrationCall{
		Adapter:  values[0].(common.Address),
		Selector: values[1].([4]byte),
		Data:     values[2].([]byte),
	}, nil
}

// PositionCreate is the payload of an external position create action.
type PositionCreate struct {
	TypeID   *big.Int
	InitArgs []byte
	CallArgs []byte
}

func EncodePositionCreate(p PositionCreate) ([]byte, error) {
	initArgs, callArgs := p.InitArgs, p.CallArgs
	if initArgs == nil {
		initArgs = []byte{}
	}
	if callArgs == nil {
		callArgs = []byte{}
	}
	return CreatePosition.Encode(p.TypeID, initArgs, callArgs)
}

func DecodePositionCreate(data []byte) (PositionCreate, error) {
	values, err := CreatePosition.Decode(data)
	if err != nil {
		return PositionCreate{}, err
	}
	return PositionCreate{
		TypeID:   values[0].(*big.Int),
		InitArgs: values[1].([]byte),
		CallArgs: values[2].([]byte),
	}, nil
}
