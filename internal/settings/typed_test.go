package settings

import (
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestListPolicyCarriesNestedLists(t *testing.T) {
	a := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	b := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	in := ListPolicy{
		ExistingListIDs: []*big.Int{big.NewInt(3)},
		NewLists: []AddressListSpec{
			{UpdateType: UpdateAddOnly, Items: []common.Address{a, b}},
			{UpdateType: UpdateNone, Items: []common.Address{}},
		},
	}
	data, err := EncodeListPolicy(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeListPolicy(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.ExistingListIDs) != 1 || out.ExistingListIDs[0].Int64() != 3 {
		t.Fatalf("unexpected ids: %v", out.ExistingListIDs)
	}
	if !reflect.DeepEqual(out.NewLists[0].Items, []common.Address{a, b}) || out.NewLists[0].UpdateType != UpdateAddOnly {
		t.Fatalf("unexpected first list: %+v", out.NewLists[0])
	}
	if len(out.NewLists[1].Items) != 0 {
		t.Fatalf("second list should be empty")
	}
}

func TestDecodeRejectsBadUpdateType(t *testing.T) {
	inner, err := NewList.Encode(uint8(9), []common.Address{})
	if err != nil {
		t.Fatalf("encode inner: %v", err)
	}
	data, err := ListSettings.Encode([]*big.Int{}, [][]byte{inner})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeListPolicy(data); err == nil {
		t.Fatalf("expected invalid update type error")
	}
}

func TestDecodeEmptyPayloadFails(t *testing.T) {
	if _, err := DecodeUint256(nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

func TestIntegrationCallSelector(t *testing.T) {
	call := IntegrationCall{
		Adapter:  common.HexToAddress("0x00000000000000000000000000000000000000cc"),
		Selector: [4]byte{1, 2, 3, 4},
		Data:     []byte{9},
	}
	data, err := EncodeIntegrationCall(call)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeIntegrationCall(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, call) {
		t.Fatalf("expected %+v, got %+v", call, got)
	}
}
