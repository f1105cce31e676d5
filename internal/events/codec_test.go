package events

import (
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"fundCore/internal/model"
)

func TestCoreABIParses(t *testing.T) {
	parsed, err := CoreABI()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, name := range []string{Settled, AddressesAdded, ListsSetForFund, ImplementationSet, CallOnIntegrationExecuted} {
		if _, ok := parsed.Events[name]; !ok {
			t.Fatalf("missing event %s", name)
		}
	}
}

func TestTopic0IsSignatureHash(t *testing.T) {
	id, err := Topic0(Transfer)
	if err != nil {
		t.Fatalf("topic0: %v", err)
	}
	want := crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	if id != want {
		t.Fatalf("expected %s, got %s", want.Hex(), id.Hex())
	}
}

func toRecord(name string, topics []common.Hash, data []byte) model.EventRecord {
	hexTopics := make([]string, len(topics))
	for i, t := range topics {
		hexTopics[i] = t.Hex()
	}
	return model.EventRecord{Name: name, Topics: hexTopics, Data: hexutil.Encode(data)}
}

func TestEncodeDecodeIntegrationEvent(t *testing.T) {
	controller := common.HexToAddress("0x1000000000000000000000000000000000000001")
	adapter := common.HexToAddress("0x2000000000000000000000000000000000000002")
	weth := common.HexToAddress("0x3000000000000000000000000000000000000003")
	usdc := common.HexToAddress("0x4000000000000000000000000000000000000004")
	selector := [4]byte{0xde, 0xad, 0xbe, 0xef}

	topics, data, err := Encode(CallOnIntegrationExecuted, []interface{}{
		controller, controller, adapter, selector,
		[]common.Address{weth}, []*big.Int{big.NewInt(5)},
		[]common.Address{usdc}, []*big.Int{nil},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(topics) != 4 {
		t.Fatalf("expected 4 topics, got %d", len(topics))
	}

	out, err := Decode(toRecord(CallOnIntegrationExecuted, topics, data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["adapter"].(common.Address) != adapter {
		t.Fatalf("adapter mismatch: %v", out["adapter"])
	}
	if out["selector"].([4]byte) != selector {
		t.Fatalf("selector mismatch: %v", out["selector"])
	}
	if !reflect.DeepEqual(out["incomingAssets"], []common.Address{weth}) {
		t.Fatalf("incoming mismatch: %v", out["incomingAssets"])
	}
	spent := out["spendAssetAmounts"].([]*big.Int)
	if len(spent) != 1 || spent[0].Sign() != 0 {
		t.Fatalf("nil amount should encode as zero: %v", spent)
	}
}

func TestEncodeRejectsArgCountMismatch(t *testing.T) {
	if _, _, err := Encode(Transfer, []interface{}{common.Address{}}); err == nil {
		t.Fatalf("expected arg count error")
	}
	if _, _, err := Encode("Nope", nil); err == nil {
		t.Fatalf("expected unknown event error")
	}
}
