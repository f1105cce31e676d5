package chain

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// stubCaller answers calls by method selector.
type stubCaller struct {
	parsed  abi.ABI
	outputs map[string][]interface{}
}

func (s *stubCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	for name, method := range s.parsed.Methods {
		if bytes.Equal(msg.Data[:4], method.ID) {
			out, ok := s.outputs[name]
			if !ok {
				return nil, fmt.Errorf("execution reverted")
			}
			return method.Outputs.Pack(out...)
		}
	}
	return nil, fmt.Errorf("unknown selector")
}

func TestFetchLatestRound(t *testing.T) {
	parsed, err := AggregatorABI()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	caller := &stubCaller{parsed: parsed, outputs: map[string][]interface{}{
		"decimals":        {uint8(8)},
		"latestRoundData": {big.NewInt(7), big.NewInt(200_000_000_000), big.NewInt(1000), big.NewInt(1005), big.NewInt(7)},
	}}

	round, err := FetchLatestRound(context.Background(), caller, common.HexToAddress("0x01"))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if round.Decimals != 8 || round.Answer.Int64() != 200_000_000_000 || round.UpdatedAt != 1005 {
		t.Fatalf("unexpected round: %+v", round)
	}
}

func TestFetchTokenMeta(t *testing.T) {
	parsed, err := ERC20ABI()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	caller := &stubCaller{parsed: parsed, outputs: map[string][]interface{}{
		"decimals": {uint8(6)},
		"symbol":   {"USDC"},
		"name":     {"USD Coin"},
	}}

	meta, err := FetchTokenMeta(context.Background(), caller, common.HexToAddress("0x02"), zap.NewNop())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if meta.Decimals != 6 || meta.Symbol != "USDC" || meta.Name != "USD Coin" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestFetchTokenMetaRequiresDecimals(t *testing.T) {
	parsed, _ := ERC20ABI()
	caller := &stubCaller{parsed: parsed, outputs: map[string][]interface{}{}}
	if _, err := FetchTokenMeta(context.Background(), caller, common.HexToAddress("0x02"), nil); err == nil {
		t.Fatalf("expected error without decimals")
	}
}
