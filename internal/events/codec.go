package events

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"fundCore/internal/model"
)

var (
	coreABI     abi.ABI
	coreABIErr  error
	coreABIOnce sync.Once
)

// CoreABI returns the parsed event ABI.
func CoreABI() (abi.ABI, error) {
	coreABIOnce.Do(func() {
		coreABI, coreABIErr = abi.JSON(strings.NewReader(coreABIJSON))
	})
	return coreABI, coreABIErr
}

// Topic0 returns the event id of name.
func Topic0(name string) (common.Hash, error) {
	parsed, err := CoreABI()
	if err != nil {
		return common.Hash{}, fmt.Errorf("parse core abi: %w", err)
	}
	ev, ok := parsed.Events[name]
	if !ok {
		return common.Hash{}, fmt.Errorf("unknown event: %s", name)
	}
	return ev.ID, nil
}

// Encode packs args, given in declaration order, into topics and data.
func Encode(name string, args []interface{}) ([]common.Hash, []byte, error) {
	parsed, err := CoreABI()
	if err != nil {
		return nil, nil, fmt.Errorf("parse core abi: %w", err)
	}
	ev, ok := parsed.Events[name]
	if !ok {
		return nil, nil, fmt.Errorf("unknown event: %s", name)
	}
	if len(args) != len(ev.Inputs) {
		return nil, nil, fmt.Errorf("event %s: want %d args, got %d", name, len(ev.Inputs), len(args))
	}

	topics := []common.Hash{ev.ID}
	var data []interface{}
	for i, input := range ev.Inputs {
		arg := normalize(args[i])
		if !input.Indexed {
			data = append(data, arg)
			continue
		}
		rules, err := abi.MakeTopics([]interface{}{arg})
		if err != nil {
			return nil, nil, fmt.Errorf("event %s: topic %s: %w", name, input.Name, err)
		}
		topics = append(topics, rules[0][0])
	}

	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return nil, nil, fmt.Errorf("event %s: pack data: %w", name, err)
	}
	return topics, packed, nil
}

// Decode unpacks a stored record back into named values.
func Decode(record model.EventRecord) (map[string]interface{}, error) {
	parsed, err := CoreABI()
	if err != nil {
		return nil, fmt.Errorf("parse core abi: %w", err)
	}
	ev, ok := parsed.Events[record.Name]
	if !ok {
		return nil, fmt.Errorf("unknown event: %s", record.Name)
	}

	out := make(map[string]interface{})
	data, err := hexutil.Decode(record.Data)
	if err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	if len(data) > 0 {
		if err := ev.Inputs.NonIndexed().UnpackIntoMap(out, data); err != nil {
			return nil, fmt.Errorf("unpack data: %w", err)
		}
	}

	var indexed abi.Arguments
	for _, input := range ev.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(record.Topics) != len(indexed)+1 {
		return nil, fmt.Errorf("event %s: want %d topics, got %d", record.Name, len(indexed)+1, len(record.Topics))
	}
	topics := make([]common.Hash, 0, len(indexed))
	for _, t := range record.Topics[1:] {
		topics = append(topics, common.HexToHash(t))
	}
	if err := abi.ParseTopicsIntoMap(out, indexed, topics); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}
	return out, nil
}

// normalize replaces nil big integers, which the packer cannot encode, with zero.
func normalize(arg interface{}) interface{} {
	switch v := arg.(type) {
	case *big.Int:
		if v == nil {
			return new(big.Int)
		}
	case []*big.Int:
		out := make([]*big.Int, len(v))
		for i, n := range v {
			if n == nil {
				n = new(big.Int)
			}
			out[i] = n
		}
		return out
	}
	return arg
}
