package scenario

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
)

// parseAmount converts a decimal in whole units to base units. "all" and
// "max" mean the largest uint256.
func parseAmount(input string, decimals uint8) (*big.Int, error) {
	s := strings.TrimSpace(strings.ReplaceAll(input, "_", ""))
	switch strings.ToLower(s) {
	case "":
		return nil, fmt.Errorf("amount is required")
	case "all", "max":
		return new(big.Int).Set(math.MaxBig256), nil
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %s has more than %d decimals", input, decimals)
	}
	if whole == "" {
		whole = "0"
	}
	v, ok := new(big.Int).SetString(whole+frac+strings.Repeat("0", int(decimals)-len(frac)), 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", input)
	}
	return v, nil
}

// parseOptional is parseAmount with an empty input meaning nil.
func parseOptional(input string, decimals uint8) (*big.Int, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	return parseAmount(input, decimals)
}

// formatAmount renders base units as a decimal in whole units.
func formatAmount(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	neg := v.Sign() < 0
	digits := new(big.Int).Abs(v).String()
	if decimals > 0 {
		if len(digits) <= int(decimals) {
			digits = strings.Repeat("0", int(decimals)-len(digits)+1) + digits
		}
		cut := len(digits) - int(decimals)
		digits = strings.TrimRight(digits[:cut]+"."+digits[cut:], "0")
		digits = strings.TrimSuffix(digits, ".")
	}
	if neg {
		return "-" + digits
	}
	return digits
}
