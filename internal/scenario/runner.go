package scenario

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fundCore/internal/addressbook"
	"fundCore/internal/errs"
	"fundCore/internal/model"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Index       int    `json:"index"`
	Action      string `json:"action"`
	Label       string `json:"label,omitempty"`
	BlockNumber uint64 `json:"block_number,omitempty"`
	TxHash      string `json:"tx_hash,omitempty"`
	Events      int    `json:"events"`
	// Error is the kind of an expected failure.
	Error string `json:"error,omitempty"`
}

// Result is a completed run.
type Result struct {
	Steps     []StepResult
	Snapshots []model.FundSnapshot
	Book      addressbook.Book
	World     *World
}

// Run builds sc's world and runs its steps in order. It stops at the first
// step that fails unexpectedly or whose expectations do not hold.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Result, error) {
	w, err := NewWorld(ctx, sc, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{Book: w.Book, World: w}
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		sr, err := w.step(ctx, i, st)
		if err != nil {
			return res, fmt.Errorf("step %d (%s): %w", i, st.Action, err)
		}
		res.Steps = append(res.Steps, sr)
		if st.Expect != nil {
			if err := w.check(st, *st.Expect); err != nil {
				return res, fmt.Errorf("step %d (%s): %w", i, st.Action, err)
			}
		}
		snaps, err := w.publishSnapshots(ctx)
		if err != nil {
			return res, err
		}
		res.Snapshots = append(res.Snapshots, snaps...)
	}
	w.logger.Info("scenario complete",
		zap.Int("steps", len(res.Steps)),
		zap.Uint64("block", w.Processor.BlockNumber()))
	return res, nil
}

func (w *World) step(ctx context.Context, i int, st Step) (StepResult, error) {
	sr := StepResult{Index: i, Action: st.Action, Label: st.Label}
	receipt, err := handlers[st.Action](ctx, w, st)
	want := normalizeKind(st.ExpectError)
	if err != nil {
		got := normalizeKind(errs.KindOf(err).String())
		if want == "" {
			return sr, err
		}
		if got != want {
			return sr, fmt.Errorf("expected %s, got %w", want, err)
		}
		w.logger.Debug("step failed as expected",
			zap.Int("step", i),
			zap.String("action", st.Action),
			zap.Error(err))
		sr.Error = got
		return sr, nil
	}
	if want != "" {
		return sr, fmt.Errorf("expected %s, step succeeded", want)
	}
	if receipt != nil {
		sr.BlockNumber = receipt.BlockNumber
		sr.TxHash = receipt.TxHash.Hex()
		sr.Events = len(receipt.Events)
	}
	w.logger.Debug("step committed",
		zap.Int("step", i),
		zap.String("action", st.Action),
		zap.Int("events", sr.Events))
	return sr, nil
}

func normalizeKind(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

func (w *World) check(st Step, exp Expectation) error {
	var failures []string
	w.Processor.View(func() {
		vaultAddr, c, err := w.Fund(st.Fund)
		needFund := len(exp.Shares) > 0 || exp.Supply != "" || exp.Gav != "" || exp.Status != ""
		if err != nil && needFund {
			failures = append(failures, err.Error())
			return
		}
		for holder, want := range exp.Shares {
			addr, err := w.holder(holder, vaultAddr)
			if err != nil {
				failures = append(failures, err.Error())
				continue
			}
			got := formatAmount(c.Vault().BalanceOf(addr), sharesDecimals)
			if !sameAmount(got, want) {
				failures = append(failures, fmt.Sprintf("shares of %s: got %s, want %s", holder, got, want))
			}
		}
		for holder, byAsset := range exp.Balances {
			addr, err := w.holder(holder, vaultAddr)
			if err != nil {
				failures = append(failures, err.Error())
				continue
			}
			for sym, want := range byAsset {
				asset, decimals, err := w.asset(sym)
				if err != nil {
					failures = append(failures, err.Error())
					continue
				}
				got := formatAmount(w.Tokens.BalanceOf(asset, addr), decimals)
				if !sameAmount(got, want) {
					failures = append(failures, fmt.Sprintf("%s balance of %s: got %s, want %s", sym, holder, got, want))
				}
			}
		}
		if exp.Supply != "" {
			got := formatAmount(c.Vault().TotalSupply(), sharesDecimals)
			if !sameAmount(got, exp.Supply) {
				failures = append(failures, fmt.Sprintf("share supply: got %s, want %s", got, exp.Supply))
			}
		}
		if exp.Gav != "" {
			gav, _, err := c.CalcGav(context.Background(), false)
			if err != nil {
				failures = append(failures, fmt.Sprintf("gav: %v", err))
			} else if got := formatAmount(gav, w.decimals(c.DenominationAsset())); !sameAmount(got, exp.Gav) {
				failures = append(failures, fmt.Sprintf("gav: got %s, want %s", got, exp.Gav))
			}
		}
		if exp.Status != "" {
			status, _ := w.Dispatcher.FundStatus(vaultAddr)
			if !strings.EqualFold(status.String(), exp.Status) {
				failures = append(failures, fmt.Sprintf("status: got %s, want %s", status, exp.Status))
			}
		}
	})
	if len(failures) > 0 {
		return fmt.Errorf("expectations failed: %s", strings.Join(failures, "; "))
	}
	return nil
}

// sameAmount compares decimals textually after normalizing trailing zeros.
func sameAmount(got, want string) bool {
	return got == trimDecimal(strings.ReplaceAll(strings.TrimSpace(want), "_", ""))
}

func trimDecimal(s string) string {
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "" {
		return "0"
	}
	return s
}
