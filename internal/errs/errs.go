package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure of a pool action.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindUnauthorizedExtension
	KindInvalidConfiguration
	KindInvalidPayoutSpecification
	KindPolicyRuleViolated
	KindSlippageExceeded
	KindIncomingAssetAmountTooLow
	KindUnexpectedAssetMovement
	KindReleaseNotLive
	KindTimelockNotElapsed
	KindUnsupportedAsset
	KindUnsupportedPositionType
	KindPositionNotReconciled
	KindAlreadyInitialized
	KindReentrancyBlocked
	KindInsufficientBalance
)

// Sentinels, one per kind, for errors.Is checks.
var (
	ErrUnauthorized               = errors.New("unauthorized")
	ErrUnauthorizedExtension      = errors.New("unauthorized extension")
	ErrInvalidConfiguration       = errors.New("invalid configuration")
	ErrInvalidPayoutSpecification = errors.New("invalid payout specification")
	ErrPolicyRuleViolated         = errors.New("policy rule violated")
	ErrSlippageExceeded           = errors.New("slippage exceeded")
	ErrIncomingAssetAmountTooLow  = errors.New("incoming asset amount too low")
	ErrUnexpectedAssetMovement    = errors.New("unexpected asset movement")
	ErrReleaseNotLive             = errors.New("release not live")
	ErrTimelockNotElapsed         = errors.New("timelock not elapsed")
	ErrUnsupportedAsset           = errors.New("unsupported asset")
	ErrUnsupportedPositionType    = errors.New("unsupported position type")
	ErrPositionNotReconciled      = errors.New("position not reconciled")
	ErrAlreadyInitialized         = errors.New("already initialized")
	ErrReentrancyBlocked          = errors.New("reentrancy blocked")
	ErrInsufficientBalance        = errors.New("insufficient balance")
)

var sentinels = map[Kind]error{
	KindUnauthorized:               ErrUnauthorized,
	KindUnauthorizedExtension:      ErrUnauthorizedExtension,
	KindInvalidConfiguration:       ErrInvalidConfiguration,
	KindInvalidPayoutSpecification: ErrInvalidPayoutSpecification,
	KindPolicyRuleViolated:         ErrPolicyRuleViolated,
	KindSlippageExceeded:           ErrSlippageExceeded,
	KindIncomingAssetAmountTooLow:  ErrIncomingAssetAmountTooLow,
	KindUnexpectedAssetMovement:    ErrUnexpectedAssetMovement,
	KindReleaseNotLive:             ErrReleaseNotLive,
	KindTimelockNotElapsed:         ErrTimelockNotElapsed,
	KindUnsupportedAsset:           ErrUnsupportedAsset,
	KindUnsupportedPositionType:    ErrUnsupportedPositionType,
	KindPositionNotReconciled:      ErrPositionNotReconciled,
	KindAlreadyInitialized:         ErrAlreadyInitialized,
	KindReentrancyBlocked:          ErrReentrancyBlocked,
	KindInsufficientBalance:        ErrInsufficientBalance,
}

// String returns the kind name.
func (k Kind) String() string {
	if s, ok := sentinels[k]; ok {
		return s.Error()
	}
	return "unknown"
}

// Sentinel returns the sentinel error of the kind, or nil.
func (k Kind) Sentinel() error {
	return sentinels[k]
}

// Error is the structured failure surfaced by every aborted unit of work.
type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && s == target
}

// E builds an Error of kind for op with a formatted detail.
func E(kind Kind, op string, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of kind for op that wraps err.
func Wrap(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of the first Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// PolicyViolation reports the identifier attached to a PolicyRuleViolated error.
func PolicyViolation(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindPolicyRuleViolated {
		return e.Detail, true
	}
	return "", false
}
