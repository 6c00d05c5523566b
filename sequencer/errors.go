package sequencer

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/mintwrap-go/wallet"
)

var (
	ErrNotConnected     = wallet.ErrNotConnected
	ErrTokenIdNotFound  = errors.New("mint event not found")
	ErrSequenceInFlight = errors.New("a mint is already in progress")
)

// MintFailedError reports that the mint tx could not be sent or did not
// succeed on chain. Nothing has been minted, or the mint reverted.
type MintFailedError struct {
	TxHash common.Hash // zero when the tx was never sent
	Reason error
}

func (e *MintFailedError) Error() string {
	return fmt.Sprintf("mint failed: %v", e.Reason)
}

func (e *MintFailedError) Unwrap() error {
	return e.Reason
}

// WrapFailedError reports that a token exists but could not be wrapped.
// Wrapping it alone again is safe; minting again creates another token.
type WrapFailedError struct {
	TokenId *big.Int
	TxHash  common.Hash // zero when the tx was never sent
	Reason  error
}

func (e *WrapFailedError) Error() string {
	return fmt.Sprintf("wrap of token %v failed, token is minted but not wrapped: %v", e.TokenId, e.Reason)
}

func (e *WrapFailedError) Unwrap() error {
	return e.Reason
}

// UnexpectedError is anything outside the known failure modes.
type UnexpectedError struct {
	Message string
}

func (e *UnexpectedError) Error() string {
	return "unexpected: " + e.Message
}

const (
	OutcomeSuccess         = "success"
	OutcomeNotConnected    = "not_connected"
	OutcomeInFlight        = "in_flight"
	OutcomeMintFailed      = "mint_failed"
	OutcomeTokenIdNotFound = "token_id_not_found"
	OutcomeWrapFailed      = "wrap_failed"
	OutcomeUnexpected      = "unexpected"
)

// Outcome classifies the result of a sequence for reporting.
func Outcome(err error) string {
	var (
		mintErr *MintFailedError
		wrapErr *WrapFailedError
	)

	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrNotConnected):
		return OutcomeNotConnected
	case errors.Is(err, ErrSequenceInFlight):
		return OutcomeInFlight
	case errors.As(err, &mintErr):
		return OutcomeMintFailed
	case errors.Is(err, ErrTokenIdNotFound):
		return OutcomeTokenIdNotFound
	case errors.As(err, &wrapErr):
		return OutcomeWrapFailed
	default:
		return OutcomeUnexpected
	}
}
