package store

import (
	"errors"
	"fmt"
	"testing"
)

// Compile-time checks that the interface is importable and usable.
func TestLedgerStoreInterfaceExists(t *testing.T) {
	_ = CreateAccountParams{}
	_ = CompleteAdParams{}
	_ = RecordPlayParams{}

	var _ LedgerStore
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	all := []error{
		ErrPrematureCompletion, ErrNoAdStarted, ErrLocked, ErrTrackNotFound,
		ErrInsufficientBalance, ErrBelowMinimum, ErrInvalidAmount, ErrNotPending,
		ErrWithdrawalNotFound, ErrInvalidDecision, ErrAccountNotFound, ErrWrongRole,
		ErrAccountBanned, ErrAccountInactive, ErrEmailExists, ErrUsernameExists,
		ErrTrackLimitReached, ErrInvalidCredentials, ErrSelfAction, ErrInvalidBanDuration,
		ErrInvalidInput, ErrBalanceMismatch,
	}

	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %q matches %q", a, b)
			}
		}
	}

	wrapped := fmt.Errorf("play rejected: %w", ErrLocked)
	if !errors.Is(wrapped, ErrLocked) {
		t.Errorf("wrapped error should match ErrLocked")
	}
}
