// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"errors"
	"fmt"
)

// Code classifies rule violations so callers can handle them programmatically.
type Code string

const (
	CodeInvalidAmount  Code = "invalid_amount"
	CodeInactivePool   Code = "inactive_pool"
	CodeInvalidPool    Code = "invalid_pool"
	CodePoolExists     Code = "pool_already_exists"
	CodeNotInitialized Code = "not_initialized"
	CodeZeroAddress    Code = "zero_address"
	CodeNotManager     Code = "not_manager"
	CodeReentrantCall  Code = "reentrant_call"
	CodeTransferFailed Code = "transfer_failed"
)

// RuleError is returned when an operation violates a ledger rule.
// Every rule error aborts the whole operation with no partial state change.
type RuleError struct {
	Code   Code
	Detail string
}

func (e *RuleError) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func newRuleError(code Code, format string, args ...any) *RuleError {
	return &RuleError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// IsCode checks whether err is a rule error with the given code.
func IsCode(err error, code Code) bool {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsRuleError checks whether err is a ledger rule violation,
// as opposed to an infrastructure failure.
func IsRuleError(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}
