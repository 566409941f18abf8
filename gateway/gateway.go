// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package gateway abstracts moving value of the native asset or a fungible
// token into and out of the vault. Implementations must surface transfer
// failures as errors and never swallow an unsuccessful transfer.
package gateway

import (
	"errors"
	"math/big"

	"github.com/stakevault/stakevault/vault"
)

var (
	// ErrTokenTransfer indicates a fungible token transfer reported failure.
	ErrTokenTransfer = errors.New("token transfer failed")
	// ErrNativeTransfer indicates a native asset transfer reported failure.
	ErrNativeTransfer = errors.New("native transfer failed")
	// ErrZeroRecipient indicates a push to the null address.
	ErrZeroRecipient = errors.New("push to zero address")
)

// Gateway pulls value from accounts into the vault and pushes value out.
// An external transfer may invoke arbitrary recursive logic before
// returning control; callers are expected to hold the execution guard.
type Gateway interface {
	// Pull moves amount of the asset from the account into the vault.
	Pull(asset vault.Bytes32, isNative bool, from vault.Address, amount *big.Int) error
	// Push moves amount of the asset out of the vault to the account.
	Push(asset vault.Bytes32, isNative bool, to vault.Address, amount *big.Int) error
}
