// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccrue(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		rateBps  uint32
		elapsed  uint64
		expected *big.Int
	}{
		{"one percent per day", big.NewInt(100_000_000), 100, 86400, big.NewInt(1_000_000)},
		{"half interval", big.NewInt(100_000_000), 100, 43200, big.NewInt(500_000)},
		{"ten days", big.NewInt(100_000_000), 100, 10 * 86400, big.NewInt(10_000_000)},
		{"full rate", big.NewInt(1000), 10000, 86400, big.NewInt(1000)},
		{"zero amount", big.NewInt(0), 100, 86400, big.NewInt(0)},
		{"zero rate", big.NewInt(100_000_000), 0, 86400, big.NewInt(0)},
		{"zero elapsed", big.NewInt(100_000_000), 100, 0, big.NewInt(0)},
		{"floors to zero", big.NewInt(1), 1, 1, big.NewInt(0)},
		{"floors fraction", big.NewInt(999), 100, 86400, big.NewInt(9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := accrue(tt.amount, tt.rateBps, tt.elapsed)
			// compare numeric values: reflect.DeepEqual distinguishes
			// big.Int zero representations (nil vs empty limb slice)
			assert.Equal(t, tt.expected.String(), got.String())
		})
	}
}

func TestAccrueLargeBalance(t *testing.T) {
	// amounts near 2^256 must not overflow
	amount, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	assert.True(t, ok)

	reward := accrue(amount, 10000, 86400)
	assert.Equal(t, amount, reward)
}

func TestAccrueNeverNegative(t *testing.T) {
	assert.True(t, accrue(big.NewInt(7), 3, 11).Sign() >= 0)
}
