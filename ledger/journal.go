// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "github.com/stakevault/stakevault/kv"

// journal records undo entries for every record an operation touches,
// so a failing operation can be rolled back in full. Effects are committed
// eagerly to the arena and become visible as they happen; revert() restores
// the pre-operation state in reverse order. Alongside each undo it keeps a
// dirty entry that re-encodes the touched record into a kv batch at commit.
type journal struct {
	undos   []func()
	dirties []func(kv.Batch) error
}

func (j *journal) record(undo func(), dirty func(kv.Batch) error) {
	j.undos = append(j.undos, undo)
	if dirty != nil {
		j.dirties = append(j.dirties, dirty)
	}
}

func (j *journal) revert() {
	for i := len(j.undos) - 1; i >= 0; i-- {
		j.undos[i]()
	}
	j.undos = nil
	j.dirties = nil
}

func (j *journal) writeTo(batch kv.Batch) error {
	for _, dirty := range j.dirties {
		if err := dirty(batch); err != nil {
			return err
		}
	}
	return nil
}
