// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/vault"
)

// IsManager returns whether the account may administer pools and fund
// rewards.
func (l *Ledger) IsManager(account vault.Address) bool {
	return l.store.IsManager(account)
}

func (l *Ledger) requireManager(caller vault.Address) error {
	if !l.store.IsManager(caller) {
		return newRuleError(CodeNotManager, "account %v is not a manager", caller)
	}
	return nil
}

// AddManager grows the manager set. Adding an existing member is a no-op.
func (l *Ledger) AddManager(caller, account vault.Address, now uint64) error {
	if err := l.requireManager(caller); err != nil {
		return err
	}
	if account.IsZero() {
		return newRuleError(CodeZeroAddress, "manager cannot be the zero address")
	}
	if l.store.IsManager(account) {
		return nil
	}

	j := &journal{}
	l.store.setManager(j, account, true)
	if err := l.store.commit(j); err != nil {
		j.revert()
		return errors.Wrap(err, "commit manager addition")
	}

	logger.Info("added manager", "account", account)
	l.emit(&Event{
		Kind:      EventManagerAdded,
		Account:   &account,
		Timestamp: now,
	})
	return nil
}

// RemoveManager shrinks the manager set. Removing a non-member is a no-op.
func (l *Ledger) RemoveManager(caller, account vault.Address, now uint64) error {
	if err := l.requireManager(caller); err != nil {
		return err
	}
	if account.IsZero() {
		return newRuleError(CodeZeroAddress, "manager cannot be the zero address")
	}
	if !l.store.IsManager(account) {
		return nil
	}

	j := &journal{}
	l.store.setManager(j, account, false)
	if err := l.store.commit(j); err != nil {
		j.revert()
		return errors.Wrap(err, "commit manager removal")
	}

	logger.Info("removed manager", "account", account)
	l.emit(&Event{
		Kind:      EventManagerRemoved,
		Account:   &account,
		Timestamp: now,
	})
	return nil
}
