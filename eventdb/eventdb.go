// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb persists ledger notifications in sqlite, so the history
// of pool, stake and manager mutations stays queryable across restarts.
package eventdb

import (
	"database/sql"
	"math/big"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/stakevault/stakevault/ledger"
	"github.com/stakevault/stakevault/vault"
)

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	poolID BLOB,
	account BLOB,
	amount BLOB,
	rateBps INTEGER NOT NULL DEFAULT 0,
	active INTEGER NOT NULL DEFAULT 0,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS event_ts ON event(ts);
CREATE INDEX IF NOT EXISTS event_pool ON event(poolID);`

// OrderType order of queried events.
type OrderType string

const (
	ASC  OrderType = "ASC"
	DESC OrderType = "DESC"
)

// Range limits a query to a timestamp window.
type Range struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// Options pagination options.
type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Filter describes an event query.
type Filter struct {
	Kind    *ledger.EventKind `json:"kind"`
	PoolID  *vault.Bytes32    `json:"poolID"`
	Account *vault.Address    `json:"account"`
	Order   OrderType         `json:"order"` // default asc
	Range   *Range            `json:"range"`
	Options *Options          `json:"options"`
}

// EventDB manages the persisted notification log.
type EventDB struct {
	path          string
	db            *sql.DB
	sqliteVersion string
}

// New creates or opens the event db at the given path.
func New(path string) (*EventDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		db.Close()
		return nil, err
	}
	s, _, _ := sqlite3.Version()
	return &EventDB{
		path:          path,
		db:            db,
		sqliteVersion: s,
	}, nil
}

// NewMem creates an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Close closes the event db.
func (db *EventDB) Close() error {
	return db.db.Close()
}

// Path returns the db file path.
func (db *EventDB) Path() string {
	return db.path
}

// Insert appends events to the log.
func (db *EventDB) Insert(events ...*ledger.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	for _, ev := range events {
		var (
			poolID  []byte
			account []byte
			amount  []byte
			active  int
		)
		if ev.PoolID != nil {
			poolID = ev.PoolID.Bytes()
		}
		if ev.Account != nil {
			account = ev.Account.Bytes()
		}
		if ev.Amount != nil {
			amount = ev.Amount.Bytes()
		}
		if ev.Active {
			active = 1
		}
		if _, err := tx.Exec(
			"INSERT INTO event(kind, poolID, account, amount, rateBps, active, ts) VALUES (?, ?, ?, ?, ?, ?, ?);",
			string(ev.Kind), poolID, account, amount, ev.RateBps, active, ev.Timestamp,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Filter returns events matching the filter.
func (db *EventDB) Filter(filter *Filter) ([]*ledger.Event, error) {
	if filter == nil {
		return db.query("SELECT kind, poolID, account, amount, rateBps, active, ts FROM event ORDER BY seq ASC")
	}
	var args []any
	stmt := "SELECT kind, poolID, account, amount, rateBps, active, ts FROM event WHERE 1"
	if filter.Kind != nil {
		args = append(args, string(*filter.Kind))
		stmt += " AND kind = ? "
	}
	if filter.PoolID != nil {
		args = append(args, filter.PoolID.Bytes())
		stmt += " AND poolID = ? "
	}
	if filter.Account != nil {
		args = append(args, filter.Account.Bytes())
		stmt += " AND account = ? "
	}
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND ts >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND ts <= ? "
		}
	}
	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(stmt, args...)
}

func (db *EventDB) query(stmt string, args ...any) ([]*ledger.Event, error) {
	rows, err := db.db.Query(stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*ledger.Event
	for rows.Next() {
		var (
			kind    string
			poolID  []byte
			account []byte
			amount  []byte
			rateBps uint32
			active  int
			ts      uint64
		)
		if err := rows.Scan(&kind, &poolID, &account, &amount, &rateBps, &active, &ts); err != nil {
			return nil, err
		}
		ev := &ledger.Event{
			Kind:      ledger.EventKind(kind),
			RateBps:   rateBps,
			Active:    active == 1,
			Timestamp: ts,
		}
		if len(poolID) > 0 {
			id := vault.BytesToBytes32(poolID)
			ev.PoolID = &id
		}
		if len(account) > 0 {
			addr := vault.BytesToAddress(account)
			ev.Account = &addr
		}
		if amount != nil {
			ev.Amount = new(big.Int).SetBytes(amount)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
