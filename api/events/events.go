// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/api/restutil"
	"github.com/stakevault/stakevault/eventdb"
)

// Events serves queries against the persisted notification log.
type Events struct {
	db    *eventdb.EventDB
	limit uint64
}

// New creates the events api. limit caps the number of records a single
// query may return.
func New(db *eventdb.EventDB, limit uint64) *Events {
	return &Events{db, limit}
}

// Mount attaches the handlers under the path prefix.
func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /events").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleFilter))
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter eventdb.Filter
	if err := restutil.ParseJSON(req.Body, &filter); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if filter.Options == nil {
		filter.Options = &eventdb.Options{Limit: e.limit}
	} else if filter.Options.Limit > e.limit {
		return restutil.Forbidden(errors.Errorf("options.limit exceeds the maximum allowed value of %v", e.limit))
	}
	found, err := e.db.Filter(&filter)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, found)
}
