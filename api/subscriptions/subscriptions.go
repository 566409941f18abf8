// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/api/restutil"
	"github.com/stakevault/stakevault/ledger"
	"github.com/stakevault/stakevault/log"
	"github.com/stakevault/stakevault/vault"
)

const (
	pingPeriod = 10 * time.Second
	writeWait  = 5 * time.Second
	bufferSize = 256
)

var logger = log.WithContext("pkg", "subscriptions")

// Subscriptions streams live ledger notifications over websocket.
type Subscriptions struct {
	led      *ledger.Ledger
	upgrader websocket.Upgrader
	done     chan struct{}
}

// New creates the subscriptions api.
func New(led *ledger.Ledger) *Subscriptions {
	return &Subscriptions{
		led: led,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}
}

// Mount attaches the handlers under the path prefix.
func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("GET /subscriptions/events").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleSubscribeEvents))
}

// Close terminates all active subscriptions.
func (s *Subscriptions) Close() {
	close(s.done)
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	var (
		poolID *vault.Bytes32
		kind   *ledger.EventKind
	)
	if q := req.URL.Query().Get("pool"); q != "" {
		id, err := vault.ParseBytes32(q)
		if err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "pool"))
		}
		poolID = &id
	}
	if q := req.URL.Query().Get("kind"); q != "" {
		k := ledger.EventKind(q)
		kind = &k
	}

	// subscribe before the upgrade completes, so events fired right after
	// a successful dial are not missed
	ch := make(chan *ledger.Event, bufferSize)
	sub := s.led.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has already replied to the client
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	defer conn.Close()

	// drain reads so close frames and pongs are processed
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pinger := time.NewTicker(pingPeriod)
	defer pinger.Stop()

	for {
		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-req.Context().Done():
			return nil
		case err := <-sub.Err():
			return err
		case <-pinger.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case ev := <-ch:
			if poolID != nil && (ev.PoolID == nil || *ev.PoolID != *poolID) {
				continue
			}
			if kind != nil && ev.Kind != *kind {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				logger.Debug("subscriber write failed", "err", err)
				return nil
			}
		}
	}
}
