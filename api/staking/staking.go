// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/api/restutil"
	"github.com/stakevault/stakevault/ledger"
	"github.com/stakevault/stakevault/vault"
)

// Staking exposes the ledger over REST.
type Staking struct {
	svc *ledger.Service
}

// New creates the staking api.
func New(svc *ledger.Service) *Staking {
	return &Staking{svc}
}

// Mount attaches the handlers under the path prefix.
func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/pools").
		Methods(http.MethodGet).
		Name("GET /pools").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleListPools))
	sub.Path("/pools").
		Methods(http.MethodPost).
		Name("POST /pools").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleCreatePool))
	sub.Path("/pools/{id}").
		Methods(http.MethodGet).
		Name("GET /pools/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetPool))
	sub.Path("/pools/{id}").
		Methods(http.MethodPost).
		Name("POST /pools/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleUpdatePool))
	sub.Path("/pools/{id}/stake").
		Methods(http.MethodPost).
		Name("POST /pools/{id}/stake").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleStake))
	sub.Path("/pools/{id}/unstake").
		Methods(http.MethodPost).
		Name("POST /pools/{id}/unstake").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleUnstake))
	sub.Path("/pools/{id}/claim").
		Methods(http.MethodPost).
		Name("POST /pools/{id}/claim").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleClaim))
	sub.Path("/pools/{id}/stakes/{addr}").
		Methods(http.MethodGet).
		Name("GET /pools/{id}/stakes/{addr}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetStake))
	sub.Path("/pools/{id}/stakes/{addr}/pending").
		Methods(http.MethodGet).
		Name("GET /pools/{id}/stakes/{addr}/pending").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetPending))
	sub.Path("/rewards/fund").
		Methods(http.MethodPost).
		Name("POST /rewards/fund").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleFund))
	sub.Path("/rewards/reserve").
		Methods(http.MethodGet).
		Name("GET /rewards/reserve").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetReserve))
	sub.Path("/managers").
		Methods(http.MethodGet).
		Name("GET /managers").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleListManagers))
	sub.Path("/managers/add").
		Methods(http.MethodPost).
		Name("POST /managers/add").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleAddManager))
	sub.Path("/managers/remove").
		Methods(http.MethodPost).
		Name("POST /managers/remove").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleRemoveManager))
}

func (s *Staking) handleListPools(w http.ResponseWriter, _ *http.Request) error {
	ids := s.svc.Ledger().Store().PoolIDs()
	infos := make([]*PoolInfo, 0, len(ids))
	for _, id := range ids {
		infos = append(infos, convertPoolInfo(s.svc.GetPoolInfo(id)))
	}
	return restutil.WriteJSON(w, infos)
}

func (s *Staking) handleCreatePool(w http.ResponseWriter, req *http.Request) error {
	var body CreatePoolRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	caller, err := vault.ParseAddress(body.Caller)
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "caller"))
	}
	var asset vault.Bytes32
	if body.Asset != "" {
		if asset, err = vault.ParseBytes32(body.Asset); err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "asset"))
		}
	}
	id, err := s.svc.CreatePool(caller, asset, body.Native, body.RateBps)
	if err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"id": id.String()})
}

func (s *Staking) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	id, err := parsePoolID(req)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, convertPoolInfo(s.svc.GetPoolInfo(id)))
}

func (s *Staking) handleUpdatePool(_ http.ResponseWriter, req *http.Request) error {
	id, err := parsePoolID(req)
	if err != nil {
		return err
	}
	var body UpdatePoolRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	caller, err := vault.ParseAddress(body.Caller)
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "caller"))
	}
	if err := s.svc.UpdatePool(caller, id, body.RateBps, body.Active); err != nil {
		return convertLedgerError(err)
	}
	return nil
}

func (s *Staking) handleStake(_ http.ResponseWriter, req *http.Request) error {
	id, err := parsePoolID(req)
	if err != nil {
		return err
	}
	var body StakeRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	caller, err := vault.ParseAddress(body.Caller)
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "caller"))
	}
	if err := s.svc.Stake(caller, id, (*big.Int)(body.Amount), (*big.Int)(body.AttachedValue)); err != nil {
		return convertLedgerError(err)
	}
	return nil
}

func (s *Staking) handleUnstake(_ http.ResponseWriter, req *http.Request) error {
	id, err := parsePoolID(req)
	if err != nil {
		return err
	}
	var body UnstakeRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	caller, err := vault.ParseAddress(body.Caller)
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "caller"))
	}
	if err := s.svc.Unstake(caller, id, (*big.Int)(body.Amount)); err != nil {
		return convertLedgerError(err)
	}
	return nil
}

func (s *Staking) handleClaim(w http.ResponseWriter, req *http.Request) error {
	id, err := parsePoolID(req)
	if err != nil {
		return err
	}
	var body ClaimRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	caller, err := vault.ParseAddress(body.Caller)
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "caller"))
	}
	claimed, err := s.svc.ClaimRewards(caller, id)
	if err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"claimed": (*math.HexOrDecimal256)(claimed)})
}

func (s *Staking) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	id, err := parsePoolID(req)
	if err != nil {
		return err
	}
	addr, err := parseAddressVar(req)
	if err != nil {
		return err
	}
	stake := s.svc.Ledger().GetStakeInfo(id, addr)
	if stake == nil {
		return restutil.HTTPError(errors.New("no stake record"), http.StatusNotFound)
	}
	return restutil.WriteJSON(w, convertStakeInfo(stake, s.svc.GetPendingRewards(id, addr)))
}

func (s *Staking) handleGetPending(w http.ResponseWriter, req *http.Request) error {
	id, err := parsePoolID(req)
	if err != nil {
		return err
	}
	addr, err := parseAddressVar(req)
	if err != nil {
		return err
	}
	pending := s.svc.GetPendingRewards(id, addr)
	return restutil.WriteJSON(w, restutil.M{"pending": (*math.HexOrDecimal256)(pending)})
}

func (s *Staking) handleFund(_ http.ResponseWriter, req *http.Request) error {
	var body FundRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	caller, err := vault.ParseAddress(body.Caller)
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "caller"))
	}
	if err := s.svc.FundRewards(caller, (*big.Int)(body.Amount)); err != nil {
		return convertLedgerError(err)
	}
	return nil
}

func (s *Staking) handleGetReserve(w http.ResponseWriter, _ *http.Request) error {
	reserve := s.svc.Ledger().Store().Reserve()
	return restutil.WriteJSON(w, restutil.M{"reserve": (*math.HexOrDecimal256)(reserve)})
}

func (s *Staking) handleListManagers(w http.ResponseWriter, _ *http.Request) error {
	managers := s.svc.Ledger().Store().Managers()
	list := make([]string, 0, len(managers))
	for _, addr := range managers {
		list = append(list, addr.String())
	}
	return restutil.WriteJSON(w, list)
}

func (s *Staking) handleAddManager(_ http.ResponseWriter, req *http.Request) error {
	caller, account, err := parseManagerRequest(req)
	if err != nil {
		return err
	}
	if err := s.svc.AddManager(caller, account); err != nil {
		return convertLedgerError(err)
	}
	return nil
}

func (s *Staking) handleRemoveManager(_ http.ResponseWriter, req *http.Request) error {
	caller, account, err := parseManagerRequest(req)
	if err != nil {
		return err
	}
	if err := s.svc.RemoveManager(caller, account); err != nil {
		return convertLedgerError(err)
	}
	return nil
}

func parseManagerRequest(req *http.Request) (caller, account vault.Address, err error) {
	var body ManagerRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return vault.Address{}, vault.Address{}, restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if caller, err = vault.ParseAddress(body.Caller); err != nil {
		return vault.Address{}, vault.Address{}, restutil.BadRequest(errors.WithMessage(err, "caller"))
	}
	if account, err = vault.ParseAddress(body.Account); err != nil {
		return vault.Address{}, vault.Address{}, restutil.BadRequest(errors.WithMessage(err, "account"))
	}
	return caller, account, nil
}

func parsePoolID(req *http.Request) (vault.Bytes32, error) {
	id, err := vault.ParseBytes32(mux.Vars(req)["id"])
	if err != nil {
		return vault.Bytes32{}, restutil.BadRequest(errors.WithMessage(err, "id"))
	}
	return id, nil
}

func parseAddressVar(req *http.Request) (vault.Address, error) {
	addr, err := vault.ParseAddress(mux.Vars(req)["addr"])
	if err != nil {
		return vault.Address{}, restutil.BadRequest(errors.WithMessage(err, "addr"))
	}
	return addr, nil
}

// convertLedgerError maps rule violations to client errors; anything else is
// an internal failure.
func convertLedgerError(err error) error {
	if ledger.IsCode(err, ledger.CodeNotManager) {
		return restutil.Forbidden(err)
	}
	if ledger.IsRuleError(err) {
		return restutil.BadRequest(err)
	}
	return err
}
