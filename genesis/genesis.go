// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis declares the node's initial state: the manager set, the
// reward asset, predefined pools and bank allocations.
package genesis

import (
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stakevault/stakevault/bank"
	"github.com/stakevault/stakevault/ledger"
	"github.com/stakevault/stakevault/log"
	"github.com/stakevault/stakevault/vault"
)

var logger = log.WithContext("pkg", "genesis")

// Asset names an asset by identifier and nativeness.
type Asset struct {
	ID     string `yaml:"id"`
	Native bool   `yaml:"native"`
}

// Pool declares a pool to create at first boot.
type Pool struct {
	Asset   Asset  `yaml:"asset"`
	RateBps uint32 `yaml:"rateBps"`
}

// Allocation seeds a bank balance at first boot.
type Allocation struct {
	Account string `yaml:"account"`
	Asset   Asset  `yaml:"asset"`
	Amount  string `yaml:"amount"`
}

// Genesis is the root of the genesis document.
type Genesis struct {
	RewardAsset Asset        `yaml:"rewardAsset"`
	Managers    []string     `yaml:"managers"`
	Pools       []Pool       `yaml:"pools"`
	Allocations []Allocation `yaml:"allocations"`
}

// Load reads and parses a genesis document.
func Load(path string) (*Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	return Parse(raw)
}

// Parse parses a genesis document.
func Parse(raw []byte) (*Genesis, error) {
	var g Genesis
	if err := yaml.Unmarshal(raw, &g); err != nil {
		return nil, errors.Wrap(err, "parse genesis file")
	}
	if len(g.Managers) == 0 {
		return nil, errors.New("genesis declares no managers")
	}
	return &g, nil
}

// RewardConfig converts the reward asset declaration to a ledger config.
func (g *Genesis) RewardConfig() (ledger.Config, error) {
	asset, err := parseAsset(g.RewardAsset)
	if err != nil {
		return ledger.Config{}, errors.WithMessage(err, "reward asset")
	}
	return ledger.Config{RewardAsset: asset, RewardIsNative: g.RewardAsset.Native}, nil
}

// Apply seeds a virgin ledger and bank. A store that already has managers is
// assumed initialized and left untouched.
func (g *Genesis) Apply(led *ledger.Ledger, bk *bank.Bank, now uint64) error {
	if len(led.Store().Managers()) > 0 {
		logger.Debug("store already initialized, skipping genesis")
		return nil
	}

	managers := make([]vault.Address, 0, len(g.Managers))
	for _, s := range g.Managers {
		addr, err := vault.ParseAddress(s)
		if err != nil {
			return errors.WithMessagef(err, "genesis manager %q", s)
		}
		managers = append(managers, addr)
	}
	if err := led.Store().Bootstrap(managers); err != nil {
		return err
	}

	admin := managers[0]
	for _, p := range g.Pools {
		asset, err := parseAsset(p.Asset)
		if err != nil {
			return errors.WithMessage(err, "genesis pool")
		}
		id, err := led.CreatePool(admin, asset, p.Asset.Native, p.RateBps, now)
		if err != nil {
			return errors.WithMessage(err, "genesis pool")
		}
		logger.Info("created genesis pool", "pool", id, "rateBps", p.RateBps)
	}

	for _, a := range g.Allocations {
		addr, err := vault.ParseAddress(a.Account)
		if err != nil {
			return errors.WithMessagef(err, "genesis allocation %q", a.Account)
		}
		asset, err := parseAsset(a.Asset)
		if err != nil {
			return errors.WithMessage(err, "genesis allocation")
		}
		amount, ok := new(big.Int).SetString(a.Amount, 10)
		if !ok {
			return errors.Errorf("invalid genesis allocation amount %q", a.Amount)
		}
		if err := bk.Mint(asset, a.Asset.Native, addr, amount); err != nil {
			return errors.WithMessage(err, "genesis allocation")
		}
	}

	logger.Info("applied genesis", "managers", len(managers), "pools", len(g.Pools), "allocations", len(g.Allocations))
	return nil
}

func parseAsset(a Asset) (vault.Bytes32, error) {
	if a.ID == "" {
		return vault.Bytes32{}, nil
	}
	return vault.ParseBytes32(a.ID)
}
