// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"bytes"
	_ "embed"
	"fmt"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/pozk/ledger/pozk"
)

//go:embed default.yaml
var defaultYAML []byte

// DefaultYAML returns the embedded development genesis document.
func DefaultYAML() []byte {
	return bytes.Clone(defaultYAML)
}

// Document is the YAML genesis of a ledger.
type Document struct {
	Name       string         `yaml:"name"`
	LaunchTime uint64         `yaml:"launchTime,omitempty"`
	Period     uint64         `yaml:"period"`
	Mode       string         `yaml:"mode"`
	Dao        []pozk.Address `yaml:"dao"`
	Accounts   []Account      `yaml:"accounts,omitempty"`
	Params     Params         `yaml:"params"`
	Vesting    []Funding      `yaml:"vesting,omitempty"`
	Provers    []Prover       `yaml:"provers,omitempty"`
}

// Account is a token allocation. Token defaults to the base token.
type Account struct {
	Address pozk.Address  `yaml:"address"`
	Token   *pozk.Address `yaml:"token,omitempty"`
	Balance *Amount       `yaml:"balance"`
}

// Params are the governance settings applied at genesis.
type Params struct {
	MinStakeAmount *Amount             `yaml:"minStakeAmount,omitempty"`
	DisputeDeposit *Amount             `yaml:"disputeDeposit,omitempty"`
	DisputeWindow  uint64              `yaml:"disputeWindow,omitempty"`
	Issuance       *Amount             `yaml:"issuance,omitempty"`
	Tranches       map[string]Tranche `yaml:"tranches,omitempty"`
}

// Tranche is the reward curve of one role.
type Tranche struct {
	FloorPct     uint64 `yaml:"floorPct"`
	CeilPct      uint64 `yaml:"ceilPct"`
	TaskCountCap uint64 `yaml:"taskCountCap"`
	SharePct     uint64 `yaml:"sharePct"`
}

// Funding moves base tokens of Funder into the reward fund.
type Funding struct {
	Funder pozk.Address `yaml:"funder"`
	Amount *Amount      `yaml:"amount"`
}

// Prover is registered at genesis, and approved when Approved is set.
type Prover struct {
	ID       pozk.Address `yaml:"id"`
	Owner    pozk.Address `yaml:"owner"`
	Work     uint32       `yaml:"work"`
	Version  uint32       `yaml:"version"`
	Overtime uint32       `yaml:"overtime"`
	Verifier pozk.Address `yaml:"verifier"`
	Approved bool         `yaml:"approved"`
	Minable  bool         `yaml:"minable"`
}

// Amount is a token amount written as a decimal or 0x-prefixed hex string.
type Amount big.Int

// NewAmount wraps v.
func NewAmount(v *big.Int) *Amount {
	return (*Amount)(new(big.Int).Set(v))
}

// Int returns a copy of the amount.
func (a *Amount) Int() *big.Int {
	return new(big.Int).Set((*big.Int)(a))
}

func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", node.Line)
	}
	v, err := pozk.ParseAmount(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*a = Amount(*v)
	return nil
}

func (a *Amount) MarshalYAML() (any, error) {
	return (*big.Int)(a).String(), nil
}

// Parse decodes a YAML document. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	return &doc, nil
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis")
	}
	return Parse(data)
}

// Encode renders the document as YAML.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, errors.Wrap(err, "encode genesis")
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks the document before any state is touched.
func (d *Document) Validate() error {
	if d.Period == 0 {
		return errors.New("period must be positive")
	}
	if _, err := pozk.ParseMode(d.Mode); err != nil {
		return errors.Wrapf(err, "mode %q", d.Mode)
	}
	if len(d.Dao) == 0 {
		return errors.New("at least one dao member required")
	}
	for _, a := range d.Accounts {
		if a.Balance == nil || (*big.Int)(a.Balance).Sign() < 1 {
			return fmt.Errorf("%v: balance must be a positive integer", a.Address)
		}
	}
	for name, tr := range d.Params.Tranches {
		role, err := pozk.ParseRole(name)
		if err != nil || role == pozk.RoleProver {
			return fmt.Errorf("tranche %q: role must be miner or player", name)
		}
		if tr.FloorPct > tr.CeilPct || tr.CeilPct > 100 {
			return fmt.Errorf("tranche %q: invalid percentages", name)
		}
	}
	for _, f := range d.Vesting {
		if f.Amount == nil || (*big.Int)(f.Amount).Sign() < 1 {
			return fmt.Errorf("%v: vesting amount must be a positive integer", f.Funder)
		}
	}
	for _, p := range d.Provers {
		if p.ID.IsZero() || p.Owner.IsZero() {
			return errors.New("prover id and owner required")
		}
	}
	return nil
}
