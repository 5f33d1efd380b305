// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reward

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/pozk/ledger/pozk"
)

// WeightedPool splits the issuance reserved for an epoch across the provers
// with submitted work, in proportion to their work weight. Provers whose
// owner had no prover stake at the epoch take no share.
type WeightedPool struct {
	Fund    Fund
	Work    Work
	Provers Provers
	Stakes  Stakes
}

func (w *WeightedPool) eligibleWeight(epoch uint64, id pozk.Address) (uint64, error) {
	rec, err := w.Provers.Get(id)
	if err != nil || rec == nil {
		return 0, err
	}
	staked, err := w.Stakes.StakeAt(pozk.RoleProver, id, rec.Owner, epoch)
	if err != nil {
		return 0, err
	}
	if staked.Sign() <= 0 {
		return 0, nil
	}
	return w.Work.Weight(epoch, id)
}

func (w *WeightedPool) Pool(epoch uint64, id pozk.Address) (*big.Int, error) {
	weight, err := w.eligibleWeight(epoch, id)
	if err != nil || weight == 0 {
		return new(big.Int), err
	}
	provers, err := w.Work.EpochProvers(epoch)
	if err != nil {
		return nil, err
	}
	var total uint64
	for _, p := range provers {
		pw, err := w.eligibleWeight(epoch, p)
		if err != nil {
			return nil, err
		}
		total += pw
	}
	reserved, err := w.Fund.Reserved(epoch)
	if err != nil {
		return nil, err
	}
	return mulDiv(reserved, new(big.Int).SetUint64(weight), new(big.Int).SetUint64(total))
}

// mulDiv returns x*y/d with a 512-bit intermediate product.
func mulDiv(x, y, d *big.Int) (*big.Int, error) {
	if d.Sign() == 0 {
		return new(big.Int), nil
	}
	ux, o1 := uint256.FromBig(x)
	uy, o2 := uint256.FromBig(y)
	ud, o3 := uint256.FromBig(d)
	if o1 || o2 || o3 {
		return nil, errors.New("reward operand exceeds 256 bits")
	}
	z, overflow := new(uint256.Int).MulDivOverflow(ux, uy, ud)
	if overflow {
		return nil, errors.New("reward overflow")
	}
	return z.ToBig(), nil
}
