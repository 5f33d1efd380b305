// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package system

import (
	"math/big"

	"github.com/pozk/ledger/builtin"
	"github.com/pozk/ledger/builtin/prover"
	"github.com/pozk/ledger/builtin/reward"
	"github.com/pozk/ledger/pozk"
)

// EpochInfo describes the open epoch.
type EpochInfo struct {
	Height    uint64    `json:"height"`
	StartedAt uint64    `json:"startedAt"`
	Period    uint64    `json:"period"`
	Mode      pozk.Mode `json:"mode"`
}

func epochInfo(c *builtin.Contracts) (*EpochInfo, error) {
	var (
		info EpochInfo
		err  error
	)
	if info.Height, err = c.Epoch.Height(); err != nil {
		return nil, err
	}
	if info.StartedAt, err = c.Epoch.StartedAt(); err != nil {
		return nil, err
	}
	if info.Period, err = c.Epoch.Period(); err != nil {
		return nil, err
	}
	if info.Mode, err = c.Epoch.Mode(); err != nil {
		return nil, err
	}
	return &info, nil
}

// View runs fn against the committed state as the next operation would see
// it. Changes fn makes are discarded.
func (s *System) View(fn func(c *builtin.Contracts) error) error {
	return s.view(fn)
}

// Epoch returns the open epoch, after a pending boundary is applied.
func (s *System) Epoch() (info *EpochInfo, err error) {
	err = s.view(func(c *builtin.Contracts) error {
		info, err = epochInfo(c)
		return err
	})
	return
}

// Advance commits a pending epoch boundary, if any, and returns the open epoch.
func (s *System) Advance() (info *EpochInfo, err error) {
	err = s.run("advance", func(c *builtin.Contracts) error {
		info, err = epochInfo(c)
		return err
	})
	return
}

// SetPeriod changes the epoch length. DAO only.
func (s *System) SetPeriod(caller pozk.Address, seconds uint64) error {
	return s.run("setPeriod", func(c *builtin.Contracts) error {
		return c.Epoch.SetPeriod(caller, seconds)
	})
}

// SetMode switches between permissioned and permissionless accept. DAO only.
func (s *System) SetMode(caller pozk.Address, mode pozk.Mode) error {
	return s.run("setMode", func(c *builtin.Contracts) error {
		return c.Epoch.SetMode(caller, mode)
	})
}

// AddDao adds or removes a DAO member. DAO only.
func (s *System) AddDao(caller, account pozk.Address, ok bool) error {
	return s.run("addDao", func(c *builtin.Contracts) error {
		return c.Epoch.AddDao(caller, account, ok)
	})
}

// Transfer moves tokens owned by caller.
func (s *System) Transfer(caller, token, to pozk.Address, amount *big.Int) error {
	return s.run("transfer", func(c *builtin.Contracts) error {
		return c.Token.Transfer(token, caller, to, amount)
	})
}

// AddController lets controller act as caller's miner.
func (s *System) AddController(caller, controller pozk.Address) error {
	return s.run("addController", func(c *builtin.Contracts) error {
		return c.Controller.Add(caller, controller)
	})
}

// RemoveController revokes a controller of caller.
func (s *System) RemoveController(caller, controller pozk.Address) error {
	return s.run("removeController", func(c *builtin.Contracts) error {
		return c.Controller.Remove(caller, controller)
	})
}

// RegisterProver registers a prover owned by caller.
func (s *System) RegisterProver(caller, id pozk.Address, params prover.Params) error {
	return s.run("registerProver", func(c *builtin.Contracts) error {
		return c.Prover.Register(caller, id, params)
	})
}

// ApproveProver approves or rejects a prover. DAO only.
func (s *System) ApproveProver(caller, id pozk.Address, minable, ok bool) error {
	return s.run("approveProver", func(c *builtin.Contracts) error {
		return c.Prover.Approve(caller, id, minable, ok)
	})
}

// StopProver stops a prover. Owner or DAO.
func (s *System) StopProver(caller, id pozk.Address) error {
	return s.run("stopProver", func(c *builtin.Contracts) error {
		return c.Prover.Stop(caller, id)
	})
}

// UpgradeProver replaces the work parameters and requires approval again.
func (s *System) UpgradeProver(caller, id pozk.Address, params prover.Params) error {
	return s.run("upgradeProver", func(c *builtin.Contracts) error {
		return c.Prover.Upgrade(caller, id, params)
	})
}

// SetMinStakeAmount sets the miner stake floor of one prover. DAO only.
func (s *System) SetMinStakeAmount(caller, id pozk.Address, amount *big.Int) error {
	return s.run("setMinStakeAmount", func(c *builtin.Contracts) error {
		return c.Prover.SetMinStakeAmount(caller, id, amount)
	})
}

// SetDefaultMinStake sets the floor copied into newly registered provers. DAO only.
func (s *System) SetDefaultMinStake(caller pozk.Address, amount *big.Int) error {
	return s.run("setDefaultMinStake", func(c *builtin.Contracts) error {
		return c.Prover.SetDefaultMinStake(caller, amount)
	})
}

// Stake moves amount of caller's base tokens into the position of account.
func (s *System) Stake(caller pozk.Address, role pozk.Role, subject, account pozk.Address, amount *big.Int) error {
	return s.run("stake", func(c *builtin.Contracts) error {
		return c.Stake.Stake(caller, role, subject, account, amount)
	})
}

// Unstake starts unlocking amount from caller's position.
func (s *System) Unstake(caller pozk.Address, role pozk.Role, subject pozk.Address, amount *big.Int) error {
	return s.run("unstake", func(c *builtin.Contracts) error {
		return c.Stake.Unstake(caller, role, subject, amount)
	})
}

// Claim pays out everything claimable by caller.
func (s *System) Claim(caller pozk.Address) (paid *big.Int, err error) {
	err = s.run("claim", func(c *builtin.Contracts) error {
		paid, err = c.Stake.Claim(caller)
		return err
	})
	return
}

// ApproveForReward funds the reward pool from caller's base tokens.
func (s *System) ApproveForReward(caller pozk.Address, amount *big.Int) error {
	return s.run("approveForReward", func(c *builtin.Contracts) error {
		return c.Vesting.ApproveForReward(caller, amount)
	})
}

// SetIssuance sets the base reward reserved per closed epoch. DAO only.
func (s *System) SetIssuance(caller pozk.Address, perEpoch *big.Int) error {
	return s.run("setIssuance", func(c *builtin.Contracts) error {
		return c.Vesting.SetIssuance(caller, perEpoch)
	})
}

// CreateTask opens a task for prover and returns its id.
func (s *System) CreateTask(caller, proverID, player pozk.Address, taskType uint8, inputs, publics []byte) (id uint64, err error) {
	err = s.run("createTask", func(c *builtin.Contracts) error {
		id, err = c.Task.Create(caller, proverID, player, taskType, inputs, publics)
		return err
	})
	return
}

// AcceptTask assigns a task to miner.
func (s *System) AcceptTask(caller pozk.Address, id uint64, miner pozk.Address, url string) error {
	return s.run("acceptTask", func(c *builtin.Contracts) error {
		return c.Task.Accept(caller, id, miner, url)
	})
}

// SubmitTask records the proof of an accepted task.
func (s *System) SubmitTask(caller pozk.Address, id uint64, proof []byte) error {
	return s.run("submitTask", func(c *builtin.Contracts) error {
		return c.Task.Submit(caller, id, proof)
	})
}

// DisputeTask opens a dispute on a submitted task.
func (s *System) DisputeTask(caller pozk.Address, id uint64) error {
	return s.run("disputeTask", func(c *builtin.Contracts) error {
		return c.Task.Dispute(caller, id)
	})
}

// AdjudicateTask resolves a dispute. DAO only.
func (s *System) AdjudicateTask(caller pozk.Address, id uint64, playerAward, minerAward *big.Int, slash bool) error {
	return s.run("adjudicateTask", func(c *builtin.Contracts) error {
		return c.Task.Adjudicate(caller, id, playerAward, minerAward, slash)
	})
}

// SetDisputeDeposit sets the deposit a dispute escrows. DAO only.
func (s *System) SetDisputeDeposit(caller pozk.Address, amount *big.Int) error {
	return s.run("setDisputeDeposit", func(c *builtin.Contracts) error {
		return c.Task.SetDisputeDeposit(caller, amount)
	})
}

// SetDisputeWindow sets how many epochs a submission stays disputable. DAO only.
func (s *System) SetDisputeWindow(caller pozk.Address, epochs uint64) error {
	return s.run("setDisputeWindow", func(c *builtin.Contracts) error {
		return c.Task.SetDisputeWindow(caller, epochs)
	})
}

// SetTranche replaces the reward curve of role. DAO only.
func (s *System) SetTranche(caller pozk.Address, role pozk.Role, tr reward.Tranche) error {
	return s.run("setTranche", func(c *builtin.Contracts) error {
		return c.Reward.SetTranche(caller, role, tr)
	})
}

// Collect settles one reward tuple of a closed epoch.
func (s *System) Collect(epoch uint64, proverID, account pozk.Address, role pozk.Role) (payout *reward.Payout, err error) {
	err = s.run("collect", func(c *builtin.Contracts) error {
		payout, err = c.Reward.Collect(epoch, proverID, account, role)
		return err
	})
	return
}

// BatchCollect settles every reward account earned in a closed epoch.
func (s *System) BatchCollect(epoch uint64, account pozk.Address) (total *big.Int, err error) {
	err = s.run("batchCollect", func(c *builtin.Contracts) error {
		total, err = c.Reward.BatchCollect(epoch, account)
		return err
	})
	return
}

// DepositExtra adds an extra reward pool for prover in an open epoch.
func (s *System) DepositExtra(caller, proverID pozk.Address, epoch uint64, token pozk.Address, amount *big.Int) error {
	return s.run("depositExtra", func(c *builtin.Contracts) error {
		return c.Reward.DepositExtra(caller, proverID, epoch, token, amount)
	})
}

// ClaimExtra returns an undistributed extra deposit to its depositor.
func (s *System) ClaimExtra(caller, proverID pozk.Address, epoch uint64) (refund *big.Int, err error) {
	err = s.run("claimExtra", func(c *builtin.Contracts) error {
		refund, err = c.Reward.ClaimExtra(caller, proverID, epoch)
		return err
	})
	return
}
