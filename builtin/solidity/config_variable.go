// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/pozk/ledger/log"
)

var logger = log.WithContext("pkg", "solidity")

// ConfigVariable is a governance-settable integer. Until the first Set the
// default value is returned.
type ConfigVariable struct {
	name         string
	defaultValue uint64
	v            *Value[uint64]
}

func NewConfigVariable(context *Context, name string, defaultValue uint64) *ConfigVariable {
	return &ConfigVariable{
		name:         name,
		defaultValue: defaultValue,
		v:            NewValue[uint64](context, Slot("config:"+name)),
	}
}

func (c *ConfigVariable) Name() string {
	return c.name
}

func (c *ConfigVariable) Get() (uint64, error) {
	value, err := c.v.Get()
	if err != nil {
		return 0, err
	}
	if value == 0 {
		return c.defaultValue, nil
	}
	return value, nil
}

func (c *ConfigVariable) Set(value uint64) error {
	logger.Debug("config value set", "name", c.name, "value", value)
	return c.v.Set(value)
}
