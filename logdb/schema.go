// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

const eventTableSchema = `
create table if not exists event (
	seq integer primary key,
	epoch integer,
	name text,
	contract blob(20),
	prover blob(20),
	account blob(20),
	role integer,
	taskID integer,
	token blob(20),
	amount text,
	data blob
);

CREATE INDEX if not exists epochIndex on event(epoch);
CREATE INDEX if not exists nameIndex on event(name);
CREATE INDEX if not exists proverIndex on event(prover);
CREATE INDEX if not exists accountIndex on event(account);
CREATE INDEX if not exists taskIndex on event(taskID);
`
