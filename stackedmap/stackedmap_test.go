// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pozk/ledger/stackedmap"
)

func M(a ...any) []any {
	return a
}

func TestStackedMap(t *testing.T) {
	src := map[string]string{"foo": "bar"}
	sm := stackedmap.New(func(key string) (string, bool, error) {
		v, ok := src[key]
		return v, ok, nil
	})

	tests := []struct {
		f         func()
		depth     int
		putKey    string
		putValue  string
		getKey    string
		getReturn []any
	}{
		{func() {}, 1, "", "", "foo", M("bar", true, nil)},
		{func() { sm.Push() }, 2, "foo", "baz", "foo", M("baz", true, nil)},
		{func() {}, 2, "foo", "baz1", "foo", M("baz1", true, nil)},
		{func() { sm.Push() }, 3, "foo", "qux", "foo", M("qux", true, nil)},
		{func() { sm.Pop() }, 2, "", "", "foo", M("baz1", true, nil)},
		{func() { sm.Pop() }, 1, "", "", "foo", M("bar", true, nil)},
		{func() {}, 1, "", "", "nope", M("", false, nil)},

		{func() { sm.Push(); sm.Push() }, 3, "", "", "", nil},
		{func() { sm.PopTo(0) }, 0, "", "", "", nil},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(t, test.depth, sm.Depth())
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			assert.Equal(t, test.getReturn, M(sm.Get(test.getKey)))
		}
	}
}

func TestJournal(t *testing.T) {
	sm := stackedmap.New(func(string) (int, bool, error) { return 0, false, nil })

	sm.Put("a", 1)
	rev := sm.Push()
	sm.Put("b", 2)
	sm.Put("a", 3)
	assert.Equal(t, []stackedmap.Entry[string, int]{{"a", 1}, {"b", 2}, {"a", 3}}, sm.Journal())

	sm.PopTo(rev)
	assert.Equal(t, []stackedmap.Entry[string, int]{{"a", 1}}, sm.Journal())
	assert.Equal(t, M(1, true, nil), M(sm.Get("a")))
	assert.Equal(t, M(0, false, nil), M(sm.Get("b")))
}

func TestSourceError(t *testing.T) {
	boom := errors.New("boom")
	sm := stackedmap.New(func(string) (int, bool, error) { return 0, false, boom })

	_, _, err := sm.Get("x")
	assert.Equal(t, boom, err)

	sm.Put("x", 7)
	assert.Equal(t, M(7, true, nil), M(sm.Get("x")))
}
