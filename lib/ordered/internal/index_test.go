package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexOrdering(t *testing.T) {
	x := NewIndex()
	for _, key := range []string{"b", "a", "c"} {
		x.InsertOrdered(key)
	}
	assert.Equal(t, []string{"a", "b", "c"}, x.Keys())
}

func TestIndexByteOrder(t *testing.T) {
	x := NewIndex()
	for _, key := range []string{"b", "B", "\xff", "a", "\x00", "ä", "10", "9"} {
		x.InsertOrdered(key)
	}
	assert.Equal(t, []string{"\x00", "10", "9", "B", "a", "b", "ä", "\xff"}, x.Keys())
}

func TestIndexIdempotence(t *testing.T) {
	x := NewIndex()

	assert.True(t, x.InsertOrdered("k"))
	assert.False(t, x.InsertOrdered("k"))
	assert.Equal(t, 1, x.Len())

	assert.True(t, x.RemoveOrdered("k"))
	assert.False(t, x.RemoveOrdered("k"))
	assert.False(t, x.RemoveOrdered("never"))
	assert.Equal(t, 0, x.Len())
	assert.False(t, x.Has("k"))
}

func TestIndexInit(t *testing.T) {
	x := NewIndex()
	x.InsertOrdered("old")

	x.Init([]string{"c", "a", "b", "a"})
	assert.Equal(t, []string{"a", "b", "c"}, x.Keys())
	assert.False(t, x.Has("old"))
}

func TestIndexKeysIsACopy(t *testing.T) {
	x := NewIndex()
	x.InsertOrdered("a")

	keys := x.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"a"}, x.Keys())
}

func TestSnapshotIsIsolated(t *testing.T) {
	x := NewIndex()
	x.Init([]string{"a", "b", "c"})

	snap := x.Snapshot()
	x.InsertOrdered("d")
	x.RemoveOrdered("a")

	assert.Equal(t, []string{"a", "b", "c"}, snap.Keys())
	assert.Equal(t, []string{"b", "c", "d"}, x.Keys())
	assert.Equal(t, 3, snap.Len())
}

func collect(c *Cursor) []string {
	out := []string{}
	for {
		key, ok := c.Next()
		if !ok {
			return out
		}
		out = append(out, key)
	}
}

func incl(key string) Bound { return Bound{Key: key, Set: true, Inclusive: true} }
func excl(key string) Bound { return Bound{Key: key, Set: true} }

func TestCursor(t *testing.T) {
	x := NewIndex()
	x.Init([]string{"1", "2", "3", "4", "5"})
	snap := x.Snapshot()

	tests := []struct {
		name     string
		rng      Range
		reverse  bool
		expected []string
	}{
		{"all", Range{}, false, []string{"1", "2", "3", "4", "5"}},
		{"all reverse", Range{}, true, []string{"5", "4", "3", "2", "1"}},
		{"gte lt", Range{Lower: incl("2"), Upper: excl("4")}, false, []string{"2", "3"}},
		{"gte lt reverse", Range{Lower: incl("2"), Upper: excl("4")}, true, []string{"3", "2"}},
		{"gt lte", Range{Lower: excl("2"), Upper: incl("4")}, false, []string{"3", "4"}},
		{"gt lte reverse", Range{Lower: excl("2"), Upper: incl("4")}, true, []string{"4", "3"}},
		{"bounds between keys", Range{Lower: incl("1a"), Upper: incl("3a")}, false, []string{"2", "3"}},
		{"bounds between keys reverse", Range{Lower: incl("1a"), Upper: incl("3a")}, true, []string{"3", "2"}},
		{"upper beyond last reverse", Range{Upper: incl("9")}, true, []string{"5", "4", "3", "2", "1"}},
		{"lower beyond last", Range{Lower: incl("9")}, false, []string{}},
		{"upper before first reverse", Range{Upper: excl("1")}, true, []string{}},
		{"empty range", Range{Lower: excl("3"), Upper: excl("3")}, false, []string{}},
		{"single key", Range{Lower: incl("3"), Upper: incl("3")}, true, []string{"3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := snap.Cursor(tt.rng, tt.reverse)
			assert.Equal(t, tt.expected, collect(c))

			// exhausted cursors stay exhausted
			_, ok := c.Next()
			assert.False(t, ok)
		})
	}
}

func TestCursorOnEmptySnapshot(t *testing.T) {
	snap := NewIndex().Snapshot()
	assert.Equal(t, []string{}, collect(snap.Cursor(Range{}, false)))
	assert.Equal(t, []string{}, collect(snap.Cursor(Range{Upper: incl("x")}, true)))
}

func TestRangeContains(t *testing.T) {
	rng := Range{Lower: excl("b"), Upper: incl("d")}
	assert.False(t, rng.Contains("b"))
	assert.True(t, rng.Contains("c"))
	assert.True(t, rng.Contains("d"))
	assert.False(t, rng.Contains("e"))
	assert.True(t, Range{}.Contains(""))
}
