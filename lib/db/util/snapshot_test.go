package util

import (
	"bytes"
	"errors"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	records := []struct {
		key   string
		value []byte
	}{
		{"a", []byte("1")},
		{"", []byte("empty key")},
		{"empty value", []byte{}},
		{"binary", []byte{0x00, 0xff, 0x10, 0x00}},
		{"ns!key", bytes.Repeat([]byte("x"), 4096)},
	}

	var buf bytes.Buffer
	w, err := NewSnapshotWriter(&buf)
	if err != nil {
		t.Fatalf("NewSnapshotWriter failed: %v", err)
	}
	for _, r := range records {
		if err := w.Write(r.key, r.value); err != nil {
			t.Fatalf("Write(%q) failed: %v", r.key, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	i := 0
	err = ReadSnapshot(bytes.NewReader(buf.Bytes()), func(key string, value []byte) error {
		if i >= len(records) {
			t.Fatalf("more records than written")
		}
		if key != records[i].key {
			t.Errorf("record %d: expected key %q, got %q", i, records[i].key, key)
		}
		if !bytes.Equal(value, records[i].value) {
			t.Errorf("record %d: value mismatch", i)
		}
		i++
		return nil
	})
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if i != len(records) {
		t.Errorf("expected %d records, read %d", len(records), i)
	}
}

func TestSnapshotEmpty(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewSnapshotWriter(&buf)
	if err != nil {
		t.Fatalf("NewSnapshotWriter failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err = ReadSnapshot(&buf, func(string, []byte) error {
		t.Errorf("no records expected")
		return nil
	})
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
}

func TestSnapshotCorrupt(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewSnapshotWriter(&buf)
	_ = w.Write("key", []byte("value"))
	_ = w.Close()
	full := buf.Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("NOTASNAP"), full[8:]...)},
		{"truncated record", full[:len(full)-12]},
		{"missing trailer", full[:len(full)-8]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ReadSnapshot(bytes.NewReader(tt.data), func(string, []byte) error { return nil })
			if !errors.Is(err, ErrSnapshotCorrupt) {
				t.Errorf("expected ErrSnapshotCorrupt, got %v", err)
			}
		})
	}
}

func TestSnapshotCallbackError(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewSnapshotWriter(&buf)
	_ = w.Write("key", []byte("value"))
	_ = w.Close()

	stop := errors.New("stop")
	err := ReadSnapshot(&buf, func(string, []byte) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("expected callback error, got %v", err)
	}
}

func TestShardIndex(t *testing.T) {
	seed := GenerateSeed()
	counts := make([]float64, 8)
	for i := 0; i < 8000; i++ {
		idx := ShardIndex(HashString(string(rune(i))+"key", seed), len(counts))
		if idx < 0 || idx >= len(counts) {
			t.Fatalf("shard index %d out of range", idx)
		}
		counts[idx]++
	}

	if spread := NewSpread(counts); spread.Min == 0 {
		t.Errorf("expected every shard to receive keys, got %+v", spread)
	}
}

func TestHashStringSeed(t *testing.T) {
	if HashString("key", 1) == HashString("key", 2) {
		t.Errorf("different seeds should produce different hashes")
	}
	if HashString("key", 7) != HashString("key", 7) {
		t.Errorf("hash must be deterministic")
	}
}
