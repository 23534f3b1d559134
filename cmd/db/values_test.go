package db

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/oKV/lib/ordered"
	"github.com/ValentinKolb/oKV/lib/ordered/codec"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw, format string
		want        codec.Value
		wantErr     bool
	}{
		{raw: "hello", format: formatText, want: codec.Text("hello")},
		{raw: "hello", format: "", want: codec.Text("hello")},
		{raw: "00ff", format: formatHex, want: codec.Bytes([]byte{0x00, 0xff})},
		{raw: "zz", format: formatHex, wantErr: true},
		{raw: `{"a": 1}`, format: formatJSON, want: mustJSON(t, `{"a":1}`)},
		{raw: `{"a":`, format: formatJSON, wantErr: true},
		{raw: "x", format: "yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format+"/"+tt.raw, func(t *testing.T) {
			got, err := parseValue(tt.raw, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func mustJSON(t *testing.T, raw string) codec.Value {
	v, err := codec.RawJSON([]byte(raw))
	require.NoError(t, err)
	return v
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "0x00ff", formatValue(codec.Bytes([]byte{0x00, 0xff})))
	assert.Equal(t, "text", formatValue(codec.Text("text")))
	assert.Equal(t, `{"a":1}`, formatValue(mustJSON(t, `{"a":1}`)))
}

func TestParseOp(t *testing.T) {
	op, err := parseOp("put:k=v=w", formatText)
	require.NoError(t, err)
	assert.Equal(t, ordered.OpPut, op.Type)
	assert.Equal(t, []byte("k"), op.Key)
	assert.True(t, codec.Text("v=w").Equal(op.Value))

	op, err = parseOp("del:k", formatText)
	require.NoError(t, err)
	assert.Equal(t, ordered.OpDel, op.Type)
	assert.Equal(t, []byte("k"), op.Key)

	for _, raw := range []string{"put", "put:k", "get:k", "put:k=zz"} {
		_, err = parseOp(raw, formatHex)
		assert.Error(t, err, raw)
	}
}

func TestIteratorOptionsFromFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().AddFlagSet(rangeCmd.Flags())
	require.NoError(t, cmd.ParseFlags([]string{"--gte", "", "--lt", "m", "--reverse", "--limit", "3"}))

	opts, err := iteratorOptions(cmd)
	require.NoError(t, err)
	assert.Equal(t, []byte{}, opts.Gte)
	assert.Equal(t, []byte("m"), opts.Lt)
	assert.Nil(t, opts.Gt)
	assert.Nil(t, opts.Start)
	assert.True(t, opts.Reverse)
	assert.False(t, opts.KeysOnly)
	assert.Equal(t, 3, opts.Limit)
}
