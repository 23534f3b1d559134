package db

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ValentinKolb/oKV/lib/ordered"
	"github.com/ValentinKolb/oKV/lib/ordered/codec"
)

// value formats accepted on the command line
const (
	formatText = "text"
	formatHex  = "hex"
	formatJSON = "json"
)

// parseValue converts a command line argument into a value of the given format
func parseValue(raw, format string) (codec.Value, error) {
	switch format {
	case formatText, "":
		return codec.Text(raw), nil
	case formatHex:
		b, err := hex.DecodeString(raw)
		if err != nil {
			return codec.Value{}, fmt.Errorf("invalid hex value: %w", err)
		}
		return codec.Bytes(b), nil
	case formatJSON:
		return codec.RawJSON(json.RawMessage(raw))
	default:
		return codec.Value{}, fmt.Errorf("invalid format %q (expected one of: %s, %s, %s)", format, formatText, formatHex, formatJSON)
	}
}

// formatValue renders a value for output, binary data is printed as hex
func formatValue(v codec.Value) string {
	switch v.Kind() {
	case codec.KindBytes:
		return "0x" + hex.EncodeToString(v.Bytes())
	default:
		return v.String()
	}
}

// parseOp parses a batch operation written as put:KEY=VALUE or del:KEY
func parseOp(raw, format string) (ordered.Operation, error) {
	kind, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return ordered.Operation{}, fmt.Errorf("invalid operation %q (expected put:KEY=VALUE or del:KEY)", raw)
	}

	switch kind {
	case "put":
		key, rawValue, ok := strings.Cut(rest, "=")
		if !ok {
			return ordered.Operation{}, fmt.Errorf("invalid put %q: missing '='", raw)
		}
		value, err := parseValue(rawValue, format)
		if err != nil {
			return ordered.Operation{}, err
		}
		return ordered.Put([]byte(key), value), nil
	case "del":
		return ordered.Del([]byte(rest)), nil
	default:
		return ordered.Operation{}, fmt.Errorf("invalid operation type %q (expected put or del)", kind)
	}
}
