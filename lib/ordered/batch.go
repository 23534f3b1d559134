package ordered

import "github.com/ValentinKolb/oKV/lib/ordered/codec"

// OpType is the kind of a batch operation
type OpType uint8

const (
	OpPut OpType = iota + 1
	OpDel
)

func (t OpType) String() string {
	switch t {
	case OpPut:
		return "put"
	case OpDel:
		return "del"
	default:
		return "unknown"
	}
}

// Operation is one entry of a Batch. Value is ignored for OpDel.
type Operation struct {
	Type  OpType
	Key   []byte
	Value codec.Value
}

// Put returns a put operation
func Put(key []byte, value codec.Value) Operation {
	return Operation{Type: OpPut, Key: key, Value: value}
}

// Del returns a delete operation
func Del(key []byte) Operation {
	return Operation{Type: OpDel, Key: key}
}

// Entry is a key with its value, used by MultiPut
type Entry struct {
	Key   []byte
	Value codec.Value
}

func validateKey(key []byte) error {
	if len(key) == 0 {
		return invalidArgument("key must not be empty")
	}
	return nil
}

func validateValue(key []byte, value codec.Value) error {
	if !value.IsValid() {
		return invalidArgument("value for key %q must not be null", key)
	}
	return nil
}

func validateOp(i int, op Operation) error {
	switch op.Type {
	case OpPut:
		if err := validateKey(op.Key); err != nil {
			return err
		}
		return validateValue(op.Key, op.Value)
	case OpDel:
		return validateKey(op.Key)
	default:
		return invalidArgument("operation %d has unknown type %d", i, op.Type)
	}
}

// splitBatch turns validated ops into the keys to delete and the entries to write.
// A key deleted anywhere in the batch is not written. Repeated puts keep the last value.
func splitBatch(ops []Operation) (dels []string, putKeys []string, putValues []codec.Value) {
	deleted := make(map[string]struct{})
	for _, op := range ops {
		if op.Type == OpDel {
			if _, seen := deleted[string(op.Key)]; !seen {
				deleted[string(op.Key)] = struct{}{}
				dels = append(dels, string(op.Key))
			}
		}
	}

	last := make(map[string]int)
	for _, op := range ops {
		if op.Type != OpPut {
			continue
		}
		key := string(op.Key)
		if _, del := deleted[key]; del {
			continue
		}
		if i, seen := last[key]; seen {
			putValues[i] = op.Value
			continue
		}
		last[key] = len(putKeys)
		putKeys = append(putKeys, key)
		putValues = append(putValues, op.Value)
	}
	return dels, putKeys, putValues
}
