package db

import "io"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMaple Implementation = "maple"
	ImplBolt  Implementation = "bolt"
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureSet         Feature = 1 << iota // Support for Set operations
	FeatureGet                             // Support for Get operations
	FeatureDelete                          // Support for Delete operations
	FeatureHas                             // Support for Has operations
	FeatureKeys                            // Support for listing all keys
	FeaturePrefixScan                      // Keys(prefix) is answered natively instead of by filtering
	FeatureAtomicBatch                     // SetMany/DeleteMany are applied all-or-nothing
	FeatureSave                            // Support for Save operations
	FeatureLoad                            // Support for Load operations
)

// allFeatures lists every known feature in declaration order
var allFeatures = []Feature{
	FeatureSet, FeatureGet, FeatureDelete, FeatureHas, FeatureKeys,
	FeaturePrefixScan, FeatureAtomicBatch, FeatureSave, FeatureLoad,
}

func (f Feature) String() string {
	switch f {
	case FeatureSet:
		return "Set"
	case FeatureGet:
		return "Get"
	case FeatureDelete:
		return "Delete"
	case FeatureHas:
		return "Has"
	case FeatureKeys:
		return "Keys"
	case FeaturePrefixScan:
		return "PrefixScan"
	case FeatureAtomicBatch:
		return "AtomicBatch"
	case FeatureSave:
		return "Save"
	case FeatureLoad:
		return "Load"
	default:
		return "Unknown"
	}
}

// FeatureList splits a feature mask into its single features
func FeatureList(mask Feature) []Feature {
	var out []Feature
	for _, f := range allFeatures {
		if mask&f == f {
			out = append(out, f)
		}
	}
	return out
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	KeyCount          int            `json:"key_count"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// KeyValue is a single record handed to SetMany
type KeyValue struct {
	Key   string
	Value []byte
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for flat key-value database implementations.
// Keys carry no order: Keys() may return them in any sequence.
// Implementations can vary in their feature support, which can be queried with SupportsFeature.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Set inserts or updates an entry. If the key already exists, the old value is overwritten.
	// The engine must keep its own copy of value.
	Set(key string, value []byte) (err error)

	// SetMany inserts or updates all given entries. Engines advertising
	// FeatureAtomicBatch apply the whole slice or nothing.
	SetMany(entries []KeyValue) (err error)

	// Delete removes an entry. Deleting a missing key is not an error.
	Delete(key string) (err error)

	// DeleteMany removes all given keys. Missing keys are ignored.
	DeleteMany(keys []string) (err error)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves the value for an exact key.
	// The boolean return value indicates whether a value for the key was found.
	// The returned slice is owned by the caller.
	Get(key string) (value []byte, loaded bool, err error)

	// Has checks whether a key exists in the database.
	Has(key string) (loaded bool, err error)

	// Keys lists every key starting with prefix ("" lists all keys) in no particular order.
	Keys(prefix string) (keys []string, err error)

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	// Save persists the current state of the database to the provided io.Writer.
	Save(w io.Writer) (err error)

	// Load replaces the database state with the data provided by an io.Reader.
	Load(r io.Reader) (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// Close closes the database.
	Close() (err error)
}
