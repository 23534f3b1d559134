package internal

// QueryType selects what a Query reads from the state machine
type QueryType uint8

const (
	QueryTGet       QueryType = iota // value of Key
	QueryTHas                        // presence of Key
	QueryTKeys                       // keys starting with Key, all keys if Key is empty
	QueryTMultiGet                   // values of Keys
	QueryTGetDBInfo                  // statistics of the local database
)

func (q QueryType) String() string {
	switch q {
	case QueryTGet:
		return "Get"
	case QueryTHas:
		return "Has"
	case QueryTKeys:
		return "Keys"
	case QueryTMultiGet:
		return "MultiGet"
	case QueryTGetDBInfo:
		return "GetDBInfo"
	default:
		return "Unknown"
	}
}

// Query is a read request passed to SyncRead or StaleRead. Queries never leave the
// node host, so they are not serialized.
type Query struct {
	Type QueryType
	Key  string
	Keys []string
}

// QueryResult answers QueryTGet. QueryTHas returns a bool, QueryTKeys a []string
// and QueryTGetDBInfo a db.DatabaseInfo.
type QueryResult struct {
	Ok    bool
	Value []byte
}

// MultiQueryResult answers QueryTMultiGet. Oks[i] and Values[i] belong to Query.Keys[i].
type MultiQueryResult struct {
	Oks    []bool
	Values [][]byte
}
