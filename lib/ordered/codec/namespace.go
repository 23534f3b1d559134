package codec

import "strings"

// Delimiter separates the namespace of a logical store from its keys.
// Inside a name it is escaped by doubling.
const Delimiter = "!"

// MakePrefix derives the key prefix of the logical store called name.
// Distinct names never produce equal prefixes: "abc" -> "abc!", "abcd" -> "abcd!",
// "bang!" -> "bang!!!". One prefix starts with another only if the longer name is the
// shorter name followed by the delimiter ("bang!!!" starts "bang!!!!!"), so such names
// share part of their key space.
func MakePrefix(name string) string {
	return strings.ReplaceAll(name, Delimiter, Delimiter+Delimiter) + Delimiter
}

// ApplyPrefix returns the raw key stored in the backing primitive
func ApplyPrefix(prefix, key string) string {
	return prefix + key
}

// ApplyPrefixAll maps ApplyPrefix over keys
func ApplyPrefixAll(prefix string, keys []string) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = prefix + key
	}
	return out
}

// StripPrefix keeps the raw keys that start with prefix and removes the prefix from them.
// The order of rawKeys is kept.
func StripPrefix(rawKeys []string, prefix string) []string {
	out := make([]string, 0, len(rawKeys))
	for _, raw := range rawKeys {
		if key, ok := strings.CutPrefix(raw, prefix); ok {
			out = append(out, key)
		}
	}
	return out
}
