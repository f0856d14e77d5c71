package node

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Dimensions maps a content dimension (e.g. "language") to its ordered fallback values.
type Dimensions map[string][]string

// Hash returns a stable key for the dimension combination. Equal combinations
// hash equally regardless of map iteration order.
func (d Dimensions) Hash() string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([][2]any, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, [2]any{k, d[k]})
	}
	// Marshalling [][2]any of strings cannot fail.
	data, _ := json.Marshal(pairs)
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:16])
}

// Clone returns a deep copy.
func (d Dimensions) Clone() Dimensions {
	if d == nil {
		return nil
	}
	out := make(Dimensions, len(d))
	for k, v := range d {
		out[k] = append([]string(nil), v...)
	}
	return out
}
