package parser

import (
	"strconv"
	"strings"
)

// Lookup walks a parsed JSON tree along a dotted path such as "request.id"
// or "items.0.name". Object segments are exact key lookups; when the current
// node is an array the segment must be a non-negative integer index.
// There are no partial results: any miss reports false.
func Lookup(v any, path string) (any, bool) {
	cur := v
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.ParseUint(part, 10, 64)
			if err != nil || idx >= uint64(len(node)) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}
