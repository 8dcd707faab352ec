package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SearchKey selects which sample attribute a search matches against.
type SearchKey string

// Available search keys.
const (
	SearchMD5    SearchKey = "md5"
	SearchSHA256 SearchKey = "sha256"
	SearchSSDeep SearchKey = "ssdeep"
	SearchTag    SearchKey = "tag"
	SearchName   SearchKey = "name"

	// SearchAll returns every sample. Its value is ignored.
	SearchAll SearchKey = "all"

	// SearchLatest returns the most recently stored samples.
	// A numeric value sets the count (default 5).
	SearchLatest SearchKey = "latest"
)

// SearchKeyPriority is the fixed precedence used when several search fields
// are supplied at once: the first key with a non-empty value wins.
var SearchKeyPriority = []SearchKey{
	SearchMD5, SearchSHA256, SearchSSDeep, SearchTag, SearchName, SearchAll, SearchLatest,
}

// DefaultLatestCount is the number of samples returned by a latest search
// without an explicit count.
const DefaultLatestCount = 5

// SearchQuery is a single search over the sample database.
type SearchQuery struct {
	Key   SearchKey
	Value string
}

// IsValid returns true if the key is one of the supported search keys.
func (k SearchKey) IsValid() bool {
	for _, known := range SearchKeyPriority {
		if k == known {
			return true
		}
	}
	return false
}

// ParseSearchKey converts user input into a SearchKey.
func ParseSearchKey(s string) (SearchKey, error) {
	key := SearchKey(strings.ToLower(strings.TrimSpace(s)))
	if !key.IsValid() {
		return "", fmt.Errorf("%w: unknown search key %q", ErrInvalidInput, s)
	}
	return key, nil
}

// SelectSearchQuery picks the search query from a set of form-style fields.
// lookup returns the supplied value for a field name, or "" when absent.
// Keys are tried in SearchKeyPriority order.
func SelectSearchQuery(lookup func(field string) string) (SearchQuery, error) {
	for _, key := range SearchKeyPriority {
		if value := strings.TrimSpace(lookup(string(key))); value != "" {
			return SearchQuery{Key: key, Value: value}, nil
		}
	}
	return SearchQuery{}, fmt.Errorf("%w: invalid search term", ErrInvalidInput)
}

// LatestCount returns the sample count requested by a latest search.
func (q SearchQuery) LatestCount() int {
	n, err := strconv.Atoi(strings.TrimSpace(q.Value))
	if err != nil || n <= 0 {
		return DefaultLatestCount
	}
	return n
}

// MatchName reports whether a sample name matches a name search.
// Matching is case-insensitive and by substring; '*' matches any run of
// characters.
func MatchName(pattern, name string) bool {
	name = strings.ToLower(name)
	for _, fragment := range strings.Split(strings.ToLower(pattern), "*") {
		i := strings.Index(name, fragment)
		if i < 0 {
			return false
		}
		name = name[i+len(fragment):]
	}
	return true
}
