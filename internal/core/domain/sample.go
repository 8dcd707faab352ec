package domain

import (
	"slices"
	"strings"
	"time"
)

// Sample is a content-addressed file record.
// SHA256 is the primary key; the other digests are secondary lookup keys.
type Sample struct {
	// Name is the original file name supplied on store.
	Name string `json:"name"`

	// Type is the detected MIME type.
	Type string `json:"type"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	MD5    string `json:"md5"`
	SHA1   string `json:"sha1"`
	SHA256 string `json:"sha256"`
	SHA512 string `json:"sha512"`
	CRC32  string `json:"crc32"`

	// SSDeep is the fuzzy hash. Empty when the file is too small to produce one.
	SSDeep string `json:"ssdeep"`

	// Tags is the sorted, de-duplicated tag set.
	Tags []string `json:"tags"`

	// CreatedAt is when the sample was first stored.
	CreatedAt time.Time `json:"created_at"`
}

// ParseTags splits a comma-separated tag list into a normalised set.
// Tags are trimmed and lowercased; empty entries and duplicates are dropped.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return UnionTags(nil, tags)
}

// UnionTags returns the sorted union of two tag sets.
// Existing tags are never lost and the result holds no duplicates.
func UnionTags(existing, added []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(added))
	result := make([]string, 0, len(existing)+len(added))
	for _, set := range [][]string{existing, added} {
		for _, tag := range set {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			result = append(result, tag)
		}
	}
	slices.Sort(result)
	return result
}
