package domain

import "fmt"

// HashKind identifies which digest a lookup hash refers to.
type HashKind string

// Supported lookup hash kinds.
const (
	HashMD5    HashKind = "md5"
	HashSHA256 HashKind = "sha256"
)

// ClassifyHash decides the digest kind of a lookup hash from its length alone.
// 32 characters is md5, 64 is sha256, anything else is invalid input.
// Casing and hex validity are not inspected.
func ClassifyHash(hash string) (HashKind, error) {
	switch len(hash) {
	case 32:
		return HashMD5, nil
	case 64:
		return HashSHA256, nil
	default:
		return "", fmt.Errorf("%w: invalid hash format (use md5 or sha256)", ErrInvalidInput)
	}
}
