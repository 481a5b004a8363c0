package port

import (
	"regexp"
)

// Checksum is the hex SHA512 digest of a release archive as vcpkg_from_github expects it.
type Checksum string

// PlaceholderChecksum never matches a real archive. Building with it makes vcpkg
// report the actual digest.
const PlaceholderChecksum Checksum = "0"

var actualHashPattern = regexp.MustCompile(`Actual hash:\s+([0-9a-fA-F]+)`)

var hexPattern = regexp.MustCompile(`^[0-9a-fA-F]+$`)

func (c Checksum) String() string {
	return string(c)
}

// IsPlaceholder reports whether c is empty or the placeholder.
func (c Checksum) IsPlaceholder() bool {
	return c == "" || c == PlaceholderChecksum
}

// ParseChecksum accepts the placeholder or a hex digest.
func ParseChecksum(s string) (Checksum, error) {
	if !hexPattern.MatchString(s) {
		return "", &InvalidChecksumError{Value: s}
	}
	return Checksum(s), nil
}

// ExtractChecksum finds the digest vcpkg prints when an archive fails verification.
// It returns false when the output holds no "Actual hash" line.
func ExtractChecksum(output string) (Checksum, bool) {
	m := actualHashPattern.FindStringSubmatch(output)
	if m == nil {
		return "", false
	}
	return Checksum(m[1]), true
}
