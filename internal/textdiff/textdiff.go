package textdiff

// CommonPrefixLen returns the number of leading bytes a and b share.
// The scan stops at the shorter of the two strings.
func CommonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// IsPrefix reports whether s starts with prefix.
func IsPrefix(prefix, s string) bool {
	return CommonPrefixLen(prefix, s) == len(prefix)
}
