package repos

// matchGlob reports whether s matches the shell-style pattern pattern,
// supporting '*' (any run of characters), '?' (any single character),
// and '[...]' character classes. This is hand-rolled rather than
// pulling in a glob library: the grammar is small and fixed (platform
// strings like "linux-ubuntu-22.04"), so a backtracking matcher in the
// style of a small hand-written scanner is simpler than wiring up a
// general-purpose globbing package for three metacharacters.
func matchGlob(pattern, s string) bool {
	return matchGlobAt(pattern, s)
}

func matchGlobAt(pattern, s string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			// Collapse consecutive '*' and try every suffix of s.
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if matchGlobAt(pattern, s[i:]) {
					return true
				}
			}
			return false

		case '?':
			if len(s) == 0 {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]

		case '[':
			end := findClassEnd(pattern)
			if end < 0 || len(s) == 0 {
				return false
			}
			if !matchClass(pattern[1:end], s[0]) {
				return false
			}
			pattern = pattern[end+1:]
			s = s[1:]

		default:
			if len(s) == 0 || s[0] != pattern[0] {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		}
	}
	return len(s) == 0
}

func findClassEnd(pattern string) int {
	for i := 1; i < len(pattern); i++ {
		if pattern[i] == ']' {
			return i
		}
	}
	return -1
}

func matchClass(class string, c byte) bool {
	negate := false
	if len(class) > 0 && (class[0] == '!' || class[0] == '^') {
		negate = true
		class = class[1:]
	}

	matched := false
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			if class[i] <= c && c <= class[i+2] {
				matched = true
			}
			i += 2
			continue
		}
		if class[i] == c {
			matched = true
		}
	}

	return matched != negate
}
