package internal

// Backtrace follows parent links from current up to the root of the tree and
// returns the visited handles, current first. parent reports false at the root.
func Backtrace[Handle comparable](current Handle, parent func(Handle) (Handle, bool)) []Handle {
	path := []Handle{current}
	for {
		previous, ok := parent(current)
		if !ok {
			break
		}
		path = append(path, previous)
		current = previous
	}
	return path
}

// Reverse reverses s in place and returns it.
func Reverse[T any](s []T) []T {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return s
}
