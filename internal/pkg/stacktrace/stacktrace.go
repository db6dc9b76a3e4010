// Package stacktrace trims goroutine dumps down to frames of this module.
package stacktrace

import "strings"

// InternalPaths returns the "internal/<pkg>/<file>.go:<line>" frames of stack.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		file, _, _ := strings.Cut(strings.TrimSpace(line), " ")
		i := strings.Index(file, "/internal/")
		if i < 0 || !strings.Contains(file[i:], ".go:") {
			continue
		}
		paths = append(paths, file[i+1:])
	}
	return paths
}
