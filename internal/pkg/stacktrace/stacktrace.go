// Package stacktrace trims goroutine dumps down to the application's own frames.
package stacktrace

import "strings"

const marker = "/internal/"

// InternalPaths returns the "internal/<pkg>/<file>.go:<line>" locations found
// in a debug.Stack dump, in call order. Frames outside internal/ are dropped.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.SplitSeq(string(stack), "\n") {
		line = strings.TrimSpace(line)

		idx := strings.Index(line, ".go:")
		if idx == -1 {
			continue
		}

		// file:line is followed by " +0x.." offset
		loc, _, _ := strings.Cut(line, " ")
		start := strings.Index(loc, marker)
		if start == -1 {
			continue
		}

		paths = append(paths, loc[start+1:])
	}
	return paths
}
