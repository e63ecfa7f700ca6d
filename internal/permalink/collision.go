package permalink

import (
	"fmt"
	"sort"
	"strings"
)

// Collision records one output path claimed by multiple source documents.
type Collision struct {
	OutputPath string
	Sources    []string // source-relative paths, sorted
}

// CollisionError is a global, fatal error reporting every colliding output
// path. It is only observable in aggregate, so it is detected over the
// complete resolved path set before any output is written.
type CollisionError struct {
	Collisions []Collision
}

func (e *CollisionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d output path collision(s):", len(e.Collisions))
	for _, c := range e.Collisions {
		fmt.Fprintf(&b, " %s <- [%s]", c.OutputPath, strings.Join(c.Sources, ", "))
	}
	return b.String()
}

// CheckCollisions inspects the complete mapping of source path to resolved
// output path and returns a CollisionError if any output path is claimed
// twice. A nil return means the path set is collision free.
func CheckCollisions(resolved map[string]string) error {
	bySource := make(map[string][]string, len(resolved))
	for source, out := range resolved {
		bySource[out] = append(bySource[out], source)
	}

	var collisions []Collision
	for out, sources := range bySource {
		if len(sources) < 2 {
			continue
		}
		sort.Strings(sources)
		collisions = append(collisions, Collision{OutputPath: out, Sources: sources})
	}
	if len(collisions) == 0 {
		return nil
	}
	sort.Slice(collisions, func(i, j int) bool {
		return collisions[i].OutputPath < collisions[j].OutputPath
	})
	return &CollisionError{Collisions: collisions}
}
