package site

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
)

// BuildError is the terminal error payload of a failed build. Exactly one of
// the fields is populated: the collected per-document front-matter errors, or
// the single fatal error (ambiguity, collision, filesystem) that aborted the
// pipeline.
type BuildError struct {
	State       State // the state the pipeline failed in
	FrontMatter []*frontmatter.ParseError
	Err         error
}

func (e *BuildError) Error() string {
	if len(e.FrontMatter) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "build failed in state %s: %d front-matter error(s):", e.State, len(e.FrontMatter))
		for _, fe := range e.FrontMatter {
			b.WriteString("\n  ")
			b.WriteString(fe.Error())
		}
		return b.String()
	}
	return fmt.Sprintf("build failed in state %s: %v", e.State, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
