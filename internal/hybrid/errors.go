// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hybrid

import (
	"fmt"
	"strings"

	"github.com/pdiddy/citeimpact/pkg/types"
)

// PaperNotResolvedError reports that every consulted provider failed to
// resolve the analyzed paper. It carries the per-provider outcomes so
// callers can distinguish "nobody knows this title" from "everything was
// rate limited".
type PaperNotResolvedError struct {
	Title    string
	Attempts []types.ProviderFailure
}

func (e *PaperNotResolvedError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("resolving %q: no providers available", e.Title)
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Provider, a.Reason))
	}
	return fmt.Sprintf("resolving %q: %s", e.Title, strings.Join(parts, "; "))
}
