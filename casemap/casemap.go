// Package casemap detects filename collisions that only appear under a
// case-insensitive filesystem and proposes rename resolutions. It keeps an
// in-memory log of conflicts observed during the process lifetime.
package casemap

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// maxProposalAttempts bounds the unique-name search.
const maxProposalAttempts = 1000

// Conflict records one detected collision and its proposed resolution.
type Conflict struct {
	// Original is the incoming filename.
	Original string `json:"original"`
	// Existing is the name it collides with under case folding.
	Existing string `json:"existing"`
	// Proposed is the suggested replacement name, empty when the caller
	// must decide.
	Proposed string    `json:"proposed,omitempty"`
	When     time.Time `json:"when"`
}

// Equal reports whether two names collide under case-insensitive
// comparison while being distinct names.
func Equal(a, b string) bool {
	return a != b && strings.EqualFold(a, b)
}

// ExistsFunc probes whether a candidate name is already taken.
type ExistsFunc func(name string) bool

// Propose generates a unique variant of name by suffixing the stem with
// a counter (report.txt → report_1.txt). The exists probe decides
// uniqueness; an error is returned when no free name is found within the
// attempt bound.
func Propose(name string, exists ExistsFunc) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem = "file"
	}

	for i := 1; i <= maxProposalAttempts; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no unique name for %q within %d attempts", name, maxProposalAttempts)
}

// Checker detects conflicts against a set of existing names and records
// what it saw. Safe for concurrent use.
type Checker struct {
	mu        sync.Mutex
	conflicts []Conflict
	resolved  map[string]string
}

// NewChecker creates an empty Checker.
func NewChecker() *Checker {
	return &Checker{resolved: make(map[string]string)}
}

// Check compares the incoming name against existing names. When a
// case-fold collision is found it returns a Conflict carrying a proposed
// rename that avoids every existing name; nil means no conflict.
func (c *Checker) Check(incoming string, existing []string) (*Conflict, error) {
	var hit string
	for _, name := range existing {
		if Equal(incoming, name) {
			hit = name
			break
		}
	}
	if hit == "" {
		return nil, nil
	}

	taken := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		taken[strings.ToLower(name)] = struct{}{}
	}
	proposed, err := Propose(incoming, func(candidate string) bool {
		_, ok := taken[strings.ToLower(candidate)]
		return ok
	})
	if err != nil {
		return nil, err
	}

	conflict := Conflict{
		Original: incoming,
		Existing: hit,
		Proposed: proposed,
		When:     time.Now().UTC(),
	}

	c.mu.Lock()
	c.conflicts = append(c.conflicts, conflict)
	c.mu.Unlock()

	return &conflict, nil
}

// Resolve records that original was renamed to resolved by the caller.
func (c *Checker) Resolve(original, resolved string) {
	c.mu.Lock()
	c.resolved[original] = resolved
	c.mu.Unlock()
}

// Resolved returns the recorded resolution for original, if any.
func (c *Checker) Resolved(original string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.resolved[original]
	return name, ok
}

// Log returns a copy of all conflicts observed so far.
func (c *Checker) Log() []Conflict {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Conflict, len(c.conflicts))
	copy(out, c.conflicts)
	return out
}
