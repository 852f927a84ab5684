// Package id issues time-sortable report identifiers.
package id

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ReportPrefix marks identifiers of generated reports.
const ReportPrefix = "rpt_"

// Generator issues ULID based identifiers. Identifiers created within the same
// millisecond still sort in creation order.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewGenerator creates a Generator seeded from crypto/rand.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Report returns a new report identifier such as "rpt_01J...".
func (g *Generator) Report() string {
	return ReportPrefix + g.next()
}

// IsReport reports whether s is a well-formed report identifier.
func IsReport(s string) bool {
	raw, ok := strings.CutPrefix(s, ReportPrefix)
	if !ok {
		return false
	}
	_, err := ulid.ParseStrict(raw)
	return err == nil
}

func (g *Generator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, err := ulid.New(ulid.Timestamp(g.now()), g.entropy)
	if err != nil {
		panic(fmt.Sprintf("id: generating ulid: %v", err))
	}
	return u.String()
}
