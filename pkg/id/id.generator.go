package id

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const CountryPrefix = "cty"

// Generator hands out prefixed, time-ordered ULIDs. Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Generate returns "<prefix>_<ulid>".
func (g *Generator) Generate(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
	return prefix + "_" + id.String()
}

// NewCountryID returns a fresh surrogate key for a country record.
func (g *Generator) NewCountryID() string {
	return g.Generate(CountryPrefix)
}

// Token returns a random opaque token, used for lock ownership and event IDs.
func Token() string {
	return uuid.NewString()
}
