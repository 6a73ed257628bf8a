// Package names generates human-friendly node names.
package names

import (
	"math/rand/v2"
	"strconv"
)

var firstNames = []string{
	"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi",
	"ivan", "judy", "mallory", "niaj", "olivia", "peggy", "rupert", "sybil",
	"trent", "uma", "victor", "walter", "xena", "yusuf", "zoe",
}

// maxAttempts bounds the number of random draws before falling back to a numeric suffix.
const maxAttempts = 32

// Generator produces names that are not yet taken.
type Generator struct {
	rnd *rand.Rand
}

// New creates a generator drawing from rnd.
func New(rnd *rand.Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{rnd: rnd}
}

// Name returns a random name.
func (g *Generator) Name() string {
	return firstNames[g.rnd.IntN(len(firstNames))]
}

// Unique returns a random name for which taken reports false.
// After a few collisions it appends an increasing suffix to a random name.
func (g *Generator) Unique(taken func(string) bool) string {
	for i := 0; i < maxAttempts; i++ {
		name := g.Name()
		if !taken(name) {
			return name
		}
	}
	base := g.Name()
	for n := 2; ; n++ {
		name := base + strconv.Itoa(n)
		if !taken(name) {
			return name
		}
	}
}
