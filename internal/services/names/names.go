// Package names generates chess-flavoured default display names for
// sessions that have not supplied one.
package names

import (
	"strconv"

	"github.com/laserchess/relay/internal/dependencies/random"
)

var adjectives = []string{
	"Swift", "Bold", "Sly", "Fierce", "Quick", "Sharp", "Wild", "Dark", "Bright",
	"Lucky", "Brave", "Cool", "Keen", "Grim", "Deft", "Calm", "Red", "Iron", "Jade", "Void",
}

var pieces = []string{
	"Pawn", "Rook", "Bishop", "Knight", "King", "Queen", "Castle",
}

// Generator produces display names from an injected randomness source.
type Generator struct {
	random random.Random
}

// NewGenerator creates a Generator.
func NewGenerator(random random.Random) *Generator {
	return &Generator{random: random}
}

// Generate returns an adjective+piece name such as "SwiftPawn".
func (g *Generator) Generate() string {
	return g.random.Pick(adjectives) + g.random.Pick(pieces)
}

// WithSuffix returns a fresh name with a random two-digit suffix appended,
// used to resolve collisions with names already online.
func (g *Generator) WithSuffix() string {
	return g.Generate() + strconv.Itoa(10+g.random.Intn(90))
}
