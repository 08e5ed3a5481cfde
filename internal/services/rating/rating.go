// Package rating implements the ELO calculation used to resolve matches.
// All functions are pure; the coordinator owns applying results to sessions.
package rating

import "math"

// KFactor is the standard chess K-factor used for every rating update.
const KFactor = 32

// Outcome is the actual score of a match from one player's perspective.
type Outcome float64

const (
	Win  Outcome = 1.0
	Draw Outcome = 0.5
	Lose Outcome = 0.0
)

// OutcomeFromScores derives the outcome for a player by strict comparison
// of the two final scores.
func OutcomeFromScores(myScore, oppScore int) Outcome {
	switch {
	case myScore > oppScore:
		return Win
	case myScore < oppScore:
		return Lose
	default:
		return Draw
	}
}

// String returns the wire representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Lose:
		return "lose"
	default:
		return "draw"
	}
}

// ExpectedScore returns the probability-like expected score for a player
// with selfRating against oppRating. For any pair of ratings,
// ExpectedScore(a, b) + ExpectedScore(b, a) == 1.
func ExpectedScore(selfRating, oppRating int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(oppRating-selfRating)/400.0))
}

// Delta returns the signed rating change for a player with selfRating who
// achieved the given outcome against oppRating. The result is rounded to
// the nearest integer with ties rounding half away from zero, the common
// rating-system convention.
func Delta(selfRating, oppRating int, outcome Outcome) int {
	return int(math.Round(KFactor * (float64(outcome) - ExpectedScore(selfRating, oppRating))))
}

// Apply adds delta to rating, flooring the result at the given minimum.
func Apply(rating, delta, floor int) int {
	updated := rating + delta
	if updated < floor {
		return floor
	}
	return updated
}
