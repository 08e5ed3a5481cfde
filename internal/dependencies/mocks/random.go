package mocks

import (
	"github.com/laserchess/relay/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	// IntnResults is a queue of results to return from Intn
	IntnResults []int
	intnIndex   int

	// Int31Results is a queue of results to return from Int31
	Int31Results []int32
	int31Index   int

	// PickResults is a queue of results to return from Pick
	PickResults []string
	pickIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	if r.intnIndex >= len(r.IntnResults) {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return result
}

// Int31 returns the next queued result, or 0 if none remaining
func (r *MockRandom) Int31() int32 {
	if r.int31Index >= len(r.Int31Results) {
		return 0
	}
	result := r.Int31Results[r.int31Index]
	r.int31Index++
	return result
}

// Pick returns the next queued result, or the first option if none remaining
func (r *MockRandom) Pick(options []string) string {
	if r.pickIndex >= len(r.PickResults) {
		if len(options) == 0 {
			return ""
		}
		return options[0]
	}
	result := r.PickResults[r.pickIndex]
	r.pickIndex++
	return result
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.IntnResults = append(r.IntnResults, values...)
}

// QueueInt31 adds values to the Int31 result queue
func (r *MockRandom) QueueInt31(values ...int32) {
	r.Int31Results = append(r.Int31Results, values...)
}

// QueuePick adds values to the Pick result queue
func (r *MockRandom) QueuePick(values ...string) {
	r.PickResults = append(r.PickResults, values...)
}
