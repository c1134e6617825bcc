// Package dice provides the randomness abstraction and roll-result types
// used by the battle engine. Every die in the tower is a six-sided die.
package dice

import "fmt"

// Faces is the number of faces on every battle die.
const Faces = 6

// RollResult holds the audit trail for one roll.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // e.g. "2d6"
	Dice       []int  // individual faces before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all faces plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns an audit string in the format:
//
//	"2d6 → [4 5] +0 = 9"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Source is the randomness provider for dice rolls and percentage checks.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// D6 rolls a single six-sided die.
//
// Postcondition: Returns a value in [1, 6].
func D6(src Source) int {
	return src.Intn(Faces) + 1
}

// RollD6 rolls n six-sided dice and returns the faces in roll order.
//
// Precondition: n >= 1.
// Postcondition: len(result) == n; every element is in [1, 6].
func RollD6(src Source, n int) []int {
	if n < 1 {
		panic("dice: RollD6 called with n < 1")
	}
	faces := make([]int, n)
	for i := range faces {
		faces[i] = D6(src)
	}
	return faces
}

// Sum returns the sum of faces.
func Sum(faces []int) int {
	total := 0
	for _, f := range faces {
		total += f
	}
	return total
}

// Chance reports whether a percentage check succeeds: true with probability
// percent/100.
//
// Precondition: 0 <= percent <= 100.
func Chance(src Source, percent int) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return src.Intn(100) < percent
}
