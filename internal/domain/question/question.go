// Package question generates the arithmetic challenges that power every attack.
package question

import (
	"fmt"

	"github.com/pythagorasdungeon/server/internal/domain/rules"
)

// MathQuestion is a single prompt shown to the player.
type MathQuestion struct {
	Question   string `json:"question"`
	Answer     int    `json:"answer,omitempty"` // omitted from view snapshots
	Difficulty int    `json:"difficulty"`
}

// Fallback is returned for difficulties outside 1-6.
var Fallback = MathQuestion{Question: "2 + 2", Answer: 4}

// Generate builds a question for difficulty 1-6.
// Answers are always exact integers; division is built from its quotient.
func Generate(r rules.Roller, difficulty int) MathQuestion {
	var q MathQuestion

	switch difficulty {
	case 1: // addition
		a := rules.Between(r, 1, 10)
		b := rules.Between(r, 1, 10)
		q = MathQuestion{Question: fmt.Sprintf("%d + %d", a, b), Answer: a + b}
	case 2: // subtraction, never negative
		a := rules.Between(r, 5, 19)
		b := rules.Between(r, 1, a)
		q = MathQuestion{Question: fmt.Sprintf("%d - %d", a, b), Answer: a - b}
	case 3: // multiplication
		a := rules.Between(r, 2, 9)
		b := rules.Between(r, 2, 9)
		q = MathQuestion{Question: fmt.Sprintf("%d × %d", a, b), Answer: a * b}
	case 4: // division
		b := rules.Between(r, 2, 9)
		quotient := rules.Between(r, 1, 10)
		q = MathQuestion{Question: fmt.Sprintf("%d ÷ %d", b*quotient, b), Answer: quotient}
	case 5:
		q = mixed(r)
	case 6:
		q = compound(r)
	default:
		q = Fallback
	}

	q.Difficulty = difficulty
	return q
}

// mixed picks one of + - × over slightly larger operands.
func mixed(r rules.Roller) MathQuestion {
	op := r.IntN(3)
	a := rules.Between(r, 3, 14)
	b := rules.Between(r, 2, 9)

	switch op {
	case 0:
		return MathQuestion{Question: fmt.Sprintf("%d + %d", a, b), Answer: a + b}
	case 1:
		return MathQuestion{Question: fmt.Sprintf("%d - %d", a, b), Answer: a - b}
	default:
		return MathQuestion{Question: fmt.Sprintf("%d × %d", a, b), Answer: a * b}
	}
}

// compound picks one of four fixed three-operand templates.
func compound(r rules.Roller) MathQuestion {
	a := rules.Between(r, 5, 19)
	b := rules.Between(r, 2, 9)
	c := rules.Between(r, 1, 5)

	templates := [...]MathQuestion{
		{Question: fmt.Sprintf("%d + %d × %d", a, b, c), Answer: a + b*c},
		{Question: fmt.Sprintf("(%d + %d) × %d", a, b, c), Answer: (a + b) * c},
		{Question: fmt.Sprintf("%d ÷ %d + %d", a*c, c, b), Answer: a + b},
		{Question: fmt.Sprintf("%d × %d - %d", a, b, c*5), Answer: a*b - c*5},
	}

	return templates[r.IntN(len(templates))]
}
