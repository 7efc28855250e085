package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-exams-api/internal/models"
)

func TestPercentageOf(t *testing.T) {
	assert.Equal(t, 78.0, PercentageOf(78, 100))
	assert.Equal(t, 86.67, PercentageOf(26, 30))
	assert.Equal(t, 33.33, PercentageOf(1, 3))
	assert.Equal(t, 66.67, PercentageOf(2, 3))
	assert.Equal(t, 100.0, PercentageOf(80, 80))
	assert.Equal(t, 0.0, PercentageOf(0, 50))
}

func TestPercentageOfZeroMaxMarks(t *testing.T) {
	for _, marks := range []float64{0, 5, 100, -3} {
		assert.Equal(t, 0.0, PercentageOf(marks, 0))
	}
}

func TestPercentageOfStaysWithinBounds(t *testing.T) {
	for _, maxMarks := range []float64{1, 7, 30, 80, 100, 150} {
		for marks := 0.0; marks <= maxMarks; marks += 0.5 {
			p := PercentageOf(marks, maxMarks)
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 100.0)
			assert.Equal(t, p, PercentageOf(marks, maxMarks))
		}
	}
}

func TestRound2HalfUp(t *testing.T) {
	assert.Equal(t, 80.0, Round2(79.995))
	assert.Equal(t, 79.99, Round2(79.994))
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, 10.0, Round2(10))
}

func TestRoundedBoundaryCrossesIntoA(t *testing.T) {
	// 159.99/200 = 79.995% which rounds to 80.00.
	result := SubjectResultFor(159.99, 200, models.GradingSystemKNEC)
	assert.Equal(t, 80.0, result.Percentage)
	letter, ok := result.Letter()
	assert.True(t, ok)
	assert.Equal(t, "A", letter.Grade)
}

func TestSubjectResultForScenarios(t *testing.T) {
	knec := SubjectResultFor(78, 100, models.GradingSystemKNEC)
	assert.Equal(t, 78.0, knec.Percentage)
	letter, ok := knec.Letter()
	assert.True(t, ok)
	assert.Equal(t, "A-", letter.Grade)
	assert.Equal(t, 11, letter.Points)
	_, isLevel := knec.Level()
	assert.False(t, isLevel)

	cbc := SubjectResultFor(26, 30, models.GradingSystemCBC)
	assert.Equal(t, 86.67, cbc.Percentage)
	level, ok := cbc.Level()
	assert.True(t, ok)
	assert.Equal(t, 4, level.Level)
	assert.Equal(t, 0, cbc.Points())
}
