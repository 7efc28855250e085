package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectResultJSONFlattensLetterGrade(t *testing.T) {
	result := SubjectResult{Marks: 78, MaxMarks: 100, Percentage: 78, Outcome: LetterGrade{Grade: "A-", Points: 11, Comment: "Very Good"}}

	payload, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"marks":78,"maxMarks":100,"percentage":78,"grade":"A-","points":11,"comment":"Very Good"}`, string(payload))

	var decoded SubjectResult
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, result, decoded)
}

func TestSubjectResultJSONFlattensLevel(t *testing.T) {
	result := SubjectResult{Marks: 26, MaxMarks: 30, Percentage: 86.67, Outcome: CompetencyLevel{Level: 4}}

	payload, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"marks":26,"maxMarks":30,"percentage":86.67,"level":4}`, string(payload))

	var decoded SubjectResult
	require.NoError(t, json.Unmarshal(payload, &decoded))
	level, ok := decoded.Level()
	require.True(t, ok)
	assert.Equal(t, 4, level.Level)
	_, isLetter := decoded.Letter()
	assert.False(t, isLetter)
}

func TestSubjectResultJSONUngraded(t *testing.T) {
	payload, err := json.Marshal(SubjectResult{Marks: 5, MaxMarks: 0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"marks":5,"maxMarks":0,"percentage":0}`, string(payload))

	var decoded SubjectResult
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Nil(t, decoded.Outcome)
	assert.Zero(t, decoded.Points())
}

func TestStudentInStream(t *testing.T) {
	east := "east"
	student := Student{ID: "s1", StreamID: &east}
	assert.True(t, student.InStream(""))
	assert.True(t, student.InStream("east"))
	assert.False(t, student.InStream("west"))
	assert.False(t, Student{ID: "s2"}.InStream("east"))
}

func TestGradingSystemValid(t *testing.T) {
	assert.True(t, GradingSystemKNEC.Valid())
	assert.True(t, GradingSystemCBC.Valid())
	assert.False(t, GradingSystem("igcse").Valid())
}
