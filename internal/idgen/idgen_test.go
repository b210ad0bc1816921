package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	seq := NewSequence("O")
	assert.EqualValues(t, "O-000001", seq.Next())
	assert.EqualValues(t, "O-000002", seq.Next())
	seq.Reset(10)
	assert.EqualValues(t, "O-000011", seq.Next())
	seq.Reset(3)
	assert.EqualValues(t, "O-000012", seq.Next())
}

func TestNewIsStubbable(t *testing.T) {
	prev := NewFunc
	defer func() { NewFunc = prev }()
	NewFunc = func() string { return "fixed" }
	assert.EqualValues(t, "fixed", New())
}

func TestSequence_Observe(t *testing.T) {
	testCases := []struct {
		description string
		ids         []string
		expect      string
	}{
		{description: "advances", ids: []string{"I-000007", "I-000003"}, expect: "I-000008"},
		{description: "other prefix", ids: []string{"O-000009"}, expect: "I-000001"},
		{description: "malformed", ids: []string{"I-abc"}, expect: "I-000001"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			seq := NewSequence("I")
			for _, id := range testCase.ids {
				seq.Observe(id)
			}
			assert.Equal(t, testCase.expect, seq.Next())
		})
	}
}
