package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinCount(t *testing.T) {
	n, err := Step{Condition: LengthAtLeast}.MinCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = Step{Condition: LengthAtLeast, Value: " 5 "}.MinCount()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = Step{Condition: LengthAtLeast, Value: "cinq"}.MinCount()
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, `title should include "France Culture"`, Step{Condition: TitleInclude, Value: "France Culture"}.Describe())
	assert.Equal(t, "nav ul li should have length at least 5", Step{Selector: "nav ul li", Condition: LengthAtLeast, Value: "5"}.Describe())
	assert.Equal(t, "nav should be visible", Step{Selector: "nav", Condition: Visible}.Describe())
	assert.Equal(t, `h1 should contain "Radio"`, Step{Selector: "h1", Condition: ContainText, Value: "Radio"}.Describe())
}

func TestConditionValid(t *testing.T) {
	for _, c := range Conditions {
		assert.True(t, c.Valid())
	}
	assert.False(t, Condition("be.checked").Valid())
}

func TestRunResultCounts(t *testing.T) {
	run := RunResult{Results: []TestResult{{Success: true}, {Success: false}, {Success: true}}}
	assert.Equal(t, 1, run.Failed())
	assert.Equal(t, 2, run.Passed())
}
