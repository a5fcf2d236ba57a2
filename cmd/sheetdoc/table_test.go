package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTableKeepsHeaderCase(t *testing.T) {
	out := renderTable([]string{"Strategy", "Rows"}, [][]string{{"excelize", "3"}, {"xls"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "Strategy")
	assert.Contains(t, out, "Rows")
	assert.NotContains(t, out, "STRATEGY")
	assert.Contains(t, out, "excelize")
}

func TestRenderTableWithoutHeaders(t *testing.T) {
	assert.Empty(t, renderTable(nil, [][]string{{"x"}}, nil))
}
