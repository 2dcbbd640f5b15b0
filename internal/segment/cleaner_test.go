package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanRemovesPageArtifacts(t *testing.T) {
	raw := "Employees accrue vacation monthly.\nPage 3 of 12\nUnused days carry over."
	got := Clean(raw)
	assert.NotContains(t, got, "Page 3 of 12")
	assert.Contains(t, got, "Employees accrue vacation monthly.")
	assert.Contains(t, got, "Unused days carry over.")
}

func TestCleanRemovesBarePageNumbers(t *testing.T) {
	raw := "First paragraph.\n\nPage 7\n\nSecond paragraph."
	got := Clean(raw)
	assert.NotContains(t, got, "Page 7")
	assert.Contains(t, got, "First paragraph.")
}

func TestCleanRemovesRepeatedHeaders(t *testing.T) {
	header := "Acme Corp Employee Handbook"
	var sb strings.Builder
	for i := 0; i < 6; i++ {
		sb.WriteString(header + "\n")
		sb.WriteString("Body content for section number ")
		sb.WriteString(strings.Repeat("x ", 10))
		sb.WriteString("\n")
	}
	got := Clean(sb.String())
	assert.NotContains(t, got, header)
	assert.Contains(t, got, "Body content")
}

func TestCleanKeepsInfrequentLines(t *testing.T) {
	raw := "Unique heading here\nSome body text follows.\nUnique heading here"
	got := Clean(raw)
	// Two occurrences are below the repeat threshold.
	assert.Contains(t, got, "Unique heading here")
}

func TestCleanRemovesTOCEntries(t *testing.T) {
	raw := "Table of Contents\nIntroduction..........3\nBenefits.......12\n\nIntroduction\nWelcome to the company."
	got := Clean(raw)
	assert.NotContains(t, got, ".....")
	assert.Contains(t, got, "Welcome to the company.")
}

func TestCleanCollapsesWhitespace(t *testing.T) {
	raw := "Too   many    spaces.\n\n\n\n\nAnd too many newlines."
	got := Clean(raw)
	assert.Contains(t, got, "Too many spaces.")
	assert.NotContains(t, got, "   ")
	assert.NotContains(t, got, "\n\n\n")
}

func TestCleanRemovesRunOnSpaceHeaders(t *testing.T) {
	// Raw header is over the length cutoff only because of run-on spaces;
	// it must still be detected, and on the first pass.
	header := "Acme          Corp          Employee          Handbook"
	var sb strings.Builder
	for i := 0; i < 6; i++ {
		sb.WriteString(header + "\n")
		sb.WriteString("Body sentence number " + strings.Repeat("word ", 8) + "\n")
	}
	once := Clean(sb.String())
	assert.NotContains(t, once, "Acme Corp Employee Handbook")
	assert.Contains(t, once, "Body sentence")
	assert.Equal(t, once, Clean(once))
}

func TestCleanIdempotent(t *testing.T) {
	raw := "Title\n\nPage 1 of 2\nEmployees receive benefits.   Extra  spaces.\n\n\nNext paragraph."
	once := Clean(raw)
	twice := Clean(once)
	assert.Equal(t, once, twice)
}

func TestCleanEmptyInput(t *testing.T) {
	assert.Equal(t, "", Clean(""))
	assert.Equal(t, "", Clean("   \n\n  "))
}
