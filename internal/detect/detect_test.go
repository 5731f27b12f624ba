package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digest/internal/models"
)

func TestDetect(t *testing.T) {
	messages := []models.Message{
		{Text: "The PCB is overheating, temperature sensor reads 95C", User: "U001", Channel: "C100", TS: "1700000001.000100"},
		{Text: "Anyone up for coffee?", User: "U002", Channel: "C100", TS: "1700000002.000200"},
		{Text: "Critical failure in the deployment pipeline", User: "U003", Channel: "C200", TS: "1700000003.000300"},
	}

	got := Detect(messages)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "PCB overheating, temperature sensor reads 95C", first.Title)
	assert.Equal(t, messages[0].Text, first.OriginalText)
	assert.Equal(t, "C100", first.Channel)
	assert.Equal(t, "U001", first.Reporter)
	assert.Equal(t, "1700000001.000100", first.Timestamp)
	assert.Equal(t, first.Timestamp, first.MessageTS)
	assert.Equal(t, []models.IssueType{models.IssueTypeHardware}, first.Types)
	assert.Equal(t, first.Types, first.Tags)
	assert.Equal(t, models.IssuePriorityMedium, first.Priority)

	second := got[1]
	assert.Equal(t, "U003", second.Reporter)
	assert.Equal(t, []models.IssueType{
		models.IssueTypeFailure,
		models.IssueTypeCritical,
	}, second.Types)
	assert.Equal(t, models.IssuePriorityCritical, second.Priority)
}

func TestDetectPreservesInputOrder(t *testing.T) {
	messages := []models.Message{
		{Text: "bug one", User: "U1", Channel: "C1", TS: "3.0"},
		{Text: "bug two", User: "U1", Channel: "C1", TS: "1.0"},
		{Text: "bug three", User: "U1", Channel: "C1", TS: "2.0"},
	}

	got := Detect(messages)
	require.Len(t, got, 3)
	assert.Equal(t, "3.0", got[0].MessageTS)
	assert.Equal(t, "1.0", got[1].MessageTS)
	assert.Equal(t, "2.0", got[2].MessageTS)
}

func TestDetectNoMatches(t *testing.T) {
	messages := []models.Message{
		{Text: "standup at 10", User: "U1", Channel: "C1", TS: "1.0"},
		{Text: "shipping notes posted", User: "U1", Channel: "C1", TS: "2.0"},
	}
	assert.Empty(t, Detect(messages))
	assert.Empty(t, Detect(nil))
}
