package onboarding

import (
	"testing"

	"github.com/dalemusser/onboardhub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompletionPolicy(t *testing.T) {
	p, err := ParseCompletionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, SingleApprovedDocument, p)

	p, err = ParseCompletionPolicy("all_required_items")
	require.NoError(t, err)
	assert.Equal(t, AllRequiredItems, p)

	_, err = ParseCompletionPolicy("whenever")
	assert.Error(t, err)
}

func TestSatisfied(t *testing.T) {
	open := &models.OnboardingRecord{
		Tasks: []models.OnboardingTask{
			{ID: "a", Required: true, Status: models.TaskCompleted},
			{ID: "b", Required: false, Status: models.TaskPending},
		},
		Policies: []models.PolicyAcknowledge{{Name: "Code", Required: true}},
		Documents: []models.OnboardingDocument{
			{Type: models.DocIDProof, Status: models.DocumentRejected},
		},
	}
	assert.False(t, AllRequiredItems.Satisfied(open))
	assert.False(t, SingleApprovedDocument.Satisfied(open))

	open.Policies[0].Acknowledged = true
	assert.True(t, AllRequiredItems.Satisfied(open), "optional task must not block completion")

	open.Documents = append(open.Documents, models.OnboardingDocument{Type: models.DocTaxForm, Status: models.DocumentVerified})
	assert.True(t, SingleApprovedDocument.Satisfied(open))

	assert.True(t, AllRequiredItems.Satisfied(&models.OnboardingRecord{}), "nothing required is vacuously complete")
	assert.False(t, CompletionPolicy("bogus").Satisfied(open))
}

func TestBuildTasks_PreservesCompletion(t *testing.T) {
	existing := []models.OnboardingTask{
		{ID: "keep", Title: "Old", Status: models.TaskCompleted},
		{ID: "drop", Title: "Gone", Status: models.TaskCompleted},
	}
	got := buildTasks([]TaskInput{
		{ID: "keep", Title: "Renamed", Required: true},
		{Title: "Brand new"},
		{ID: "unknown", Title: "Client id"},
	}, existing)

	require.Len(t, got, 3)
	assert.Equal(t, "keep", got[0].ID)
	assert.Equal(t, "Renamed", got[0].Title)
	assert.Equal(t, models.TaskCompleted, got[0].Status)
	assert.NotEmpty(t, got[1].ID)
	assert.Equal(t, models.TaskPending, got[1].Status)
	assert.NotEqual(t, "unknown", got[2].ID, "unknown ids are replaced")
}

func TestDefaultTasks_FreshIDs(t *testing.T) {
	a, b := DefaultTasks(), DefaultTasks()
	require.NotEmpty(t, a)
	assert.NotEqual(t, a[0].ID, b[0].ID)
}
