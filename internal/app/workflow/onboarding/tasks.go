package onboarding

import (
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"github.com/google/uuid"
)

// TaskInput is an HR-supplied checklist entry. ID is empty for new tasks.
type TaskInput struct {
	ID          string `json:"id,omitempty" validate:"omitempty,max=64"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	Required    bool   `json:"required"`
}

var defaultTasks = []TaskInput{
	{Title: "Complete your profile", Description: "Confirm your name, department and position.", Required: true},
	{Title: "Upload identity proof", Description: "Upload a government-issued ID.", Required: true},
	{Title: "Review company policies", Description: "Read and acknowledge each required policy.", Required: true},
	{Title: "Set up your workspace", Description: "Connect GitHub, Jira or Notion if your team uses them.", Required: false},
}

// DefaultTasks returns a fresh copy of the starter checklist with new IDs.
func DefaultTasks() []models.OnboardingTask {
	return buildTasks(defaultTasks, nil)
}

// buildTasks converts inputs to tasks. Inputs whose ID matches an existing
// task keep that task's completion state.
func buildTasks(in []TaskInput, existing []models.OnboardingTask) []models.OnboardingTask {
	byID := make(map[string]models.OnboardingTask, len(existing))
	for _, t := range existing {
		byID[t.ID] = t
	}
	out := make([]models.OnboardingTask, 0, len(in))
	for _, ti := range in {
		t := models.OnboardingTask{
			ID:          ti.ID,
			Title:       ti.Title,
			Description: ti.Description,
			Required:    ti.Required,
			Status:      models.TaskPending,
		}
		if prev, ok := byID[ti.ID]; ok && ti.ID != "" {
			t.Status = prev.Status
			t.CompletedAt = prev.CompletedAt
		} else {
			t.ID = uuid.NewString()
		}
		out = append(out, t)
	}
	return out
}
