package onboarding

import (
	"fmt"

	"github.com/dalemusser/onboardhub/internal/domain/models"
)

// CompletionPolicy selects the predicate that completes a record.
type CompletionPolicy string

const (
	// AllRequiredItems completes once every required task is done and every
	// required policy is acknowledged.
	AllRequiredItems CompletionPolicy = models.CompletionAllRequiredItems
	// SingleApprovedDocument completes as soon as one document is verified.
	SingleApprovedDocument CompletionPolicy = models.CompletionSingleApprovedDocument

	DefaultCompletionPolicy = SingleApprovedDocument
)

// ParseCompletionPolicy accepts the configured name. Empty selects the default.
func ParseCompletionPolicy(s string) (CompletionPolicy, error) {
	switch CompletionPolicy(s) {
	case "":
		return DefaultCompletionPolicy, nil
	case AllRequiredItems, SingleApprovedDocument:
		return CompletionPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown completion policy %q (want %s or %s)", s, AllRequiredItems, SingleApprovedDocument)
	}
}

// Satisfied reports whether rec meets the policy. With no required items,
// AllRequiredItems is satisfied.
func (p CompletionPolicy) Satisfied(rec *models.OnboardingRecord) bool {
	switch p {
	case AllRequiredItems:
		for _, t := range rec.Tasks {
			if t.Required && t.Status != models.TaskCompleted {
				return false
			}
		}
		for _, pa := range rec.Policies {
			if pa.Required && !pa.Acknowledged {
				return false
			}
		}
		return true
	case SingleApprovedDocument:
		for _, d := range rec.Documents {
			if d.Status == models.DocumentVerified {
				return true
			}
		}
		return false
	default:
		return false
	}
}
