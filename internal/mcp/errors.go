package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/gmboard/internal/domain/activity"
	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/domain/mutation"
	"github.com/rpggio/gmboard/internal/domain/system"
	"github.com/rpggio/gmboard/internal/overlay"
	"github.com/rpggio/gmboard/internal/repository"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil
// and are reported as they are.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, campaign.ErrCampaignNotFound):
		return &APIError{Code: "CAMPAIGN_NOT_FOUND", Message: "campaign not found", RecoveryHint: "Call list_campaigns for valid ids"}
	case errors.Is(err, campaign.ErrCharacterNotFound):
		return &APIError{Code: "CHARACTER_NOT_FOUND", Message: "character not found", RecoveryHint: "Call get_campaign for valid character ids"}
	case errors.Is(err, system.ErrSystemNotFound):
		return &APIError{Code: "SYSTEM_NOT_FOUND", Message: "system not found", RecoveryHint: "Call list_systems"}
	case errors.Is(err, mutation.ErrStatNotFound), errors.Is(err, campaign.ErrUnknownStat):
		return &APIError{Code: "STAT_NOT_FOUND", Message: err.Error(), RecoveryHint: "Use a stat name from the character's stats"}
	case errors.Is(err, mutation.ErrNotGauge):
		return &APIError{Code: "NOT_GAUGE", Message: err.Error(), RecoveryHint: "statMax only applies to stats that have a max"}
	case errors.Is(err, mutation.ErrUnknownField):
		return &APIError{Code: "UNKNOWN_FIELD", Message: err.Error(), RecoveryHint: "See gmboard://docs/mutations"}
	case errors.Is(err, campaign.ErrKindMismatch):
		return &APIError{Code: "KIND_MISMATCH", Message: err.Error(), RecoveryHint: "A stat keeps the kind it was created with"}
	case errors.Is(err, mutation.ErrInvalidValue),
		errors.Is(err, campaign.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, overlay.ErrInvalidAddress):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, repository.ErrConflict):
		return &APIError{Code: "CONFLICT", Message: "the write collided with another one", RecoveryHint: "Retry the call"}
	default:
		return nil
	}
}

// toolError is what a tool handler returns for err.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
