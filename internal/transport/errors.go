package transport

import (
	"errors"
	"net/http"

	"github.com/rpggio/gmboard/internal/domain/activity"
	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/domain/mutation"
	"github.com/rpggio/gmboard/internal/overlay"
	"github.com/rpggio/gmboard/internal/repository"
)

// mapError converts domain errors to an HTTP status and error code.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, campaign.ErrCampaignNotFound),
		errors.Is(err, campaign.ErrCharacterNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, campaign.ErrKindMismatch):
		return http.StatusBadRequest, CodeKindMismatch
	case errors.Is(err, campaign.ErrInvalidInput),
		errors.Is(err, campaign.ErrUnknownStat),
		errors.Is(err, mutation.ErrStatNotFound),
		errors.Is(err, mutation.ErrNotGauge),
		errors.Is(err, mutation.ErrInvalidValue),
		errors.Is(err, mutation.ErrUnknownField),
		errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, overlay.ErrInvalidAddress):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, CodeConflict
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// errorMessage hides internal details from clients.
func errorMessage(status int, err error) string {
	if status == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
