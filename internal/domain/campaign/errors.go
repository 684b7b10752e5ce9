package campaign

import "errors"

var (
	// ErrCampaignNotFound indicates the campaign doesn't exist.
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrCharacterNotFound indicates the character doesn't exist in the campaign.
	ErrCharacterNotFound = errors.New("character not found")
	// ErrInvalidInput indicates invalid input for campaign operations.
	ErrInvalidInput = errors.New("invalid campaign input")
	// ErrKindMismatch indicates an update would change the kind of a stat.
	ErrKindMismatch = errors.New("stat kind mismatch")
	// ErrUnknownStat indicates a patch names a stat the character doesn't have.
	ErrUnknownStat = errors.New("unknown stat")
)
