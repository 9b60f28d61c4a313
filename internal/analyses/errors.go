package analyses

import "errors"

var (
	ErrNotFound      = errors.New("analysis not found")
	ErrNoRoles       = errors.New("no preferred roles")
	ErrNoSkills      = errors.New("no skills")
	ErrSchema        = errors.New("analysis does not match schema")
	ErrUnparsable    = errors.New("analysis is not valid json")
	ErrNoSystemKey   = errors.New("no system llm key configured")
	ErrFormatRetries = errors.New("analysis format retries exhausted")
)

// User facing details for the failures a caller can act on.
const (
	DetailNoRoles  = "No preferred roles set. Please set your target roles first."
	DetailNoSkills = "No skills found. Please connect GitHub or upload resume first."
	DetailNoKey    = "No API key available. Please add your Gemini API key in settings."
	DetailQuota    = "API quota exceeded. Please add your own Gemini API key in settings to continue."
	DetailTimeout  = "Analysis timed out waiting for the model. Please try again."
	DetailFormat   = "analysis generation failed"
	DetailProvider = "Analysis generation failed. Please try again."
)
