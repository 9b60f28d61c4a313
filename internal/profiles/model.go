package profiles

import "time"

// MaxPreferredRoles caps how many target roles a user may store.
const MaxPreferredRoles = 3

// MaxRoleLength caps a single role name, in characters.
const MaxRoleLength = 200

// Skill sources written by the upstream extractors.
const (
	SourceGitHub = "github"
	SourceResume = "resume"
)

// ProviderGoogleAIStudio is the provider recorded for user supplied keys.
const ProviderGoogleAIStudio = "google_ai_studio"

// Skill is one row produced by the resume and GitHub skill extractors.
type Skill struct {
	Name             string    `json:"skill_name"`
	Source           string    `json:"source"`
	ProficiencyLevel string    `json:"proficiency_level,omitempty"`
	ConfidenceScore  float64   `json:"confidence_score"`
	SourceRepo       string    `json:"source_repo,omitempty"`
	UpdatedAt        time.Time `json:"-"`
}

// APIKeyRecord is the stored form of a user's LLM key. The plaintext never
// leaves the service once SetAPIKey returns.
type APIKeyRecord struct {
	ID        string
	UserID    string
	Provider  string
	Hash      string
	Encrypted string
	Prefix    string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RolesResult is returned after replacing a user's roles.
type RolesResult struct {
	Inserted []string `json:"inserted"`
	Count    int      `json:"count"`
}

// APIKeyResult is returned after storing a key.
type APIKeyResult struct {
	Status string `json:"status"`
	Prefix string `json:"prefix"`
}
