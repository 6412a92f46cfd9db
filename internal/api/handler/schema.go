package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type signInRequest struct {
	Role        string `json:"role"         validate:"required,oneof=admin submitter"`
	Passphrase  string `json:"passphrase"   validate:"required_if=Role admin"`
	DisplayName string `json:"display_name" validate:"required_if=Role submitter"`
	AccountID   string `json:"account_id,omitempty"`
}

type sessionResponse struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"account_id"`
	Role            string    `json:"role"`
	DisplayName     string    `json:"display_name"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

type signInResponse struct {
	Token   string          `json:"token"`
	Session sessionResponse `json:"session"`
}

// --- Profile ---

type skillRequest struct {
	Language        string `json:"language"         validate:"required"`
	Proficiency     string `json:"proficiency"      validate:"required,oneof=Beginner Intermediate Expert"`
	ExpertConfirmed bool   `json:"expert_confirmed"`
}

type profileRequest struct {
	Name        string         `json:"name"        validate:"required"`
	Institution string         `json:"institution" validate:"required"`
	Photo       string         `json:"photo"`
	Skills      []skillRequest `json:"skills"      validate:"required,min=1,dive"`
}

type skillResponse struct {
	Language        string `json:"language"`
	Proficiency     string `json:"proficiency"`
	ExpertConfirmed bool   `json:"expert_confirmed"`
}

type profileResponse struct {
	ID          string          `json:"id"`
	OwnerKey    string          `json:"owner_key"`
	Name        string          `json:"name"`
	Institution string          `json:"institution"`
	Photo       string          `json:"photo"`
	Skills      []skillResponse `json:"skills"`
	CreatedAt   time.Time       `json:"created_at"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

type profileListResponse struct {
	Profiles []profileResponse `json:"profiles"`
	Count    int               `json:"count"`
}

// --- Draft ---

type detailsRequest struct {
	Name        string `json:"name"`
	Institution string `json:"institution"`
	Photo       string `json:"photo"`
}

type addSkillRequest struct {
	Language string `json:"language"`
}

// editSkillRequest leaves absent fields untouched.
type editSkillRequest struct {
	Language    *string `json:"language,omitempty"`
	Proficiency *string `json:"proficiency,omitempty" validate:"omitempty,oneof=Beginner Intermediate Expert"`
}

type confirmationRequest struct {
	// Answer to "can you work independently on a project in this language?".
	Independent *bool `json:"independent" validate:"required"`
}

type confirmationResponse struct {
	State        string         `json:"state"`
	PendingIndex *int           `json:"pending_index,omitempty"`
	Skill        *skillResponse `json:"skill,omitempty"`
	Prompt       string         `json:"prompt,omitempty"`
}

type draftResponse struct {
	Name                 string               `json:"name"`
	Institution          string               `json:"institution"`
	Photo                string               `json:"photo"`
	Skills               []skillResponse      `json:"skills"`
	Confirmation         confirmationResponse `json:"confirmation"`
	ConfirmationRequired bool                 `json:"confirmation_required,omitempty"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// --- Admin ---

type statsResponse struct {
	TotalProfiles           int `json:"total_profiles"`
	ExpertProfiles          int `json:"expert_profiles"`
	ConfirmedExpertProfiles int `json:"confirmed_expert_profiles"`
	TotalSkills             int `json:"total_skills"`
}
