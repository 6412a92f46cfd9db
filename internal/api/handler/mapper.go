package handler

import (
	"fmt"
	"strings"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

const confirmationPrompt = "Can you work independently on a project in %s?"

// --- Request → Service input ---

func toProfileFields(req profileRequest) domain.ProfileFields {
	skills := make([]domain.Skill, 0, len(req.Skills))
	for _, s := range req.Skills {
		skills = append(skills, domain.Skill{
			Language:        s.Language,
			Proficiency:     domain.Proficiency(s.Proficiency),
			ExpertConfirmed: s.ExpertConfirmed,
		})
	}
	return domain.ProfileFields{
		Name:        req.Name,
		Institution: req.Institution,
		Photo:       req.Photo,
		Skills:      skills,
	}
}

// gateConfirmations clears ExpertConfirmed on every skill that stored does
// not already hold as a confirmed Expert skill for the same language.
func gateConfirmations(fields domain.ProfileFields, stored *domain.Profile) domain.ProfileFields {
	confirmed := make(map[string]bool)
	if stored != nil {
		for _, sk := range stored.Skills {
			if sk.Proficiency == domain.Expert && sk.ExpertConfirmed {
				confirmed[strings.ToLower(strings.TrimSpace(sk.Language))] = true
			}
		}
	}
	skills := make([]domain.Skill, len(fields.Skills))
	for i, sk := range fields.Skills {
		if sk.ExpertConfirmed && !confirmed[strings.ToLower(strings.TrimSpace(sk.Language))] {
			sk.ExpertConfirmed = false
		}
		skills[i] = sk
	}
	fields.Skills = skills
	return fields
}

// --- Domain → Response ---

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		ID:              s.ID,
		AccountID:       s.AccountID,
		Role:            string(s.Role),
		DisplayName:     s.DisplayName,
		AuthenticatedAt: s.AuthenticatedAt,
		ExpiresAt:       s.ExpiresAt,
	}
}

func toSkillResponses(skills []domain.Skill) []skillResponse {
	out := make([]skillResponse, 0, len(skills))
	for _, s := range skills {
		out = append(out, toSkillResponse(s))
	}
	return out
}

func toSkillResponse(s domain.Skill) skillResponse {
	return skillResponse{
		Language:        s.Language,
		Proficiency:     string(s.Proficiency),
		ExpertConfirmed: s.ExpertConfirmed,
	}
}

func toProfileResponse(p *domain.Profile) profileResponse {
	return profileResponse{
		ID:          p.ID,
		OwnerKey:    string(p.OwnerKey),
		Name:        p.Name,
		Institution: p.Institution,
		Photo:       p.Photo,
		Skills:      toSkillResponses(p.Skills),
		CreatedAt:   p.CreatedAt,
		SubmittedAt: p.SubmittedAt,
	}
}

func toProfileListResponse(profiles []domain.Profile) profileListResponse {
	out := make([]profileResponse, 0, len(profiles))
	for i := range profiles {
		out = append(out, toProfileResponse(&profiles[i]))
	}
	return profileListResponse{Profiles: out, Count: len(out)}
}

func toDraftResponse(d *domain.Draft, confirmationRequired bool) draftResponse {
	resp := draftResponse{
		Name:                 d.Fields.Name,
		Institution:          d.Fields.Institution,
		Photo:                d.Fields.Photo,
		Skills:               toSkillResponses(d.Fields.Skills),
		Confirmation:         confirmationResponse{State: string(d.Flow.Current())},
		ConfirmationRequired: confirmationRequired,
		UpdatedAt:            d.UpdatedAt,
	}
	if i, ok := d.Flow.Pending(); ok && i < len(d.Fields.Skills) {
		skill := toSkillResponse(d.Fields.Skills[i])
		resp.Confirmation.PendingIndex = &i
		resp.Confirmation.Skill = &skill
		resp.Confirmation.Prompt = fmt.Sprintf(confirmationPrompt, skill.Language)
	}
	return resp
}

func toStatsResponse(s domain.Stats) statsResponse {
	return statsResponse{
		TotalProfiles:           s.TotalProfiles,
		ExpertProfiles:          s.ExpertProfiles,
		ConfirmedExpertProfiles: s.ConfirmedExpertProfiles,
		TotalSkills:             s.TotalSkills,
	}
}
