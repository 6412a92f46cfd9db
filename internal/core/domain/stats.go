package domain

// Stats is the admin dashboard projection over the full profile list.
type Stats struct {
	TotalProfiles           int `json:"total_profiles"`
	ExpertProfiles          int `json:"expert_profiles"`
	ConfirmedExpertProfiles int `json:"confirmed_expert_profiles"`
	TotalSkills             int `json:"total_skills"`
}

// Summarize derives dashboard counts from a profile snapshot.
func Summarize(profiles []Profile) Stats {
	st := Stats{TotalProfiles: len(profiles)}
	for i := range profiles {
		p := &profiles[i]
		st.TotalSkills += len(p.Skills)
		if p.HasExpertSkill() {
			st.ExpertProfiles++
		}
		if p.HasConfirmedExpertSkill() {
			st.ConfirmedExpertProfiles++
		}
	}
	return st
}
