package domain

// Subject is a platform user as returned by the upstream identity store.
type Subject struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"nome,omitempty"`
	Email        string `json:"email,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
	IsActive     bool   `json:"isActive"`
	// Roles is nil when upstream omitted the list, which differs from an empty list.
	Roles []Role `json:"roles"`
}

// DisplayName returns the human-readable subject name carried in tokens.
func (s *Subject) DisplayName() string {
	if s.Username != "" {
		return s.Username
	}
	return s.Name
}

// EffectiveRoles applies the default role when upstream sent none.
func (s *Subject) EffectiveRoles() []Role {
	if s.Roles == nil {
		return []Role{DefaultRole}
	}
	return s.Roles
}
