package domain

import "strings"

type ProfileValue struct {
	Value string `json:"value"`
}

type ProfileName struct {
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

// ExternalProfile es el perfil entregado por el proveedor OAuth. Todos los
// campos salvo ExternalID pueden venir vacios.
type ExternalProfile struct {
	ExternalID    string         `json:"id"`
	Emails        []ProfileValue `json:"emails,omitempty"`
	Name          ProfileName    `json:"name"`
	DisplayName   string         `json:"displayName,omitempty"`
	Photos        []ProfileValue `json:"photos,omitempty"`
	EmailVerified bool           `json:"emailVerified"`
}

func (p ExternalProfile) PrimaryEmail() string {
	for _, e := range p.Emails {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}

func (p ExternalProfile) PrimaryPhoto() string {
	for _, ph := range p.Photos {
		if v := strings.TrimSpace(ph.Value); v != "" {
			return v
		}
	}
	return ""
}

// FullName une nombre y apellido; vacio si no hay ninguno.
func (p ExternalProfile) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.Name.GivenName) + " " + strings.TrimSpace(p.Name.FamilyName))
}
