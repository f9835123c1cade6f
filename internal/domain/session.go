package domain

// SessionIdentity es la vista minima del llamador autenticado.
// Se toma de la cuenta al iniciar sesion y no se refresca despues.
type SessionIdentity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

func NewSessionIdentity(u User) SessionIdentity {
	return SessionIdentity{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	}
}

func (s SessionIdentity) IsAdmin() bool {
	return s.Role == RoleAdmin
}
