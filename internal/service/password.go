package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const defaultBcryptCost = 10

// maxPasswordBytes es el limite de entrada de bcrypt.
const maxPasswordBytes = 72

// PasswordHasher encapsula bcrypt con un costo fijo.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultBcryptCost
	}
	return PasswordHasher{cost: cost}
}

func (h PasswordHasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", errors.New("password exceeds 72 bytes")
	}
	cost := h.cost
	if cost == 0 {
		cost = defaultBcryptCost
	}
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// Compare usa la comparacion de tiempo constante de bcrypt.
func (h PasswordHasher) Compare(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
