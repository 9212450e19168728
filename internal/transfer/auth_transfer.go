package transfer

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/threadflow/internal/models"
)

// CustomClaims is the session cookie payload.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// StateClaims travels through the Threads OAuth round trip as the state
// parameter, binding the callback to the user and persona that started it.
type StateClaims struct {
	UserID    string `json:"user_id"`
	PersonaID string `json:"persona_id"`
	jwt.RegisteredClaims
}

type UserInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profile_picture"`
}

// AccountOverview is what the dashboard shows for the signed-in user.
type AccountOverview struct {
	User              *models.User   `json:"user"`
	Personas          int            `json:"personas"`
	ConnectedPersonas int            `json:"connected_personas"`
	Posts             map[string]int `json:"posts"`
}
