package helpers

import (
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthClaims is the payload carried in the bearer token: user id, email
// and role, plus the registered expiry fields.
type AuthClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (ac *AuthClaims) IsAdmin() bool {
	return ac.Role == "admin"
}

func (ac *AuthClaims) HasRole(role string) bool {
	return ac.Role == role
}

func (ac *AuthClaims) IsOwner(userID string) bool {
	return ac.UserID == userID
}

// ObjectID parses the subject user id. Returns the nil ObjectID when the
// token carries something that isn't one.
func (ac *AuthClaims) ObjectID() primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(ac.UserID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}
