package jwt

import "github.com/golang-jwt/jwt/v5"

type APIClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type Role string

const (
	RoleViewer   Role = "viewer"
	RoleImporter Role = "importer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleImporter, RoleAdmin:
		return true
	}
	return false
}

// CanWrite reports whether the role may import or delete reports.
func (r Role) CanWrite() bool {
	return r == RoleImporter || r == RoleAdmin
}
