package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles reconocidos por la API.
const (
	RoleAdmin        = "admin"
	RoleShelterStaff = "shelter_staff"
)

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// ShelterID va vacío para administradores; el personal de albergue queda atado a uno.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	ShelterID string `json:"shelter_id,omitempty"`
	Role      string `json:"role"` // "admin" | "shelter_staff"
}

// Generate genera un token JWT firmado. La emisión real la hace el sistema de autenticación
// externo; esta función queda para pruebas y herramientas.
func Generate(secret, userID, shelterID, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:    userID,
		ShelterID: shelterID,
		Role:      role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve userID, shelterID y role.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (userID, shelterID, role string, err error) {
	if secret == "" {
		return "", "", "", fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", "", "", fmt.Errorf("claims inválidos")
	}
	if claims.Role == RoleShelterStaff && claims.ShelterID == "" {
		return "", "", "", fmt.Errorf("jwt: shelter_staff sin shelter_id")
	}
	return claims.UserID, claims.ShelterID, claims.Role, nil
}
