package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/virtudoc/virtudoc-engine/models"
)

func TestWSTokenRoundTrip(t *testing.T) {
	token, err := IssueWSToken("secret", "user-1", models.RoleDoctor, time.Hour)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, role, err := ParseWSToken("secret", token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, models.RoleDoctor, role)
}

func TestParseWSTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueWSToken("secret", "user-1", models.RolePatient, time.Hour)
	assert.NoError(t, err)

	_, _, err = ParseWSToken("other-secret", token)
	assert.Error(t, err)
}

func TestParseWSTokenRejectsExpiredToken(t *testing.T) {
	token, err := IssueWSToken("secret", "user-1", models.RolePatient, -time.Minute)
	assert.NoError(t, err)

	_, _, err = ParseWSToken("secret", token)
	assert.Error(t, err)
}

func TestParseWSTokenRejectsUnknownRole(t *testing.T) {
	claims := WSClaims{
		Role: "superadmin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	assert.NoError(t, err)

	_, _, err = ParseWSToken("secret", token)
	assert.ErrorContains(t, err, "invalid role")
}

func TestParseWSTokenRejectsNonHMACSigning(t *testing.T) {
	// alg=none style tokens must not get past the key func
	token := jwt.NewWithClaims(jwt.SigningMethodNone, WSClaims{
		Role:             string(models.RoleDoctor),
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	_, _, err = ParseWSToken("secret", signed)
	assert.Error(t, err)
}

func TestParseWSTokenRejectsGarbage(t *testing.T) {
	_, _, err := ParseWSToken("secret", "not-a-token")
	assert.Error(t, err)
}
