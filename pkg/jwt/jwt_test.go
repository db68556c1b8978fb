package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-key-for-unit-tests"
	testUserID  = "00000000-0000-0000-0000-000000000001"
	testCompany = "00000000-0000-0000-0000-000000000002"
)

func TestGenerateAndParse(t *testing.T) {
	tok, err := Generate(testSecret, testUserID, testCompany, "bodeguero", "kardex-api", 60)
	require.NoError(t, err)

	userID, companyID, role, err := Parse(testSecret, "kardex-api", tok)
	require.NoError(t, err)
	assert.Equal(t, testUserID, userID)
	assert.Equal(t, testCompany, companyID)
	assert.Equal(t, "bodeguero", role)
}

func TestParse_IssuerDistinto(t *testing.T) {
	tok, err := Generate(testSecret, testUserID, testCompany, "admin", "otro-emisor", 60)
	require.NoError(t, err)

	_, _, _, err = Parse(testSecret, "kardex-api", tok)
	assert.Error(t, err, "iss no coincide")

	_, _, _, err = Parse(testSecret, "", tok)
	assert.NoError(t, err, "sin issuer configurado no se verifica iss")
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := Generate(testSecret, testUserID, testCompany, "admin", "", -1)
	require.NoError(t, err)

	_, _, _, err = Parse(testSecret, "", tok)
	assert.Error(t, err)
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := Generate(testSecret, testUserID, testCompany, "admin", "", 60)
	require.NoError(t, err)

	_, _, _, err = Parse("otro-secret-completamente-distinto", "", tok)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := Generate("", testUserID, testCompany, "admin", "", 60)
	assert.Error(t, err)
}
