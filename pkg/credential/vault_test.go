package credential

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func createTestJWT(claims map[string]interface{}) string {
	header := map[string]interface{}{"alg": "RS256", "typ": "JWT"}
	headerJSON, _ := json.Marshal(header)
	claimsJSON, _ := json.Marshal(claims)

	headerEncoded := base64.RawURLEncoding.EncodeToString(headerJSON)
	claimsEncoded := base64.RawURLEncoding.EncodeToString(claimsJSON)
	signature := base64.RawURLEncoding.EncodeToString([]byte("fake-signature"))

	return headerEncoded + "." + claimsEncoded + "." + signature
}

func TestTokenHasLife_FreshToken(t *testing.T) {
	token := createTestJWT(map[string]interface{}{
		"exp": float64(time.Now().Add(1 * time.Hour).Unix()),
	})
	assert.True(t, tokenHasLife(token))
}

func TestTokenHasLife_ExpiredToken(t *testing.T) {
	token := createTestJWT(map[string]interface{}{
		"exp": float64(time.Now().Add(-1 * time.Minute).Unix()),
	})
	assert.False(t, tokenHasLife(token))
}

func TestTokenHasLife_ExpiringWithinGracePeriod(t *testing.T) {
	token := createTestJWT(map[string]interface{}{
		"exp": float64(time.Now().Add(5 * time.Second).Unix()),
	})
	assert.False(t, tokenHasLife(token), "a token expiring within the 30s grace window should be treated as dead")
}

func TestTokenHasLife_MalformedToken(t *testing.T) {
	assert.False(t, tokenHasLife("not-a-jwt"))
}

func TestVaultManager_EndpointJoinsBaseAndAccount(t *testing.T) {
	v := NewVaultManager(VaultConfig{BaseURL: "https://vault.example.com/api/v1/"})
	got, err := v.endpoint("main_default_token")
	assert.NoError(t, err)
	assert.Equal(t, "https://vault.example.com/api/v1/secrets/main_default_token", got)
}
