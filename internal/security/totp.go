package security

import (
	"fmt"

	"github.com/pquerna/otp/totp"
)

// totpIssuer names the service in authenticator apps.
const totpIssuer = "ACMProp"

// GenerateTOTPSecret creates a TOTP secret for an account. Returns the
// shared secret and the otpauth:// provisioning URL.
func GenerateTOTPSecret(account string) (secret, url string, err error) {
	if account == "" {
		return "", "", fmt.Errorf("security: empty totp account")
	}
	key, errGenerate := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: account,
	})
	if errGenerate != nil {
		return "", "", fmt.Errorf("security: generate totp secret: %w", errGenerate)
	}
	return key.Secret(), key.URL(), nil
}

// VerifyTOTP reports whether a one-time code matches the secret right now.
func VerifyTOTP(secret, code string) bool {
	if secret == "" || code == "" {
		return false
	}
	return totp.Validate(code, secret)
}
