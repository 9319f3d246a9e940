package common

import (
	"fmt"
	"os"
	"strings"
)

// MaxNumberedCredentials is the highest numbered GEMINI_API_KEY_N slot probed.
const MaxNumberedCredentials = 5

// credentialOrdinals name the numbered env slots in .env.example
// (GEMINI_API_KEY_1 ships as "your_first_gemini_api_key_here" and so on).
var credentialOrdinals = [MaxNumberedCredentials]string{
	"first", "second", "third", "fourth", "fifth",
}

// LoadGeminiCredentials reads Gemini API keys from the environment.
//
// It probes GEMINI_API_KEY_1 through GEMINI_API_KEY_5, trimming whitespace
// and surrounding quotes and dropping unmodified placeholder values. When no
// numbered key is usable it falls back to the single GEMINI_API_KEY variable.
// The returned slice preserves slot order and may be empty; an empty pool is
// not an error here, only when a key is actually requested.
func LoadGeminiCredentials() []string {
	var secrets []string

	for i := 1; i <= MaxNumberedCredentials; i++ {
		raw := os.Getenv(fmt.Sprintf("GEMINI_API_KEY_%d", i))
		secret := cleanCredential(raw)
		if secret == "" || isCredentialPlaceholder(secret, i) {
			continue
		}
		secrets = append(secrets, secret)
	}

	if len(secrets) == 0 {
		secret := cleanCredential(os.Getenv("GEMINI_API_KEY"))
		if secret != "" && !isCredentialPlaceholder(secret, 0) {
			secrets = append(secrets, secret)
		}
	}

	return secrets
}

// cleanCredential strips whitespace and surrounding double quotes.
// Quotes appear when .env files are written as KEY="value".
func cleanCredential(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), `"`)
}

// isCredentialPlaceholder reports whether a value is a sample from
// .env.example rather than a real key. slot 0 means the unnumbered variable.
func isCredentialPlaceholder(value string, slot int) bool {
	if value == "your_gemini_api_key_here" {
		return true
	}
	if slot >= 1 && slot <= MaxNumberedCredentials {
		if value == fmt.Sprintf("your_%s_gemini_api_key_here", credentialOrdinals[slot-1]) {
			return true
		}
	}
	// Catch any other unedited sample values.
	return strings.HasPrefix(value, "your_") && strings.HasSuffix(value, "_here")
}
