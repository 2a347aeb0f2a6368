package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// sign computes the provider's request signature: HMAC-SHA256 over the
// canonical string, hex-encoded, then base64-encoded. The canonical string
// interleaves method, auth headers, URI and body exactly as the provider
// verifies it.
func sign(secretID, secretKey, httpMethod string, nonce int, timestamp int64, requestURI, requestBody string) string {
	toSign := fmt.Sprintf("%s\nX-TC-Key=%s&X-TC-Nonce=%d&X-TC-Timestamp=%d\n%s\n%s",
		httpMethod, secretID, nonce, timestamp, requestURI, requestBody)
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(toSign))
	hexDigest := hex.EncodeToString(mac.Sum(nil))
	return base64.StdEncoding.EncodeToString([]byte(hexDigest))
}
