package gateway

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// Fields excluded from the canonical string. The gateway signs everything
// else it sends, so tampering with any business field breaks the signature.
const (
	signField     = "sign"
	signTypeField = "sign_type"
)

// Sign computes the canonical signature over params: non-empty fields sorted
// by name, joined as key=value with &, with the shared secret appended, MD5
// hex encoded.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == signField || k == signTypeField || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	b.WriteString(secret)

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the signature and compares it to the supplied sign field.
func Verify(params map[string]string, secret string) bool {
	supplied := params[signField]
	if supplied == "" {
		return false
	}
	return Sign(params, secret) == strings.ToLower(supplied)
}
