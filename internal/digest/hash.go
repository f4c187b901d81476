package digest

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes. The version suffix allows the algorithm to change
// without colliding with digests already in a merge log.
const (
	DomainFingerprint = "perfmodel/fingerprint/v1"
	DomainModel       = "perfmodel/model/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the digest of a trace fingerprint string.
func Fingerprint(fp string) string {
	return hashWithDomain(DomainFingerprint, []byte(norm.NFC.String(fp)))
}

// Model returns the digest of the canonical JSON form of v.
func Model(v any) (string, error) {
	data, err := Canonical(v)
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainModel, data), nil
}
