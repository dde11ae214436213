package models

// KeyfileClaims is the payload of a signed API keyfile token. Operators who
// do not want plaintext keys in their environment can ship the pool as a
// single signed token instead.
type KeyfileClaims struct {
	Issuer    string   `json:"iss"` // optional
	Subject   string   `json:"sub"`
	IssuedAt  int64    `json:"iat"`
	ExpiresAt int64    `json:"exp"`
	APIKeys   []string `json:"api_keys"`
}
