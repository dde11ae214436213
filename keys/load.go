package keys

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"audioscribe/utils"
)

// EnvPrefix is the agreed prefix for API key environment variables, e.g.
// API_KEY_1, API_KEY_2. A different prefix can name a different key class
// later without colliding.
const EnvPrefix = "API_KEY_"

// FromEnv collects key values from all environment variables carrying the
// prefix, ordered by variable name so pool contents are deterministic.
func FromEnv(prefix string) []string {
	var names []string
	byName := make(map[string]string)
	for _, entry := range os.Environ() {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(name, prefix) || value == "" {
			continue
		}
		names = append(names, name)
		byName[name] = value
	}
	sort.Strings(names)

	values := make([]string, 0, len(names))
	for _, name := range names {
		values = append(values, byName[name])
	}
	return values
}

// FromKeyfile reads a signed keyfile token from path and returns the API
// keys it carries after verifying the signature.
func FromKeyfile(path string, secret []byte, expectedIssuer string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyfile %s: %w", path, err)
	}

	claims, err := utils.VerifyKeyfile(strings.TrimSpace(string(data)), utils.KeyfileVerifyConfig{
		SecretKey:      secret,
		ExpectedIssuer: expectedIssuer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify keyfile %s: %w", path, err)
	}

	return claims.APIKeys, nil
}
