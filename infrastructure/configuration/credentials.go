package configuration

import (
	"fmt"
	"os"
	"strings"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
)

// maxNumberedKeys bounds the YOUTUBE_API_KEY_<n> scan.
const maxNumberedKeys = 10

// Credentials gathers the API keys from YOUTUBE_API_KEY, YOUTUBE_API_KEY_1..10
// and youtube.apiKeys, in that order. Placeholders and duplicates are dropped.
// A nil lookup reads the process environment.
func Credentials(c *Config, lookup func(string) (string, bool)) ([]model.Credential, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var raw []string
	if v, ok := lookup("YOUTUBE_API_KEY"); ok {
		raw = append(raw, v)
	}
	for i := 1; i <= maxNumberedKeys; i++ {
		if v, ok := lookup(fmt.Sprintf("YOUTUBE_API_KEY_%d", i)); ok {
			raw = append(raw, v)
		}
	}
	if c != nil {
		raw = append(raw, c.YouTube.APIKeys...)
	}

	seen := make(map[string]struct{}, len(raw))
	creds := make([]model.Credential, 0, len(raw))
	for _, k := range raw {
		k = strings.TrimSpace(k)
		if k == "" || strings.HasPrefix(k, "YOUR_") {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		creds = append(creds, model.Credential(k))
	}
	if len(creds) == 0 {
		return nil, model.ErrNoCredentialsConfigured
	}
	return creds, nil
}
