package deployctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskedEnvLines(t *testing.T) {
	vars := map[string]string{
		"DOMAIN":       "dash.example.com",
		"BOT_API_KEY":  "supersecretkey",
		"APP_PASSWORD": "hunter2secret",
		"BOT_API_URL":  "http://127.0.0.1:8000",
	}

	lines := maskedEnvLines(vars)
	assert.Equal(t, []string{
		"APP_PASSWORD=********",
		"BOT_API_KEY=********",
		"BOT_API_URL=http://127.0.0.1:8000",
		"DOMAIN=dash.example.com",
	}, lines, "listing is sorted and secrets are masked")

	// Map iteration order must not leak into the output.
	assert.Equal(t, lines, maskedEnvLines(vars))
}
