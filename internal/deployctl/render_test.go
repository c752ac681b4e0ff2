package deployctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderString(t *testing.T) {
	data := RenderData{Domain: "dash.example.com", BotAPIURL: "http://127.0.0.1:8000"}

	got, err := renderString("server_name {{.Domain}};", data)
	require.NoError(t, err)
	assert.Equal(t, "server_name dash.example.com;", got)

	_, err = renderString("{{.NoSuchField}}", data)
	assert.Error(t, err, "unknown placeholders must fail, not render empty")
}

func TestFindTemplatesDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DEPLOYCTL_TEMPLATES", dir)
	assert.Equal(t, dir, findTemplatesDir())
}
