package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWelcome(t *testing.T) {
	subject, html, err := Render("welcome", map[string]any{
		"Username": "alice",
		"FullName": "Alice A",
	})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to VideoTube", subject)
	assert.Contains(t, html, "Alice A")
	assert.Contains(t, html, "@alice")
}

func TestRenderPasswordChanged(t *testing.T) {
	subject, html, err := Render("password_changed", map[string]any{
		"Username": "alice",
		"FullName": "Alice A",
	})
	require.NoError(t, err)
	assert.Equal(t, "Your VideoTube password was changed", subject)
	assert.Contains(t, html, "reset your password")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render("nope", nil)
	assert.Error(t, err)
}
