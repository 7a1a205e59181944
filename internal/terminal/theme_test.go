package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThemeByName(t *testing.T) {
	th, ok := ThemeByName("Gruvbox")
	assert.True(t, ok)
	assert.Equal(t, "gruvbox", th.Name)

	th, ok = ThemeByName("tokyo_night")
	assert.True(t, ok)
	assert.Equal(t, "tokyo-night", th.Name)

	th, ok = ThemeByName("solarized")
	assert.False(t, ok)
	assert.Equal(t, "tokyo-night", th.Name)
}

func TestThemeNamesResolve(t *testing.T) {
	for _, name := range ThemeNames() {
		_, ok := ThemeByName(name)
		assert.True(t, ok, name)
	}
}
