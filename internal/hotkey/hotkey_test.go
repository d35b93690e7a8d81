package hotkey_test

import (
	"testing"

	"github.com/alkime/screentalk/internal/hotkey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xhotkey "golang.design/x/hotkey"
)

func TestParse(t *testing.T) {
	b, err := hotkey.Parse("Ctrl+Shift+O")
	require.NoError(t, err)
	assert.Equal(t, []xhotkey.Modifier{xhotkey.ModCtrl, xhotkey.ModShift}, b.Mods)
	assert.Equal(t, xhotkey.KeyO, b.Key)
	assert.Equal(t, "ctrl+shift+o", b.Name)

	b, err = hotkey.Parse("control+ctrl+9")
	require.NoError(t, err)
	assert.Equal(t, []xhotkey.Modifier{xhotkey.ModCtrl}, b.Mods, "duplicate modifiers collapse")
	assert.Equal(t, xhotkey.Key9, b.Key)
}

func TestParse_Invalid(t *testing.T) {
	for _, combo := range []string{"", "o", "ctrl+", "hyper+o", "ctrl+shift+f13", "ctrl+shift+oo"} {
		t.Run(combo, func(t *testing.T) {
			_, err := hotkey.Parse(combo)
			assert.Error(t, err)
		})
	}
}
