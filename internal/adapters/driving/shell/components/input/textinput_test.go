package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommandInput(t *testing.T) {
	in := NewCommandInput(nil)

	require.NotNil(t, in)
	assert.True(t, in.Focused())
	assert.Equal(t, "", in.Value())
	assert.Equal(t, "specimen > ", in.Prompt())
}

func TestCommandInput_SetContext(t *testing.T) {
	in := NewCommandInput(nil)

	in.SetContext("apt28", "dropper.exe")

	assert.Equal(t, "specimen apt28 dropper.exe > ", in.Prompt())
	assert.Contains(t, in.View(), "apt28")
}

func TestCommandInput_Typing(t *testing.T) {
	in := NewCommandInput(nil)

	for _, r := range "info" {
		in, _ = in.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, "info", in.Value())

	in.Reset()
	assert.Equal(t, "", in.Value())
}

func TestCommandInput_SetValueAndWidth(t *testing.T) {
	in := NewCommandInput(nil)

	in.SetValue("find all")
	in.SetWidth(120)

	assert.Equal(t, "find all", in.Value())
	assert.Equal(t, 120, in.Width())

	in.Blur()
	assert.False(t, in.Focused())
	in.Focus()
	assert.True(t, in.Focused())
}
