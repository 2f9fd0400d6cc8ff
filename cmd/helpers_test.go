package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/chrome-cli/internal/model"
)

func targetCmd(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addTargetFlags(cmd)
	require.NoError(t, cmd.ParseFlags(flags))
	return cmd
}

func TestTargetFromFlags_Priority(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
		args  []string
		want  model.TargetKind
	}{
		{
			name:  "css wins over text",
			flags: []string{"--css", "#go", "--text", "Go"},
			want:  model.TargetCSS,
		},
		{
			name:  "text wins over label",
			flags: []string{"--text", "Sign in", "--label", "Sign in"},
			want:  model.TargetText,
		},
		{
			name:  "role with label",
			flags: []string{"--role", "btn", "--label", "Submit"},
			want:  model.TargetRoleLabel,
		},
		{
			name:  "coordinates when set",
			flags: []string{"--x", "100", "--y", "200"},
			want:  model.TargetCoordinate,
		},
		{
			name: "positional args become free text",
			args: []string{"the", "blue", "button"},
			want: model.TargetFreeText,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := targetCmd(t, tt.flags...)
			desc, err := targetFromFlags(cmd, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, desc.Kind)
		})
	}
}

func TestTargetFromFlags_JoinsArgs(t *testing.T) {
	cmd := targetCmd(t)
	desc, err := targetFromFlags(cmd, []string{"Add", "to", "cart"})
	require.NoError(t, err)
	assert.Equal(t, "Add to cart", desc.Text)
}

func TestTargetFromFlags_ZeroCoordinateIsValid(t *testing.T) {
	// --x 0 --y 0 is the top-left corner, not an unset flag.
	cmd := targetCmd(t, "--x", "0", "--y", "0")
	desc, err := targetFromFlags(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, model.TargetCoordinate, desc.Kind)
	assert.Equal(t, 0.0, desc.X)
}

func TestTargetFromFlags_NoTargetIsAnError(t *testing.T) {
	cmd := targetCmd(t)
	_, err := targetFromFlags(cmd, nil)
	assert.Error(t, err)
}

func TestSplitPair(t *testing.T) {
	tests := []struct {
		in          string
		name, value string
		ok          bool
	}{
		{"session=abc123", "session", "abc123", true},
		{"token=a=b", "token", "a=b", true},
		{"flag=", "flag", "", true},
		{"=value", "", "", false},
		{"no-equals", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		name, value, ok := splitPair(tt.in)
		assert.Equal(t, tt.ok, ok, "splitPair(%q)", tt.in)
		if tt.ok {
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.value, value)
		}
	}
}

func TestParseBBox(t *testing.T) {
	box, err := parseBBox("10, 20, 300, 400")
	require.NoError(t, err)
	assert.Equal(t, [4]int{10, 20, 300, 400}, *box)

	_, err = parseBBox("10,20,300")
	assert.Error(t, err)

	_, err = parseBBox("10,20,abc,400")
	assert.Error(t, err)
}
