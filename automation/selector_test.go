package automation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/anyconnect-autologin/common"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		input string
		want  Selector
	}{
		{"[CLASS:Edit; INSTANCE:1]", Selector{Class: "Edit", Instance: 1}},
		{"[CLASS:Button; TEXT:Connect; INSTANCE:1]", Selector{Class: "Button", Text: "Connect", Instance: 1}},
		{"[CLASS:Button; ID:1067; INSTANCE:2]", Selector{Class: "Button", ID: 1067, Instance: 2}},
		{"[CLASS:Button; TEXT:Change Setting...; INSTANCE:2]", Selector{Class: "Button", Text: "Change Setting...", Instance: 2}},
		{"[class:ComboBox]", Selector{Class: "ComboBox"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSelector(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Class, got.Class)
			assert.Equal(t, tt.want.Text, got.Text)
			assert.Equal(t, tt.want.ID, got.ID)
			assert.Equal(t, tt.want.Instance, got.Instance)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestParseSelector_Invalid(t *testing.T) {
	for _, input := range []string{
		"",
		"CLASS:Edit",
		"[]",
		"[INSTANCE:1]",
		"[CLASS:Edit; INSTANCE:zero]",
		"[CLASS:Edit; INSTANCE:0]",
		"[CLASS:Button; ID:-4]",
		"[CLASS:Edit; COLOR:red]",
		"[CLASS]",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseSelector(input)
			assert.ErrorIs(t, err, common.ErrInvalidSelector)
		})
	}
}

func TestMustParseSelector_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseSelector("nope") })
}

func TestSelector_StringWithoutRaw(t *testing.T) {
	sel := Selector{Class: "Button", Text: "OK"}
	assert.Equal(t, "[CLASS:Button; TEXT:OK; INSTANCE:1]", sel.String())
}

func TestSelector_Find(t *testing.T) {
	controls := []Control{
		{Class: "Static", Text: "Ready to connect."},
		{Class: "Edit", Text: "vpn.example.com"},
		{Class: "Button", Text: "&Connect", ID: 1001},
		{Class: "Edit", Text: ""},
		{Class: "Button", Text: "Connect Anyway", ID: 1067},
		{Class: "Button", Text: "Cancel", ID: 1067},
	}

	tests := []struct {
		selector string
		want     int
	}{
		{"[CLASS:Edit; INSTANCE:1]", 1},
		{"[CLASS:Edit; INSTANCE:2]", 3},
		{"[CLASS:Edit; INSTANCE:3]", -1},
		{"[CLASS:Button; TEXT:Connect; INSTANCE:1]", 2},
		{"[CLASS:Button; ID:1067; INSTANCE:2]", 5},
		{"[CLASS:button; ID:1067]", 4},
		{"[CLASS:Button; ID:1001; INSTANCE:2]", 2},
		{"[CLASS:Button; ID:4242; INSTANCE:2]", 4},
		{"[CLASS:Button; ID:4242; INSTANCE:9]", -1},
		{"[CLASS:Button; TEXT:Disconnect; INSTANCE:1]", -1},
		{"[CLASS:ComboBox; INSTANCE:1]", -1},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParseSelector(tt.selector).Find(controls))
		})
	}
}

func TestSelector_FindUniqueControlID(t *testing.T) {
	dialog := []Control{
		{Class: "Static", Text: "Security Warning: Untrusted Server Certificate!", ID: 1001},
		{Class: "Button", Text: "Change Setting...", ID: 1066},
		{Class: "Button", Text: "Connect Anyway", ID: 1067},
		{Class: "Button", Text: "Cancel Connection", ID: 1068},
	}
	sel := MustParseSelector("[CLASS:Button; ID:1067; INSTANCE:2]")

	assert.Equal(t, 2, sel.Find(dialog))

	// Backends that cannot read control IDs fall back to counting buttons.
	noIDs := make([]Control, len(dialog))
	for i, c := range dialog {
		c.ID = 0
		noIDs[i] = c
	}
	assert.Equal(t, 2, sel.Find(noIDs))
}

func TestStripMnemonic(t *testing.T) {
	assert.Equal(t, "Connect", stripMnemonic("&Connect"))
	assert.Equal(t, "Save & Exit", stripMnemonic("Save && Exit"))
	assert.Equal(t, "plain", stripMnemonic("plain"))
}
