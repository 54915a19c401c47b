package pathfix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already canonical", in: "textures/blocks/stone.png", want: "textures/blocks/stone.png"},
		{name: "upper case", in: "Icon.PNG", want: "icon.png"},
		{name: "accents and brackets", in: "Forêt (été).png", want: "foret_ete_.png"},
		{name: "space", in: "my texture.png", want: "my_texture.png"},
		{name: "ligatures", in: "Œuvre cœur.png", want: "oeuvre_coeur.png"},
		{name: "apostrophe", in: "l’épée.png", want: "l_epee.png"},
		{name: "dropped runes", in: "a$b#c!.png", want: "abc.png"},
		{name: "non latin dropped", in: "日本.png", want: ".png"},
		{name: "separators kept", in: `~\Sky/World0`, want: `\sky/world0`},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonical(tt.in))
		})
	}
}

func TestCanonical_Idempotent(t *testing.T) {
	inputs := []string{
		"Forêt (été).png",
		"[Pack] {v2} 'Final'",
		"  spaces  ",
		"ÀÉÎÕÜ ç œ æ",
		"/assets/Minecraft/OptiFine/CIT/Épée.properties",
		"already_ok-1.2",
	}
	for _, in := range inputs {
		once := Canonical(in)
		assert.Equal(t, once, Canonical(once), "input %q", in)
		for _, r := range once {
			assert.True(t, allowed(r), "rune %q left in %q", r, once)
		}
	}
}

func TestNeedsRepair(t *testing.T) {
	assert.True(t, NeedsRepair("/assets/Forêt (été).png"))
	assert.True(t, NeedsRepair("/assets/Textures"))
	assert.False(t, NeedsRepair("/Assets/textures"), "only the last element counts")
	assert.False(t, NeedsRepair("/assets/stone.png"))
}
