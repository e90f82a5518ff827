package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyIgnoresDiacriticsAndCase(t *testing.T) {
	assert.Equal(t, Key("stefan popescu"), Key("Ștefan Popescu"))
	assert.Equal(t, "stefanpopescu", Key("Ștefan Popescu"))
	assert.Equal(t, Key("Ana-Maria Ionescu"), Key("ana maria IONESCU"))
	assert.Equal(t, "ai2024", Key("  A.I. 2024! "))
}

func TestKeyEmpty(t *testing.T) {
	assert.Equal(t, "", Key(""))
	assert.Equal(t, "", Key("  -- "))
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Edge AI":                     "edge-ai",
		"  Ștefan   Popescu ":         "stefan-popescu",
		"Robotics & Automation":       "robotics-automation",
		"Deep--Learning -- Methods":   "deep-learning-methods",
		"Cercetare în Științe (2023)": "cercetare-in-stiinte-2023",
		"Tab\tseparated\nline":        "tab-separated-line",
		"Robotics &":                  "robotics",
		"":                            "",
		"!!!":                         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), "input %q", in)
	}
}

func TestStripDiacritics(t *testing.T) {
	assert.Equal(t, "Sirbu Tanase", StripDiacritics("Șîrbu Tănase"))
	assert.Equal(t, "plain", StripDiacritics("plain"))
}

func TestStableSlugFallsBackToKeyHash(t *testing.T) {
	assert.Equal(t, "stefan-popescu", StableSlug("Ștefan Popescu"))

	oleg := StableSlug("Олег Петров")
	ivan := StableSlug("Иван Иванов")
	assert.NotEmpty(t, oleg)
	assert.NotEmpty(t, ivan)
	assert.NotEqual(t, oleg, ivan)
	assert.Regexp(t, `^n-[0-9a-f]{12}$`, oleg)
	assert.Equal(t, oleg, StableSlug("  олег ПЕТРОВ "), "gleicher Schlüssel, gleicher Slug")

	assert.Empty(t, Slug("Олег Петров"))
	assert.Empty(t, StableSlug("!!! ..."))
}
