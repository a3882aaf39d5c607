package rpgtl

import (
	"testing"

	"github.com/ZaguanLabs/rpgtl/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, src string) any {
	t.Helper()
	root, err := document.Parse([]byte(src))
	require.NoError(t, err)
	return root
}

func unitPaths(units []TextUnit) []string {
	paths := make([]string, len(units))
	for i, u := range units {
		paths[i] = u.Path.String()
	}
	return paths
}

func unitTexts(units []TextUnit) []string {
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text
	}
	return texts
}

func TestExtract_MapDocument(t *testing.T) {
	units := Extract(parseDoc(t, mapFixture))

	assert.Equal(t, []string{
		"Hello, traveler!",
		"Welcome to our town.",
		"Yes, please.",
		"No, thanks.",
		"Hello, traveler!",
	}, unitTexts(units))

	assert.Equal(t, []string{
		"events[1].pages[0].list[1].parameters[0]",
		"events[1].pages[0].list[2].parameters[0]",
		"events[1].pages[0].list[4].parameters[0][0]",
		"events[1].pages[0].list[4].parameters[0][1]",
		"events[1].pages[0].list[5].parameters[0]",
	}, unitPaths(units))

	assert.Equal(t, "parameters[0]", units[0].FieldName)
}

func TestExtract_RootArray(t *testing.T) {
	units := Extract(parseDoc(t, `[null,{"id":1,"list":[{"code":401,"indent":0,"parameters":["Good night."]}],"name":"Sleep"}]`))

	require.Len(t, units, 1)
	assert.Equal(t, "[1].list[0].parameters[0]", units[0].Path.String())
}

func TestExtract_CommandGate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"text line", `{"code":401,"parameters":["Hello there."]}`, 1},
		{"plugin command", `{"code":356,"parameters":["Plugin text here"]}`, 0},
		{"parameters before code", `{"parameters":["Plugin text here"],"code":356}`, 0},
		{"unknown code", `{"code":0,"parameters":["Hello there."]}`, 0},
		{"fractional code", `{"code":401.5,"parameters":["Hello there."]}`, 0},
		{"integral float code", `{"code":401.0,"parameters":["Hello there."]}`, 1},
		{"parameters without code", `{"parameters":["Hello there."]}`, 1},
		{"code without parameters", `{"code":356,"text":"Hello there."}`, 1},
		{"choices", `{"code":102,"parameters":[["Left way.","Right way."],0]}`, 2},
		{"sound effect", `{"code":250,"parameters":[{"name":"Bell 1","pan":0,"pitch":100,"volume":90}]}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Extract(parseDoc(t, tt.src)), tt.want)
		})
	}
}

func TestExtract_SkippedFields(t *testing.T) {
	src := `{"name":"Harold the Brave","note":"<tag: hi there>","characterName":"Actor 1",` +
		`"displayName":"Old Town","description":"A sturdy sword.","meta":{"x":"y z"}}`

	units := Extract(parseDoc(t, src))

	require.Len(t, units, 2)
	assert.Equal(t, "description", units[0].Path.String())
	// meta is skipped as a string field only; nested objects are still walked.
	assert.Equal(t, "meta.x", units[1].Path.String())
}

func TestExtract_Deterministic(t *testing.T) {
	root := parseDoc(t, mapFixture)

	first := Extract(root)
	second := Extract(root)
	third := Extract(parseDoc(t, mapFixture))

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
}

func TestExtract_ScalarRoot(t *testing.T) {
	assert.Empty(t, Extract(parseDoc(t, `"Hello there."`)))
	assert.Empty(t, Extract(parseDoc(t, `42`)))
}

func TestIsLikelyText(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Hello, world", true},
		{"Hi there", true},
		{"こんにちは", true},
		{"", false},
		{"   ", false},
		{"42", false},
		{"3.14", false},
		{"0x1F", false},
		{"-Infinity", false},
		{"ATK", false},
		{"MAX_HP", false},
		{"Potion", false},
		{`\V[1]`, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsLikelyText(tt.text), "IsLikelyText(%q)", tt.text)
	}
}

func TestShouldSkip(t *testing.T) {
	assert.True(t, ShouldSkip("note", "Hello there."))
	assert.True(t, ShouldSkip("description", "$gameVariables"))
	assert.True(t, ShouldSkip("parameters[0]", `\C[2]`))
	assert.True(t, ShouldSkip("parameters[0]", "Actor1"))
	assert.False(t, ShouldSkip("description", "Hello there."))
}

func TestShouldTranslateCommand(t *testing.T) {
	tests := []struct {
		code CommandCode
		want bool
	}{
		{CmdShowText, true},
		{CmdShowChoices, true},
		{CmdTextLine, true},
		{CmdWhenChoice, true},
		{CmdScrollTextLine, true},
		{120, true},
		{CmdPluginCommand, false},
		{CmdPlaySE, false},
		{357, false},
		{0, false},
		{999, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ShouldTranslateCommand(tt.code), "code %d", tt.code)
	}
}

func TestShouldTranslateCommand_ProtectedWins(t *testing.T) {
	TranslatableCommands[CmdPluginCommand] = true
	defer delete(TranslatableCommands, CmdPluginCommand)

	assert.False(t, ShouldTranslateCommand(CmdPluginCommand))
}
