package pdf

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {

	var htm = RenderMarkdown(strings.NewReader("# Heading\n\nSome *emphasized* text.\n\n- one\n- two\n"))
	assert.Contains(t, htm, "<h1>Heading</h1>")
	assert.Contains(t, htm, "<em>emphasized</em>")
	assert.Contains(t, htm, "<li>one</li>")

	// raw HTML is not passed through
	htm = RenderMarkdown(strings.NewReader("<script>alert(1)</script>"))
	assert.NotContains(t, htm, "<script>")

	// leading tabs don't turn everything into code blocks
	htm = RenderMarkdown(strings.NewReader("\t# Still a heading\n"))
	assert.Contains(t, htm, "<h1>Still a heading</h1>")
}

func TestBlocks(t *testing.T) {

	var result = blocks("<h2>Agenda</h2><p>First   item<br>continued</p><ul><li>a</li><li>b</li></ul>")
	require.Len(t, result, 4)

	assert.Equal(t, 2, result[0].Heading)
	assert.Equal(t, "Agenda", result[0].Text)

	assert.Zero(t, result[1].Heading)
	assert.Equal(t, "First item continued", result[1].Text) // whitespace collapsed

	assert.True(t, result[2].Bullet)
	assert.Equal(t, "a", result[2].Text)
	assert.True(t, result[3].Bullet)
}

func TestFormatDateTime(t *testing.T) {

	var ts = time.Date(2026, time.March, 5, 14, 30, 0, 0, time.Local).Unix()

	assert.Equal(t, "March 5, 2026 2:30 PM", FormatDateTime("en-US", ts))
	assert.Equal(t, "5. März 2026 14:30 Uhr", FormatDateTime("de-DE,de;q=0.9", ts))
	assert.Equal(t, "March 5, 2026 2:30 PM", FormatDateTime("", ts)) // default
}

func TestGenerate(t *testing.T) {

	content, err := Generate(Data{
		Title:     "Community Guidelines",
		Category:  "Governance",
		Author:    "Alice Archer",
		Status:    "LIVE",
		Approver:  "Bob Baker",
		TsCreated: time.Now().Unix(),
		Content:   "# Rules\n\nBe kind.\n\n- no spam\n- no fraud\n",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "%PDF-"))
	assert.Greater(t, len(content), 1000)
}

func TestGenerateFillable(t *testing.T) {

	content, err := Generate(Data{
		Title:     "Membership Form",
		Category:  "Forms",
		Author:    "Alice Archer",
		Status:    "LIVE",
		TsCreated: time.Now().Unix(),
		Content:   "Please fill in your details.",
		Fillable:  true,
		Fields: []Field{
			{Name: "Full Name", Required: true},
			{Name: "Email"},
		},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "%PDF-"))
}
