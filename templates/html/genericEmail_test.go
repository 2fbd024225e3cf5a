package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderGenericEmail(t *testing.T) {
	html := RenderGenericEmail("Rank Audit Promotions", "First line.\nSecond line.")

	assert.Contains(t, html, "<h1>Rank Audit Promotions</h1>")
	assert.Contains(t, html, "First line.<br>Second line.")
	assert.Contains(t, html, "talowa.org")
}

func TestRenderGenericEmailEscapesContent(t *testing.T) {
	html := RenderGenericEmail("<script>x</script>", "a < b & c")

	assert.NotContains(t, html, "<script>x</script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "a &lt; b &amp; c")
}

func TestRenderWeeklyDigestEmptyWeek(t *testing.T) {
	html := RenderWeeklyDigest(0, 0, nil)

	assert.Contains(t, html, "No referral activity this week.")
}

func TestRenderWeeklyDigestTopReferrers(t *testing.T) {
	html := RenderWeeklyDigest(12, 30, []DigestRow{
		{Name: "Asha", RankName: "Organizer", DirectReferrals: 6, TeamSize: 14},
	})

	assert.Contains(t, html, "12")
	assert.Contains(t, html, "30")
	assert.Contains(t, html, "Asha")
	assert.Contains(t, html, "Organizer")
}
