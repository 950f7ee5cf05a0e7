package campaign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sugarfunk/campaignshot/internal/config"
)

func TestPrepareContent(t *testing.T) {
	t.Run("default html keeps formatting", func(t *testing.T) {
		cfg := config.Default()

		got, err := PrepareContent(cfg.Campaign)
		require.NoError(t, err)
		assert.Contains(t, got, "<h1>Welcome to Dark Mode!</h1>")
		assert.Contains(t, got, "<li>Moon icon for dark mode</li>")
	})

	t.Run("scripts and handlers stripped", func(t *testing.T) {
		got, err := PrepareContent(config.CampaignConfig{
			ContentHTML: `<p onclick="steal()">Hello</p><script>alert(1)</script>`,
		})
		require.NoError(t, err)
		assert.Equal(t, "<p>Hello</p>", got)
	})

	t.Run("markdown wins over html", func(t *testing.T) {
		got, err := PrepareContent(config.CampaignConfig{
			ContentHTML:     "<p>ignored</p>",
			ContentMarkdown: "# Launch\n\n- one\n- two\n",
		})
		require.NoError(t, err)
		assert.Contains(t, got, "<h1>Launch</h1>")
		assert.Contains(t, got, "<li>one</li>")
		assert.NotContains(t, got, "ignored")
	})

	t.Run("blank markdown falls back to html", func(t *testing.T) {
		got, err := PrepareContent(config.CampaignConfig{
			ContentHTML:     "<p>body</p>",
			ContentMarkdown: "  \n",
		})
		require.NoError(t, err)
		assert.Equal(t, "<p>body</p>", got)
	})
}
