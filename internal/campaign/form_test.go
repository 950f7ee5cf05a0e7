package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sugarfunk/campaignshot/internal/browser/browsertest"
	"github.com/sugarfunk/campaignshot/internal/config"
)

func TestFillForm(t *testing.T) {
	ctx := context.Background()
	fields := config.Default().Campaign.Fields

	t.Run("binds by position", func(t *testing.T) {
		page := browsertest.NewPage(adminURL)
		inputs := page.Set(SelectorFormInput, 3)

		result, err := FillForm(ctx, page, fields, time.Second)
		require.NoError(t, err)
		assert.False(t, result.Skipped)
		assert.Equal(t, 3, result.Discovered)
		assert.Equal(t, map[string]string{"title": StrategyPosition, "subtitle": StrategyPosition}, result.Bound)

		items := inputs.Items()
		assert.Equal(t, []string{"Dark Mode Test Campaign"}, items[0].Fills)
		assert.Equal(t, []string{"Testing Dark Mode Feature"}, items[1].Fills)
		assert.Empty(t, items[2].Fills)
	})

	t.Run("skips with fewer than two inputs", func(t *testing.T) {
		for _, n := range []int{0, 1} {
			page := browsertest.NewPage(adminURL)
			inputs := page.Set(SelectorFormInput, n)

			result, err := FillForm(ctx, page, fields, time.Second)
			require.NoError(t, err)
			assert.True(t, result.Skipped)
			for _, item := range inputs.Items() {
				assert.Empty(t, item.Fills)
			}
		}
	})

	t.Run("prefers test id then label", func(t *testing.T) {
		page := browsertest.NewPage(adminURL)
		inputs := page.Set(SelectorFormInput, 2)
		byID := browsertest.NewLocator("testid=campaign-name", 1)
		byLabel := browsertest.NewLocator("label=Subject", 1)
		page.TestIDs["campaign-name"] = byID
		page.Labels["Subject"] = byLabel

		declared := []config.FieldConfig{
			{Name: "title", Value: "T", TestID: "campaign-name", Position: 0},
			{Name: "subtitle", Value: "S", TestID: "missing", Label: "Subject", Position: 1},
		}
		result, err := FillForm(ctx, page, declared, time.Second)
		require.NoError(t, err)

		assert.Equal(t, StrategyTestID, result.Bound["title"])
		assert.Equal(t, StrategyLabel, result.Bound["subtitle"])
		assert.Equal(t, []string{"T"}, byID.Fills)
		assert.Equal(t, []string{"S"}, byLabel.Fills)
		for _, item := range inputs.Items() {
			assert.Empty(t, item.Fills)
		}
	})

	t.Run("ambiguous label falls back to position", func(t *testing.T) {
		page := browsertest.NewPage(adminURL)
		inputs := page.Set(SelectorFormInput, 2)
		page.Labels["Name"] = browsertest.NewLocator("label=Name", 2)

		declared := []config.FieldConfig{
			{Name: "title", Value: "T", Label: "Name", Position: 1},
			{Name: "subtitle", Value: "S", Position: 0},
		}
		result, err := FillForm(ctx, page, declared, time.Second)
		require.NoError(t, err)
		assert.Equal(t, StrategyPosition, result.Bound["title"])
		assert.Equal(t, []string{"T"}, inputs.Items()[1].Fills)
	})

	t.Run("unbindable field is an error", func(t *testing.T) {
		page := browsertest.NewPage(adminURL)
		page.Set(SelectorFormInput, 2)

		_, err := FillForm(ctx, page, []config.FieldConfig{{Name: "body", Value: "x", Position: 5}}, time.Second)
		assert.ErrorIs(t, err, ErrFieldNotFound)
	})

	t.Run("fill error is returned", func(t *testing.T) {
		page := browsertest.NewPage(adminURL)
		page.Set(SelectorFormInput, 2).Items()[0].FillErr = errors.New("element detached")

		_, err := FillForm(ctx, page, fields, time.Second)
		assert.ErrorContains(t, err, "fill title")
	})

	t.Run("discovery error is returned", func(t *testing.T) {
		page := browsertest.NewPage(adminURL)
		page.Set(SelectorFormInput, 2).CountErr = errors.New("page crashed")

		_, err := FillForm(ctx, page, fields, time.Second)
		assert.ErrorContains(t, err, "discover form inputs")
	})
}
