package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sugarfunk/campaignshot/internal/browser"
	"github.com/sugarfunk/campaignshot/internal/browser/browsertest"
)

const fragment = "<h1>Hello</h1>"

func frames(fs ...*browsertest.Frame) []browser.Frame {
	out := make([]browser.Frame, 0, len(fs))
	for _, f := range fs {
		out = append(out, f)
	}
	return out
}

func editable(f *browsertest.Frame) *browsertest.Locator {
	l := browsertest.NewLocator(SelectorEditableBody, 1)
	f.Elements[SelectorEditableBody] = l
	return l
}

func TestInjectContent(t *testing.T) {
	ctx := context.Background()

	t.Run("second of three frames", func(t *testing.T) {
		main := browsertest.NewFrame("", "http://localhost:9000/admin/campaigns/1")
		editor := browsertest.NewFrame("tinymce", "about:srcdoc")
		other := browsertest.NewFrame("preview", "about:blank")
		body := editable(editor)
		otherBody := editable(other)

		result, err := InjectContent(ctx, frames(main, editor, other), fragment, time.Second)
		require.NoError(t, err)

		assert.Equal(t, FrameSearchResult{
			Found:      true,
			FrameIndex: 1,
			FrameName:  "tinymce",
			FrameURL:   "about:srcdoc",
			Visited:    2,
		}, result)
		assert.Equal(t, fragment, body.HTML)
		assert.Equal(t, 1, body.Clicks)
		assert.Zero(t, other.Queries, "search stops at first match")
		assert.Empty(t, otherBody.HTML)
	})

	t.Run("failing frames do not abort the search", func(t *testing.T) {
		countErr := browsertest.NewFrame("a", "about:blank")
		editable(countErr).CountErr = errors.New("frame detached")

		panicky := browsertest.NewFrame("b", "about:blank")
		editable(panicky).Panics = map[string]interface{}{"Count": "nil frame"}

		clickErr := browsertest.NewFrame("c", "about:blank")
		editable(clickErr).ClickErr = errors.New("element not visible")

		replacePanic := browsertest.NewFrame("d", "about:blank")
		editable(replacePanic).Panics = map[string]interface{}{"ReplaceHTML": errors.New("evaluate failed")}

		good := browsertest.NewFrame("e", "about:srcdoc")
		body := editable(good)

		result, err := InjectContent(ctx, frames(countErr, panicky, clickErr, replacePanic, good), fragment, time.Second)
		require.NoError(t, err)
		assert.Equal(t, 4, result.FrameIndex)
		assert.Equal(t, 5, result.Visited)
		assert.Equal(t, fragment, body.HTML)
	})

	t.Run("no editable frame", func(t *testing.T) {
		a := browsertest.NewFrame("", "about:blank")
		b := browsertest.NewFrame("x", "about:blank")

		result, err := InjectContent(ctx, frames(a, b), fragment, time.Second)
		assert.ErrorIs(t, err, ErrEditorNotFound)
		assert.False(t, result.Found)
		assert.Equal(t, -1, result.FrameIndex)
		assert.Equal(t, 2, result.Visited)
		assert.Equal(t, 1, a.Queries)
		assert.Equal(t, 1, b.Queries)
	})

	t.Run("no frames", func(t *testing.T) {
		result, err := InjectContent(ctx, nil, fragment, time.Second)
		assert.ErrorIs(t, err, ErrEditorNotFound)
		assert.Zero(t, result.Visited)
	})
}
