package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sugarfunk/campaignshot/internal/browser"
	"github.com/sugarfunk/campaignshot/internal/logging"
)

// FrameSearchResult reports where the editable region was found. FrameIndex
// is zero based and only meaningful when Found is set. Visited counts the
// frames examined, including the match.
type FrameSearchResult struct {
	Found      bool
	FrameIndex int
	FrameName  string
	FrameURL   string
	Visited    int
}

// InjectContent visits frames in order and writes html into the first one
// exposing an editable body. A frame whose lookup, focus or write fails or
// panics is skipped.
func InjectContent(ctx context.Context, frames []browser.Frame, html string, timeout time.Duration) (FrameSearchResult, error) {
	log := logging.FromContext(ctx)
	result := FrameSearchResult{FrameIndex: -1}

	for i, frame := range frames {
		result.Visited++
		flog := log.WithFields(logrus.Fields{"frame": i, "frame_name": frame.Name()})

		ok, err := injectInto(frame, html, timeout)
		if err != nil {
			flog.WithError(err).Debug("Frame rejected")
			continue
		}
		if !ok {
			flog.Debug("No editable body in frame")
			continue
		}

		result.Found = true
		result.FrameIndex = i
		result.FrameName = frame.Name()
		result.FrameURL = frame.URL()
		log.WithFields(logrus.Fields{
			"frame":     i,
			"frame_url": result.FrameURL,
		}).Info("Content injected")
		return result, nil
	}

	return result, fmt.Errorf("%w (searched %d frames)", ErrEditorNotFound, result.Visited)
}

func injectInto(frame browser.Frame, html string, timeout time.Duration) (ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	body := frame.Locator(SelectorEditableBody)
	n, err := body.Count()
	if err != nil {
		return false, fmt.Errorf("count: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	target := body.First()
	if err := target.Click(timeout); err != nil {
		return false, fmt.Errorf("focus: %w", err)
	}
	if err := target.ReplaceHTML(html); err != nil {
		return false, fmt.Errorf("replace content: %w", err)
	}
	return true, nil
}
