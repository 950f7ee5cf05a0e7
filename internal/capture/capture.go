// Package capture takes checkpoint screenshots and hands them to the
// artifact sink.
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sugarfunk/campaignshot/internal/browser"
	"github.com/sugarfunk/campaignshot/internal/logging"
	"github.com/sugarfunk/campaignshot/internal/storage"
)

// Checkpoint names one screenshot of the run.
type Checkpoint struct {
	Label    string
	Path     string
	FullPage bool
}

// Capturer settles the page, screenshots it and stores the image.
type Capturer struct {
	backend storage.Backend
	settle  time.Duration
	runID   string
}

// NewCapturer returns a Capturer writing to backend. settle bounds the
// network-idle wait before each screenshot.
func NewCapturer(backend storage.Backend, settle time.Duration, runID string) *Capturer {
	return &Capturer{backend: backend, settle: settle, runID: runID}
}

// Capture takes the checkpoint on page and reads the stored image back to
// check its checksum. A settle timeout is ignored.
func (c *Capturer) Capture(ctx context.Context, page browser.Page, cp Checkpoint) (*storage.Reference, error) {
	if page == nil {
		return nil, browser.ErrNoPage
	}
	log := logging.FromContext(ctx).WithField("checkpoint", cp.Label)

	if c.settle > 0 {
		if err := page.WaitForLoadState(browser.LoadStateNetworkIdle, c.settle); err != nil {
			log.WithError(err).Debug("Network did not settle before capture")
		}
	}

	img, err := page.Screenshot(cp.FullPage)
	if err != nil {
		return nil, fmt.Errorf("screenshot %s: %w", cp.Label, err)
	}

	ref, err := c.backend.Store(ctx, &storage.Artifact{
		Label:       cp.Label,
		Path:        cp.Path,
		ContentType: storage.ContentTypePNG,
		Content:     img,
		RunID:       c.runID,
	})
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", cp.Label, err)
	}
	if _, err := c.backend.Retrieve(ctx, ref); err != nil {
		return nil, fmt.Errorf("verify %s: %w", cp.Label, err)
	}

	log.WithFields(logrus.Fields{
		"path":   ref.Location,
		"bytes":  ref.Size,
		"sha256": ref.Checksum,
	}).Info("Screenshot saved")
	return ref, nil
}
