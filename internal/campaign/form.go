package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sugarfunk/campaignshot/internal/browser"
	"github.com/sugarfunk/campaignshot/internal/config"
	"github.com/sugarfunk/campaignshot/internal/logging"
)

// Field discovery strategies, in the order they are tried.
const (
	StrategyTestID   = "test_id"
	StrategyLabel    = "label"
	StrategyPosition = "position"
)

// minFormInputs is the number of text inputs the campaign form must show
// before any field is filled.
const minFormInputs = 2

// FillResult describes what FillForm did.
type FillResult struct {
	Skipped    bool
	Discovered int
	// Bound maps field name to the strategy that located it.
	Bound map[string]string
}

// FillForm writes each declared field into the campaign form. With fewer
// than two text inputs on the page it does nothing and returns no error.
func FillForm(ctx context.Context, page browser.Page, fields []config.FieldConfig, timeout time.Duration) (*FillResult, error) {
	log := logging.FromContext(ctx)

	inputs, err := page.Locator(SelectorFormInput).All()
	if err != nil {
		return nil, fmt.Errorf("discover form inputs: %w", err)
	}

	result := &FillResult{Discovered: len(inputs), Bound: make(map[string]string)}
	if len(inputs) < minFormInputs {
		log.WithField("inputs", len(inputs)).Info("Not enough form inputs, skipping fill")
		result.Skipped = true
		return result, nil
	}

	for _, field := range fields {
		loc, strategy, err := bindField(page, inputs, field)
		if err != nil {
			return result, fmt.Errorf("field %s: %w", field.Name, err)
		}
		if err := loc.Fill(field.Value, timeout); err != nil {
			return result, fmt.Errorf("fill %s: %w", field.Name, err)
		}
		result.Bound[field.Name] = strategy
		log.WithFields(logrus.Fields{
			"field":    field.Name,
			"strategy": strategy,
		}).Debugf("Filled %q", field.Value)
	}

	log.WithField("fields", len(result.Bound)).Info("Form filled")
	return result, nil
}

// bindField tries test id, then exact label, then position. The first two
// only bind when they match exactly one element.
func bindField(page browser.Page, inputs []browser.Locator, field config.FieldConfig) (browser.Locator, string, error) {
	if field.TestID != "" {
		if loc := page.ByTestID(field.TestID); unique(loc) {
			return loc, StrategyTestID, nil
		}
	}
	if field.Label != "" {
		if loc := page.ByLabel(field.Label); unique(loc) {
			return loc, StrategyLabel, nil
		}
	}
	if field.Position >= 0 && field.Position < len(inputs) {
		return inputs[field.Position], StrategyPosition, nil
	}
	return nil, "", fmt.Errorf("%w: no strategy matched (position %d of %d inputs)", ErrFieldNotFound, field.Position, len(inputs))
}

func unique(loc browser.Locator) bool {
	n, err := loc.Count()
	return err == nil && n == 1
}
