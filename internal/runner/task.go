package runner

import (
	"context"
	"fmt"
)

// StageID identifies a step of the pipeline
type StageID int

const (
	StageBootstrap StageID = iota
	StageAuthenticate
	StageNavigate
	StageFillForm
	StageSelectList
	StageTransition
	StageCaptureEditor
	StageInjectContent
	StagePreview
	StageTeardown
)

var stageNames = [...]string{
	StageBootstrap:     "bootstrap",
	StageAuthenticate:  "authenticate",
	StageNavigate:      "navigate",
	StageFillForm:      "fill_form",
	StageSelectList:    "select_list",
	StageTransition:    "transition",
	StageCaptureEditor: "capture_editor",
	StageInjectContent: "inject_content",
	StagePreview:       "preview",
	StageTeardown:      "teardown",
}

func (id StageID) String() string {
	if id < 0 || int(id) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(id))
	}
	return stageNames[id]
}

// Policy decides what an error returned by a stage does to the run
type Policy int

const (
	// PolicyFatal stops the run and triggers the failure handler
	PolicyFatal Policy = iota
	// PolicySoft logs the error and moves on to the next stage
	PolicySoft
)

func (p Policy) String() string {
	if p == PolicySoft {
		return "soft"
	}
	return "fatal"
}

// Stage represents one step of the pipeline
type Stage interface {
	// ID returns the identity of the stage
	ID() StageID

	// Policy returns how errors from Run are treated
	Policy() Policy

	// Run executes the stage
	Run(ctx context.Context) error
}

// StageFunc adapts a function to the Stage interface
type StageFunc struct {
	StageID     StageID
	ErrorPolicy Policy
	Fn          func(ctx context.Context) error
}

func (s StageFunc) ID() StageID                   { return s.StageID }
func (s StageFunc) Policy() Policy                { return s.ErrorPolicy }
func (s StageFunc) Run(ctx context.Context) error { return s.Fn(ctx) }

// StageError is the error a stage produced, tagged with the stage
type StageError struct {
	Stage    StageID
	Err      error
	Panicked bool
}

func (e *StageError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("stage %s panicked: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
