package main

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"tessera/internal/buildpipeline"
	"tessera/internal/ui"
)

type batchOutcome struct {
	results []*buildpipeline.Result
	err     error
}

// runAllWithUI runs the batch while a Bubble Tea view renders its events.
// Quitting the view cancels the scripts still in flight.
func runAllWithUI(ctx context.Context, title string, files []string, reqs []buildpipeline.Request, mode buildpipeline.Mode, jobs int) ([]*buildpipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)
	go func() {
		res, err := buildpipeline.RunAll(ctx, reqs, mode, jobs, buildpipeline.ChannelSink{Ch: events})
		close(events)
		outcomeCh <- batchOutcome{results: res, err: err}
	}()

	final := buildpipeline.StageRun
	if mode == buildpipeline.ModeCompile {
		final = buildpipeline.StageValidate
	}
	model, uiErr := tea.NewProgram(ui.NewProgressModel(title, final, files, events), tea.WithOutput(os.Stdout)).Run()
	if uiErr != nil || ui.Canceled(model) {
		cancel()
	}
	// the pipeline may still be sending after the view quit early
	for range events {
	}
	outcome := <-outcomeCh
	switch {
	case uiErr != nil:
		return outcome.results, uiErr
	case ui.Canceled(model):
		return outcome.results, errors.Join(context.Canceled, outcome.err)
	}
	return outcome.results, outcome.err
}
