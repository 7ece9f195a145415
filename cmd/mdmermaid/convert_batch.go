package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mermaid/internal/pipeline"
)

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// convertBatch converts files concurrently, at most params.workers at a
// time. Results are in input order; a failed file does not stop the others.
func convertBatch(ctx context.Context, files []FileToConvert, params *conversionParams, env *Environment) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	results := make([]ConversionResult, len(files))

	var g errgroup.Group
	g.SetLimit(max(params.workers, 1))
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = ConversionResult{InputPath: f.InputPath, Err: err}
				return nil
			}
			results[i] = convertFile(ctx, f, params, env)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// convertFile processes a single file and returns the result.
func convertFile(ctx context.Context, f FileToConvert, params *conversionParams, env *Environment) ConversionResult {
	start := env.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}
	finish := func(err error) ConversionResult {
		if err != nil {
			result.Err = withHint(err, params.cfg)
		}
		result.Duration = env.Now().Sub(start)
		return result
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		return finish(fmt.Errorf("%w: %v", ErrReadMarkdown, err))
	}

	page, err := renderPage(ctx, string(content), f, params)
	if err != nil {
		return finish(err)
	}

	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		return finish(fmt.Errorf("%w: %v", ErrCreateOutputDir, err))
	}
	// #nosec G306 -- HTML pages are meant to be readable
	if err := os.WriteFile(f.OutputPath, []byte(page), filePermissions); err != nil {
		return finish(fmt.Errorf("%w: %v", ErrWriteHTML, err))
	}

	loggerFromContext(ctx).Debug("converted", "input", f.InputPath, "output", f.OutputPath)
	return finish(nil)
}

// renderPage turns one Markdown document into an HTML page.
func renderPage(ctx context.Context, markdown string, f FileToConvert, params *conversionParams) (string, error) {
	markdown = pipeline.PreprocessMarkdown(ctx, markdown)

	body, err := params.converter.ToHTML(ctx, markdown)
	if err != nil {
		return "", err
	}

	body, err = pipeline.RewriteRelativePaths(body, filepath.Dir(f.InputPath), filepath.Dir(f.OutputPath))
	if err != nil {
		return "", fmt.Errorf("rewriting relative paths: %w", err)
	}

	title := params.cfg.Output.Title
	if title == "" {
		title = pipeline.ExtractTitle(body)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(f.InputPath), filepath.Ext(f.InputPath))
	}

	return params.pages.Build(ctx, &pipeline.Page{
		Title:    title,
		Body:     body,
		Styles:   params.styles,
		Client:   params.client,
		Fragment: params.cfg.Output.Fragment,
	})
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResultsWithWriter outputs conversion results using the provided writers.
func printResultsWithWriter(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}

// batchError reports failed conversions. It unwraps to the first failure
// so the exit code follows its cause.
type batchError struct {
	failed int
	total  int
	first  error
}

func (e *batchError) Error() string {
	return fmt.Sprintf("%d of %d conversion(s) failed", e.failed, e.total)
}

func (e *batchError) Unwrap() error {
	return e.first
}

// newBatchError returns a *batchError when any result failed, else nil.
func newBatchError(results []ConversionResult) error {
	var e batchError
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		if e.first == nil {
			e.first = r.Err
		}
		e.failed++
	}
	if e.failed == 0 {
		return nil
	}
	e.total = len(results)
	return &e
}
