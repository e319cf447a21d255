package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"

	"github.com/pickatale/bookrec/internal/prompts"
)

// ErrRunTimeout reports that a run did not reach a terminal status within
// the configured run timeout.
var ErrRunTimeout = errors.New("assistant run timed out")

// errRunPending signals the poll loop that the run is not terminal yet.
var errRunPending = errors.New("assistant run still in progress")

// runResult carries whatever the model supplied through recommend_books.
type runResult struct {
	summary string
	books   []Recommendation
}

// AnalyzeInterest runs the interest-analysis prompt for one reader and
// returns the recommendation summary. A run that ends failed or cancelled
// yields an empty summary and no error.
func (c *Client) AnalyzeInterest(ctx context.Context, assistantID, readingHistory string) (string, error) {
	res, err := c.drive(ctx, assistantID, prompts.InterestAnalysis(readingHistory), false)
	if err != nil {
		return "", err
	}
	return res.summary, nil
}

// SearchBooks runs the recommendation-search prompt for one reader and
// returns the recommended books, with citation markers stripped from
// titles and reasons. A run that ends failed or cancelled yields an empty
// list and no error.
func (c *Client) SearchBooks(ctx context.Context, assistantID, readingHistory string) ([]Recommendation, error) {
	res, err := c.drive(ctx, assistantID, prompts.RecommendationSearch(readingHistory), true)
	if err != nil {
		return nil, err
	}
	return res.books, nil
}

// drive opens a fresh conversation, submits the prompt, starts a run and
// polls it to a terminal status, answering the recommend_books tool call
// along the way. Threads are never reused across prompts or users.
func (c *Client) drive(ctx context.Context, assistantID, prompt string, forceFileSearch bool) (runResult, error) {
	var result runResult

	thread, err := c.api.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return result, fmt.Errorf("failed to create thread: %w", err)
	}
	c.logger.Debug("created thread", "thread_id", thread.ID)

	if _, err := c.api.Beta.Threads.Messages.New(ctx, thread.ID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(prompt),
		},
	}); err != nil {
		return result, fmt.Errorf("failed to post prompt to thread %s: %w", thread.ID, err)
	}

	runParams := openai.BetaThreadRunNewParams{AssistantID: assistantID}
	if forceFileSearch {
		runParams.ToolChoice = openai.AssistantToolChoiceOptionUnionParam{
			OfAssistantToolChoice: &openai.AssistantToolChoiceParam{
				Type: openai.AssistantToolChoiceTypeFileSearch,
			},
		}
	}
	run, err := c.api.Beta.Threads.Runs.New(ctx, thread.ID, runParams)
	if err != nil {
		return result, fmt.Errorf("failed to start run on thread %s: %w", thread.ID, err)
	}

	status, err := c.poll(ctx, thread.ID, run.ID, &result)
	if err != nil {
		return runResult{}, err
	}

	if status != openai.RunStatusCompleted {
		c.logger.Warn("assistant run did not complete", "thread_id", thread.ID, "run_id", run.ID, "status", status)
		return runResult{}, nil
	}
	return result, nil
}

// poll checks the run status at a fixed interval until a terminal status
// is observed, bounded by the configured run timeout. On requires_action
// it submits the recommend_books tool output and keeps polling.
func (c *Client) poll(ctx context.Context, threadID, runID string, result *runResult) (openai.RunStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.runTimeout)
	defer cancel()

	var terminal openai.RunStatus

	err := retry.Do(
		func() error {
			run, err := c.api.Beta.Threads.Runs.Get(ctx, threadID, runID)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to poll run %s: %w", runID, err))
			}
			c.logger.Debug("run status", "run_id", runID, "status", run.Status)

			switch run.Status {
			case openai.RunStatusCompleted, openai.RunStatusFailed,
				openai.RunStatusCancelled, openai.RunStatusExpired,
				openai.RunStatusIncomplete:
				terminal = run.Status
				return nil
			case openai.RunStatusRequiresAction:
				if err := c.submitToolOutputs(ctx, threadID, run, result); err != nil {
					return retry.Unrecoverable(err)
				}
				return errRunPending
			default:
				return errRunPending
			}
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(c.pollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w after %s (run %s)", ErrRunTimeout, c.runTimeout, runID)
		}
		return "", err
	}
	return terminal, nil
}

// submitToolOutputs answers the pending recommend_books call by echoing
// the model-supplied arguments back as the tool output. The model does
// the actual work; the tool exists to force structured results.
func (c *Client) submitToolOutputs(ctx context.Context, threadID string, run *openai.Run, result *runResult) error {
	var outputs []openai.BetaThreadRunSubmitToolOutputsParamsToolOutput

	for _, call := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
		if call.Function.Name != recommendToolName {
			continue
		}

		raw := call.Function.Arguments
		if err := validateToolArgs(raw); err != nil {
			c.logger.Warn("tool arguments do not match declared schema", "run_id", run.ID, "error", err)
		}

		var args toolArgs
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return fmt.Errorf("failed to parse %s arguments: %w", recommendToolName, err)
		}
		for i := range args.RecommendedBooks {
			args.RecommendedBooks[i].Title = StripCitations(args.RecommendedBooks[i].Title)
			args.RecommendedBooks[i].Reason = StripCitations(args.RecommendedBooks[i].Reason)
		}

		result.summary = args.RecommendationSummary
		result.books = args.RecommendedBooks

		echo, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("failed to encode %s output: %w", recommendToolName, err)
		}
		outputs = append(outputs, openai.BetaThreadRunSubmitToolOutputsParamsToolOutput{
			ToolCallID: openai.String(call.ID),
			Output:     openai.String(string(echo)),
		})
	}

	if len(outputs) == 0 {
		return fmt.Errorf("run %s requires action but has no %s call", run.ID, recommendToolName)
	}

	if _, err := c.api.Beta.Threads.Runs.SubmitToolOutputs(ctx, threadID, run.ID, openai.BetaThreadRunSubmitToolOutputsParams{
		ToolOutputs: outputs,
	}); err != nil {
		return fmt.Errorf("failed to submit tool outputs for run %s: %w", run.ID, err)
	}
	return nil
}
