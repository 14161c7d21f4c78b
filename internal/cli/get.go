package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ytget/ryt/internal/events"
	"github.com/ytget/ryt/internal/model"
	"github.com/ytget/ryt/internal/progress"
)

func newGetCmd(opts *rootOptions) *cobra.Command {
	var retryPrompt bool

	cmd := &cobra.Command{
		Use:   "get <url>...",
		Short: "Download one or more URLs",
		Long: `Download URLs one at a time. Each successful download is recorded in
the library. A failed download can be retried in place when prompted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("retry-prompt") {
				retryPrompt = isTerminal(cmd.InOrStdin())
			}

			ui := progress.New(cmd.ErrOrStderr(), isTerminal(cmd.ErrOrStderr()))
			a, err := opts.newApp(cmd, ui.Writer())
			if err != nil {
				ui.Close()
				return err
			}

			jobEvents := a.bus.Subscribe(events.EventJobUpdated)
			watchDone := make(chan struct{})
			go func() {
				defer close(watchDone)
				ui.Watch(cmd.Context(), jobEvents)
			}()

			var failed int
			runErr := a.run(cmd.Context(), func(ctx context.Context) error {
				if err := a.store.Init(ctx); err != nil {
					return fmt.Errorf("init library: %w", err)
				}
				// Without history the downloads can still run and be recorded.
				if err := a.manager.Refresh(ctx); err != nil {
					a.logger.Warn().Err(err).Msg("library history unavailable")
				}

				ask := newPrompter(cmd.InOrStdin(), ui.Writer())
				n, err := submitAll(ctx, a, args, retryPrompt, ask)
				failed = n
				return err
			})

			// Unsubscribing closes the channel; the watcher drains it and exits.
			a.bus.UnsubscribeAll(jobEvents)
			<-watchDone
			a.logger.Debug().
				Int("completed", ui.Completed()).
				Int("failed_attempts", ui.Failed()).
				Int64("dropped_events", a.bus.GetDroppedEventCount()).
				Msg("get finished")
			a.close()
			ui.Close()

			if runErr != nil {
				return runErr
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d downloads failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&retryPrompt, "retry-prompt", false, "Offer to retry failed downloads (default: on when stdin is a terminal)")
	return cmd
}

// submitAll submits urls in order and returns how many ended in error.
func submitAll(ctx context.Context, a *app, urls []string, retryPrompt bool, ask *prompter) (int, error) {
	failed := 0
	for _, url := range urls {
		id, err := a.manager.Submit(ctx, url)
		if err != nil {
			return failed, err
		}
		if id == 0 {
			continue
		}

		for retryPrompt {
			job, ok := a.manager.Job(id)
			if !ok || !job.Status.CanRetry() {
				break
			}
			yes, err := ask.confirm(fmt.Sprintf("Retry %s?", job.URL))
			if err != nil {
				return failed, err
			}
			if !yes {
				break
			}
			if err := a.manager.Retry(ctx, id); err != nil {
				return failed, err
			}
		}

		if job, ok := a.manager.Job(id); ok && job.Status == model.JobStatusError {
			failed++
		}
	}
	return failed, nil
}
