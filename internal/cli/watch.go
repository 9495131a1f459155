package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const watchDebounce = 100 * time.Millisecond

// watchLoop calls onChange once per burst of writes to path. It returns when
// ctx is done or either channel closes.
func watchLoop(ctx context.Context, path string, events <-chan fsnotify.Event, errs <-chan error, onChange func(), onError func(error)) {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			// Editors that save by rename show up as Create.
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(watchDebounce)
			fire = timer.C

		case <-fire:
			fire = nil
			onChange()

		case err, ok := <-errs:
			if !ok {
				return
			}
			onError(err)
		}
	}
}

func newWatchCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-run a program every time it is saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r := GetRenderer(ctx)
			logger := GetLogger(ctx)

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("failed to start watcher: %w", err)
			}
			defer func() { _ = watcher.Close() }()

			// Watch the directory; the file itself may be replaced on save.
			if err := watcher.Add(filepath.Dir(path)); err != nil {
				return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
			}

			rerun := func() {
				if r.IsTTY() && !r.IsJSON() {
					r.Printf("\033[H\033[2J")
				}
				r.Header(fmt.Sprintf("%s  (%s)", filepath.Base(path), time.Now().Format(time.TimeOnly)))
				if err := runProgram(cmd, path, opts); err != nil {
					var ee *ExitError
					if !errors.As(err, &ee) || !ee.Reported {
						r.Error(err.Error())
					}
				}
			}

			rerun()
			r.Println(r.Muted("watching for changes, Ctrl+C to stop"))
			watchLoop(ctx, path, watcher.Events, watcher.Errors, rerun, func(err error) {
				logger.Error("watcher error", "error", err)
			})
			return nil
		},
	}
	addRunFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "Print every executed action")
	return cmd
}
