package ghoul

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Summary counts the outcome of a directory conversion.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
}

func (s *Summary) add(o Summary) {
	s.Processed += o.Processed
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

func (c *Converter) findFiles(ctx context.Context, dir string, format Format) (<-chan string, <-chan error, error) {
	d, err := os.Open(dir)
	if err != nil {
		return nil, nil, err
	}
	defer d.Close()

	info, err := d.Stat()
	if err != nil {
		return nil, nil, err
	}

	if !info.IsDir() {
		return nil, nil, errors.New("not a directory")
	}

	files, err := d.Readdir(0)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, info := range files {
			if err := ctx.Err(); err != nil {
				errc <- err
				return
			}

			// Ignore any hidden files, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' {
				continue
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() {
				continue
			}

			if !strings.EqualFold(filepath.Ext(info.Name()), format.Ext()) {
				continue
			}

			select {
			case out <- filepath.Join(dir, info.Name()):
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()
	return out, errc, nil
}

// fileWorker converts files from in until it is drained. A failed file is
// logged and counted, only cancellation is reported as an error.
func (c *Converter) fileWorker(ctx context.Context, in <-chan string) (<-chan Summary, <-chan error) {
	out := make(chan Summary, 1)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)

		var s Summary
		defer func() {
			out <- s
		}()

		for file := range in {
			if err := ctx.Err(); err != nil {
				errc <- err
				return
			}

			switch target, err := c.ConvertFile(file); {
			case errors.Is(err, ErrExists):
				c.logger.Info().Str("file", file).Str("target", target).Msg("Target already exists, skipping")
				s.Skipped++
			case err != nil:
				// One bad file shouldn't stop the rest
				c.logger.Error().Err(err).Str("file", file).Msg("Skipped")
				s.Failed++
			default:
				s.Processed++
			}
		}
	}()
	return out, errc
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// ConvertDirectory converts every file in dir with the extension of the
// given source format. Subdirectories are not descended into.
func (c *Converter) ConvertDirectory(ctx context.Context, dir string, source Format) (Summary, error) {
	var summary Summary

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	files, errc, err := c.findFiles(ctx, dir, source)
	if err != nil {
		return summary, err
	}

	errcList := []<-chan error{errc}
	results := make([]<-chan Summary, 0, c.opts.Workers)
	for i := 0; i < c.opts.Workers; i++ {
		out, errc := c.fileWorker(ctx, files)
		results = append(results, out)
		errcList = append(errcList, errc)
	}

	if err = waitForPipeline(errcList...); err != nil {
		cancelFunc()
	}
	for _, r := range results {
		summary.add(<-r)
	}

	c.logger.Info().
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("Finished")

	return summary, err
}
