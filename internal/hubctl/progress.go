package hubctl

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"modelhub/pkg/types"
)

// pullWithProgress runs a pull while rendering a terminal progress bar fed
// by the daemon's NDJSON stream.
func pullWithProgress(ctx context.Context, c *apiClient, model string, out io.Writer) (string, error) {
	p := mpb.New(
		mpb.WithOutput(out),
		mpb.WithRefreshRate(180*time.Millisecond),
	)

	var mu sync.Mutex
	currentFile := ""

	bar := p.New(100,
		mpb.BarStyle().Rbound("|"),
		mpb.PrependDecorators(
			decor.Name(model+" "),
			decor.Percentage(),
		),
		mpb.AppendDecorators(
			decor.Any(func(decor.Statistics) string {
				mu.Lock()
				defer mu.Unlock()
				return " " + currentFile
			}),
		),
	)

	path, err := c.Pull(ctx, model, func(pr types.PullProgress) {
		mu.Lock()
		currentFile = pr.File
		mu.Unlock()
		bar.SetCurrent(int64(pr.Progress * 100))
	})
	if err != nil {
		bar.Abort(true)
		p.Wait()
		return "", err
	}
	bar.SetCurrent(100)
	p.Wait()
	return path, nil
}
