package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	api "github.com/xiaodongliang/design.automation-.net-custom.activity.sample/api/v1alpha1"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/client"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/download"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/storage"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/workitem"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/pkg/metrics"
	"go.uber.org/zap"
)

// WaitOptions are shared by the commands that wait for a work item and fetch its results.
type WaitOptions struct {
	OutputDir    string
	PollInterval time.Duration
	MaxAttempts  int
	Timeout      time.Duration
	MetricsFile  string
}

func (o *WaitOptions) bindWait(fs *pflag.FlagSet) {
	fs.StringVar(&o.OutputDir, "output-dir", o.OutputDir, "Directory results are downloaded to (default ~/Documents)")
	fs.DurationVar(&o.PollInterval, "poll-interval", o.PollInterval, "Delay before each status check (default from config, 2s)")
	fs.IntVar(&o.MaxAttempts, "max-attempts", o.MaxAttempts, "Give up after this many status checks, 0 waits forever")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "Abort the whole command after this long, 0 disables")
	fs.StringVar(&o.MetricsFile, "metrics-file", o.MetricsFile, "Write prometheus metrics to this file when the command ends")
}

func (o *WaitOptions) validateWait() error {
	if o.PollInterval < 0 || o.MaxAttempts < 0 || o.Timeout < 0 {
		return fmt.Errorf("--poll-interval, --max-attempts and --timeout must not be negative")
	}
	return nil
}

func (o *WaitOptions) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if o.Timeout > 0 {
		return context.WithTimeout(ctx, o.Timeout)
	}
	return context.WithCancel(ctx)
}

func (o *WaitOptions) writeMetrics() {
	if o.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(o.MetricsFile); err != nil {
		zap.S().Named("cli").Warnw("failed to write metrics", "file", o.MetricsFile, "error", err)
	}
}

func (o *WaitOptions) service(c workitem.API, cfg *client.Config, out io.Writer) *workitem.Service {
	interval := o.PollInterval
	if interval == 0 {
		interval = cfg.PollInterval()
	}
	maxAttempts := o.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = cfg.Poll.MaxAttempts
	}
	return workitem.NewService(c,
		workitem.WithPollInterval(interval),
		workitem.WithMaxAttempts(maxAttempts),
		workitem.WithStatusObserver(func(attempt int, status api.ExecutionStatus) {
			fmt.Fprintf(out, "WorkItem status: %s\n", status)
		}),
	)
}

func (o *WaitOptions) resultsDir(cfg *client.Config) (string, error) {
	dir := cfg.ResultsDir()
	if o.OutputDir != "" {
		dir = o.OutputDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "creating output directory %s", dir)
	}
	return dir, nil
}

func bucketFromConfig(cfg *client.Config) (*storage.Bucket, error) {
	if cfg.Storage == nil {
		return nil, nil
	}
	return storage.New(
		storage.WithEndpoint(cfg.Storage.Endpoint),
		storage.WithBucket(cfg.Storage.Bucket),
		storage.WithAccessKey(cfg.Storage.AccessKey),
		storage.WithSecretKey(cfg.Storage.SecretKey),
		storage.WithSSL(cfg.Storage.UseSSL),
	)
}

// resultTarget maps an output argument to a local file. Object is the bucket key the
// service was told to PUT to, if any.
type resultTarget struct {
	Argument string
	File     string
	Object   string
}

type resultFetcher struct {
	httpClient download.HttpRequestDoer
	bucket     *storage.Bucket
	dir        string
	out        io.Writer
}

// fetch downloads every target and then the status report. A failed work item only
// gets its report downloaded.
func (f *resultFetcher) fetch(ctx context.Context, h *workitem.Handle, outputs *workitem.Outputs, targets []resultTarget, reportFile string) error {
	if outputs.Status.Succeeded() {
		for _, t := range targets {
			if err := f.fetchOutput(ctx, outputs, t); err != nil {
				return err
			}
		}
	}

	if outputs.Report == "" {
		zap.S().Named("cli").Warnw("work item has no status report", "id", h.ID)
	} else {
		path := filepath.Join(f.dir, reportFile)
		d := download.NewHttpDownloader(outputs.Report, download.WithHTTPClient(f.httpClient))
		if err := download.ToFile(ctx, d, path); err != nil {
			return errors.Wrap(err, "downloading status report")
		}
		fmt.Fprintf(f.out, "Downloaded %s\n", path)
	}

	if !outputs.Status.Succeeded() {
		return fmt.Errorf("work item %s finished with status %s", h.ID, outputs.Status)
	}
	return nil
}

func (f *resultFetcher) fetchOutput(ctx context.Context, outputs *workitem.Outputs, t resultTarget) error {
	locator, err := outputs.Locator(t.Argument)
	if err != nil {
		return err
	}

	m := download.NewManager()
	if locator != "" {
		m.Register(download.NewHttpDownloader(locator, download.WithHTTPClient(f.httpClient)))
	}
	if f.bucket != nil && t.Object != "" {
		m.Register(f.bucket.Downloader(t.Object))
	}

	path := filepath.Join(f.dir, t.File)
	if err := m.ToFile(ctx, path); err != nil {
		return errors.Wrapf(err, "downloading output %s", t.Argument)
	}
	fmt.Fprintf(f.out, "Downloaded %s\n", path)
	return nil
}
