package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/pkg/metrics"
	"go.uber.org/zap"
)

var ErrAllDownloadersFailed = errors.New("failed to download. All downloaders failed")

type Downloader interface {
	Get(ctx context.Context, dst io.Writer) error
	Type() string
}

type Manager struct {
	downloaders []Downloader
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Register(downloader Downloader) *Manager {
	m.downloaders = append(m.downloaders, downloader)
	return m
}

// Download tries the registered downloaders in order. dst must be rewindable when more
// than one downloader is registered, since a failed attempt may have written to it.
func (m *Manager) Download(ctx context.Context, dst io.WriteSeeker) error {
	for _, downloader := range m.downloaders {
		zap.S().Named("download").Infow("downloading", "downloader_type", downloader.Type())

		if _, err := dst.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if t, ok := dst.(interface{ Truncate(int64) error }); ok {
			if err := t.Truncate(0); err != nil {
				return err
			}
		}

		if err := downloader.Get(ctx, dst); err != nil {
			zap.S().Named("download").Errorw("failed to download", "error", err, "downloader_type", downloader.Type())
			continue
		}

		return nil
	}

	return ErrAllDownloadersFailed
}

// fileCreator is replaced in tests to observe the destination handle.
var fileCreator = func(path string) (writeFile, error) {
	return os.Create(path)
}

type writeFile interface {
	io.WriteSeeker
	Sync() error
	Close() error
}

// ToFile streams d into path, creating or truncating it.
func ToFile(ctx context.Context, d Downloader, path string) error {
	return toFile(path, d.Type(), func(f writeFile) error {
		return d.Get(ctx, f)
	})
}

// ToFile runs the manager against path, creating or truncating it.
func (m *Manager) ToFile(ctx context.Context, path string) error {
	return toFile(path, "manager", func(f writeFile) error {
		return m.Download(ctx, f)
	})
}

// toFile flushes and closes the file on every path; a failed transfer may leave a
// partial file behind.
func toFile(path, downloaderType string, get func(f writeFile) error) (err error) {
	f, err := fileCreator(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		syncErr := f.Sync()
		closeErr := f.Close()
		if err == nil {
			err = errors.Join(syncErr, closeErr)
		}
	}()

	err = get(f)
	metrics.IncreaseDownloadsMetric(err)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", path, err)
	}

	zap.S().Named("download").Infow("downloaded", "path", path, "downloader_type", downloaderType)
	return nil
}

// progress wraps the destination writer to log transfer progress.
type progress struct {
	downloadedBytes atomic.Int64
	total           int64
	w               io.Writer
}

func newProgress(ctx context.Context, w io.Writer, totalBytesToDownload int64) *progress {
	p := &progress{w: w, total: totalBytesToDownload}
	go p.start(ctx)

	return p
}

func (p *progress) start(ctx context.Context) {
	oldValue := int64(0)
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			downloaded := p.downloadedBytes.Load()
			if p.total == 0 {
				zap.S().Named("download").Debugw("downloading", "progress", fmt.Sprintf("%.2f Mb", float32(downloaded)/(1024*1024)))
				continue
			}

			pct := fmt.Sprintf("%.2f%%", 100*(float32(downloaded)/float32(p.total)))
			rate := fmt.Sprintf("%.2f MB/s", (float32(downloaded)-float32(oldValue))/(1024*1024*10))
			zap.S().Named("download").Debugw("downloading", "progress", pct, "rate", rate)
			oldValue = downloaded
		}
	}
}

func (p *progress) Write(b []byte) (n int, err error) {
	n, err = p.w.Write(b)
	if err == nil {
		p.downloadedBytes.Add(int64(n))
	}
	return
}

// copyWithProgress copies src to dst and checks the byte count against total when known.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64) error {
	newCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := newProgress(newCtx, dst, total)

	if _, err := io.Copy(p, src); err != nil {
		return err
	}

	if got := p.downloadedBytes.Load(); p.total > 0 && p.total != got {
		return fmt.Errorf("failed to download the entire file. expected bytes %d received %d", p.total, got)
	}
	return nil
}
