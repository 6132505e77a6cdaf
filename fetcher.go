package batchfetch

import (
	"context"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// copyBufferSize is the chunk size used to stream a body to disk
const copyBufferSize = 32 << 10

// Fetcher downloads one task into the output directory
type Fetcher struct {
	transport *Transport
	outputDir string
	logger    *log.Logger
}

// NewFetcher returns a fetcher writing into outputDir. The directory
// must already exist.
func NewFetcher(transport *Transport, outputDir string, logger *log.Logger) *Fetcher {
	return &Fetcher{
		transport: transport,
		outputDir: outputDir,
		logger:    logger,
	}
}

// Fetch downloads task and always returns an outcome. Errors and panics
// are turned into a failure outcome; on failure no file is left behind.
func (f *Fetcher) Fetch(ctx context.Context, task *Task) (outcome *Outcome) {
	logger := f.logger.WithFields(log.Fields{"url": task.URL, "index": task.Index})

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Recover from panic while fetching, panic: %v", r)
			outcome = failureOutcome(task, &FetchError{
				Category: CategoryOther,
				Detail:   fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	filePath, size, err := f.download(ctx, task)
	if err != nil {
		fetchErr := classifyError(err, f.transport.Timeout())
		logger.WithField("category", fetchErr.Category).Warnf("Download failed, reason: %s", fetchErr.Detail)
		return failureOutcome(task, fetchErr)
	}

	logger.WithFields(log.Fields{"path": filePath, "size": size}).Debug("Download finished")
	return successOutcome(task, filePath, size)
}

func (f *Fetcher) download(ctx context.Context, task *Task) (string, int64, error) {
	response, err := f.transport.Fetch(ctx, task.URL)
	if err != nil {
		return "", 0, err
	}
	defer response.Body.Close()

	out, filePath, err := CreateUnique(f.outputDir, CandidateName(task.URL, task.Index))
	if err != nil {
		return "", 0, storageError(err)
	}

	buf := make([]byte, copyBufferSize)
	_, copyErr := io.CopyBuffer(storageWriter{out}, response.Body, buf)
	closeErr := out.Close()
	if copyErr == nil && closeErr != nil {
		copyErr = storageError(closeErr)
	}
	if copyErr != nil {
		if err := os.Remove(filePath); err != nil {
			f.logger.Errorf("Fail to remove partial file %s, reason: %v", filePath, err)
		}
		return "", 0, copyErr
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return "", 0, storageError(err)
	}

	return filePath, info.Size(), nil
}

// storageWriter tags write failures so they are not mistaken for
// network errors
type storageWriter struct {
	w io.Writer
}

func (s storageWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil {
		return n, storageError(err)
	}
	return n, nil
}
