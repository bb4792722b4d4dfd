package scan

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dataveil/dataveil/internal/config"
	"github.com/dataveil/dataveil/internal/extract"
)

// FileScanner scans files with a size-adaptive strategy: small files are
// read whole and handed to the scan engine directly, larger files are
// extracted per format, chunked and fanned out to a worker pool scoped to
// the call.
type FileScanner struct {
	engine *Engine
	cfg    config.ScannerConfig
	logger *zap.Logger
}

// NewFileScanner creates a file scanner sharing the given engine
func NewFileScanner(engine *Engine, cfg config.ScannerConfig, logger *zap.Logger) *FileScanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileScanner{engine: engine, cfg: cfg, logger: logger}
}

// ScanFile scans the file at filePath. fileType is a MIME type or extension
// used to pick the extractor; fileName is carried into the audit event.
// Elapsed covers extraction and scanning. One aggregated scan event is
// recorded when anything was found.
func (fs *FileScanner) ScanFile(ctx context.Context, identity, filePath, fileName, fileType string) Result {
	start := time.Now()

	info, err := os.Stat(filePath)
	if err != nil {
		fs.logger.Error("Cannot stat file, returning empty result",
			zap.String("file", fileName),
			zap.Error(err),
		)
		return Result{Elapsed: time.Since(start)}
	}

	var result Result
	if info.Size()/1024 < fs.cfg.SmallFileThresholdKB {
		result = fs.scanWhole(ctx, identity, filePath, fileName, fileType)
	} else {
		result = fs.scanChunked(ctx, identity, filePath, fileName, fileType, info.Size())
	}

	result.Elapsed = time.Since(start)
	if result.Sensitive {
		fs.engine.RecordEvent(ctx, identity, ActionScan, result.Matches, fileName)
	}
	return result
}

// scanWhole reads the entire file as text, dropping invalid UTF-8, and
// delegates to a single engine scan. Skips chunk and pool overhead for
// small inputs. Binary containers cannot be read as text, so those still go
// through their extractor, at the generic chunk size, scanned sequentially.
func (fs *FileScanner) scanWhole(ctx context.Context, identity, filePath, fileName, fileType string) Result {
	if extract.NeedsExtraction(fileType) {
		return fs.scanExtracted(ctx, identity, filePath, fileName, fileType)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		fs.logger.Error("Cannot read file, returning empty result",
			zap.String("file", fileName),
			zap.Error(err),
		)
		return Result{}
	}
	text := strings.ToValidUTF8(string(data), "")
	return fs.engine.scan(ctx, identity, text, fs.cfg.MinConfidence)
}

// scanExtracted extracts a small container file and scans its chunks on the
// calling goroutine, merging in extraction order.
func (fs *FileScanner) scanExtracted(ctx context.Context, identity, filePath, fileName, fileType string) Result {
	file, err := os.Open(filePath)
	if err != nil {
		fs.logger.Error("Cannot open file, returning empty result",
			zap.String("file", fileName),
			zap.Error(err),
		)
		return Result{}
	}
	defer file.Close()

	var merged Result
	for chunk := range extract.ForType(fileType)(file, fs.cfg.ChunkSize) {
		result := fs.engine.scan(ctx, identity, chunk, fs.cfg.MinConfidence)
		merged.Sensitive = merged.Sensitive || result.Sensitive
		merged.Matches.Merge(&result.Matches)
	}
	return merged
}

// scanChunked extracts the file into an ordered chunk list and scans the
// chunks on a bounded worker pool. Chunks must be materialized up front so
// they can be fanned out; the merge happens on the calling goroutine after
// all workers have finished, so no locking is needed there.
func (fs *FileScanner) scanChunked(ctx context.Context, identity, filePath, fileName, fileType string, sizeBytes int64) Result {
	file, err := os.Open(filePath)
	if err != nil {
		fs.logger.Error("Cannot open file, returning empty result",
			zap.String("file", fileName),
			zap.Error(err),
		)
		return Result{}
	}
	defer file.Close()

	extractor := extract.ForType(fileType)
	var chunks []string
	for chunk := range extractor(file, fs.cfg.FileChunkSize) {
		chunks = append(chunks, chunk)
	}

	if len(chunks) == 0 {
		return Result{}
	}

	workers := fs.workerCount(sizeBytes)
	fs.logger.Debug("Scanning file in chunks",
		zap.String("file", fileName),
		zap.Int("chunks", len(chunks)),
		zap.Int("workers", workers),
	)

	found := make([]bool, len(chunks))
	matches := make([]MatchSet, len(chunks))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fs.scanChunk(ctx, identity, chunks[i], i, found, matches)
			}
		}()
	}

	for i := range chunks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// Merge in chunk order so literal order is reproducible regardless of
	// which worker finished first.
	var merged Result
	for i := range chunks {
		merged.Sensitive = merged.Sensitive || found[i]
		merged.Matches.Merge(&matches[i])
	}
	return merged
}

// scanChunk scans one chunk, dropping its contribution on panic so the
// remaining chunks still complete.
func (fs *FileScanner) scanChunk(ctx context.Context, identity, chunk string, i int, found []bool, matches []MatchSet) {
	defer func() {
		if r := recover(); r != nil {
			fs.logger.Error("Chunk scan failed, dropping its contribution",
				zap.Int("chunk", i),
				zap.Any("panic", r),
			)
		}
	}()

	result := fs.engine.scan(ctx, identity, chunk, fs.cfg.MinConfidence)
	found[i] = result.Sensitive
	matches[i] = result.Matches
}

// workerCount sizes the pool from the file-size buckets so pool overhead
// does not dominate on moderate files.
func (fs *FileScanner) workerCount(sizeBytes int64) int {
	sizeKB := sizeBytes / 1024
	switch {
	case sizeKB < fs.cfg.MediumFileMB*1024:
		return min(2, fs.cfg.MaxWorkers)
	case sizeKB < fs.cfg.LargeFileMB*1024:
		return min(3, fs.cfg.MaxWorkers)
	default:
		return fs.cfg.MaxWorkers
	}
}
