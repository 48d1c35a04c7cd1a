package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/fileparse/internal/config"
	"github.com/JonMunkholm/fileparse/internal/csvparse"
	"github.com/JonMunkholm/fileparse/internal/logging"
	"github.com/JonMunkholm/fileparse/internal/logsummary"
	"github.com/JonMunkholm/fileparse/internal/textio"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoInput is returned when a request carries no reader at all.
	ErrNoInput = errors.New("no file provided")

	// ErrEmptyInput is returned for zero-byte CSV input.
	ErrEmptyInput = errors.New("empty file")
)

// ContextCheckInterval is how many reads pass between context checks while
// consuming request input.
var ContextCheckInterval = 16

// Service runs parse and summary jobs under the configured limits.
// It holds no per-job state; every call produces an independent result.
type Service struct {
	cfg     *config.Config
	limiter *Limiter
	now     func() time.Time
}

// NewService creates a service from cfg.
func NewService(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("core: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}

	return &Service{
		cfg:     cfg,
		limiter: NewLimiter(cfg.Limits.MaxConcurrent, cfg.Limits.MaxWaitTime),
		now:     time.Now,
	}, nil
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// LimiterStatus returns the current job slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForJobs blocks until all running jobs finish or ctx ends.
func (s *Service) WaitForJobs(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// ParseCSV reads r and parses it as CSV.
func (s *Service) ParseCSV(ctx context.Context, name string, r io.Reader, opts ParseOptions) (*ParseResult, error) {
	if r == nil {
		return nil, ErrNoInput
	}

	var result *ParseResult
	err := s.run(ctx, "csv_parse", name, func(ctx context.Context, id string) error {
		data, err := s.readInput(ctx, r)
		if err != nil {
			return err
		}

		table, err := csvparse.ParseWith(string(data), csvparse.Options{Delimiter: s.delimiter(opts)})
		if err != nil {
			return emptyInput(err, len(data))
		}

		result = s.parseResult(id, name, int64(len(data)), table)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LoadCSVFile reads and parses the CSV file at path.
func (s *Service) LoadCSVFile(ctx context.Context, path string, opts ParseOptions) (*ParseResult, error) {
	var result *ParseResult
	err := s.run(ctx, "csv_load", path, func(ctx context.Context, id string) error {
		data, err := s.readFile(ctx, path)
		if err != nil {
			return err
		}
		content := string(data)

		table, err := csvparse.ParseWith(content, csvparse.Options{Delimiter: s.delimiter(opts)})
		if err != nil {
			return emptyInput(err, len(content))
		}

		result = s.parseResult(id, path, int64(len(content)), table)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SummariseLog reads r and summarises it as a log.
func (s *Service) SummariseLog(ctx context.Context, name string, r io.Reader) (*SummaryResult, error) {
	if r == nil {
		return nil, ErrNoInput
	}

	var result *SummaryResult
	err := s.run(ctx, "log_summary", name, func(ctx context.Context, id string) error {
		data, err := s.readInput(ctx, r)
		if err != nil {
			return err
		}

		result = s.summaryResult(id, name, int64(len(data)), logsummary.SummariseText(string(data)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SummariseFile summarises the log file at path.
func (s *Service) SummariseFile(ctx context.Context, path string) (*SummaryResult, error) {
	var result *SummaryResult
	err := s.run(ctx, "log_file", path, func(ctx context.Context, id string) error {
		data, err := s.readFile(ctx, path)
		if err != nil {
			return err
		}
		content := string(data)

		result = s.summaryResult(id, path, int64(len(content)), logsummary.SummariseText(content))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SummariseFiles summarises every path, at most Limits.Parallelism at a
// time. Results are in input order. The first failure cancels the rest and
// is returned.
func (s *Service) SummariseFiles(ctx context.Context, paths []string) ([]*SummaryResult, error) {
	results := make([]*SummaryResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Limits.Parallelism)

	for i, path := range paths {
		g.Go(func() error {
			res, err := s.SummariseFile(gctx, path)
			if err != nil {
				return fmt.Errorf("summarising %s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// run executes fn under a job slot and the job timeout, logging the outcome.
func (s *Service) run(ctx context.Context, kind, name string, fn func(ctx context.Context, id string) error) error {
	id := uuid.NewString()
	logger := logging.WithFields(ctx, "job_id", id, "kind", kind, "name", name)

	if err := s.limiter.Acquire(ctx); err != nil {
		logger.Warn("job rejected", "error", err)
		return err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Limits.Timeout)
	defer cancel()

	start := s.now()
	logger.Debug("job started")

	if err := fn(ctx, id); err != nil {
		logger.Warn("job failed",
			"error", err,
			"code", MapError(err).Code,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}

	logger.Info("job completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// readInput reads r fully as validated UTF-8 within the size limit,
// honouring ctx between reads.
func (s *Service) readInput(ctx context.Context, r io.Reader) ([]byte, error) {
	return textio.ReadAllLimited(textio.Wrap(&ctxReader{ctx: ctx, r: r}, 0), s.cfg.Limits.MaxFileSize)
}

// readFile reads the file at path the same way readInput reads a request
// body, so the job context is honoured during the read.
func (s *Service) readFile(ctx context.Context, path string) ([]byte, error) {
	f, size, err := textio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := textio.ReadAllLimited(textio.Wrap(&ctxReader{ctx: ctx, r: f}, size), s.cfg.Limits.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// emptyInput marks a format error on zero-byte input as ErrEmptyInput.
func emptyInput(err error, size int) error {
	var fe *csvparse.FormatError
	if size == 0 && errors.As(err, &fe) {
		return fmt.Errorf("%w: %w", ErrEmptyInput, err)
	}
	return err
}

func (s *Service) delimiter(opts ParseOptions) string {
	if opts.Delimiter != "" {
		return opts.Delimiter
	}
	return s.cfg.Parse.Delimiter
}

func (s *Service) parseResult(id, name string, size int64, table csvparse.Table) *ParseResult {
	rows := table.Rows
	if rows == nil {
		rows = []csvparse.Row{}
	}
	return &ParseResult{
		ID:          id,
		Name:        name,
		Bytes:       size,
		Header:      table.Header,
		RowCount:    len(rows),
		Rows:        rows,
		CompletedAt: s.now(),
	}
}

func (s *Service) summaryResult(id, name string, size int64, sum logsummary.Summary) *SummaryResult {
	return &SummaryResult{
		ID:          id,
		Name:        name,
		Bytes:       size,
		Summary:     sum,
		CompletedAt: s.now(),
	}
}

// ctxReader fails with ctx.Err() once ctx ends, checking every
// ContextCheckInterval reads.
type ctxReader struct {
	ctx   context.Context
	r     io.Reader
	reads int
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if c.reads%ContextCheckInterval == 0 {
		if err := c.ctx.Err(); err != nil {
			return 0, err
		}
	}
	c.reads++
	return c.r.Read(p)
}
