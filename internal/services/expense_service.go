package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"spesevoce/internal/core"
	"spesevoce/internal/log"
	"spesevoce/internal/records"
	"spesevoce/internal/sheets"
)

var (
	// ErrDuplicateText rejects a transcript equal to the last accepted one or
	// to one still being processed.
	ErrDuplicateText = errors.New("transcript already processed")
	ErrEmptyText     = errors.New("empty transcript")
)

// Analyzer turns a transcript into a draft and never fails.
type Analyzer interface {
	Analyze(ctx context.Context, text string) core.Draft
}

// Recreator replaces a deleted spreadsheet.
type Recreator interface {
	Recreate(ctx context.Context) (string, error)
}

// ExpenseService runs the voice pipeline: classify, store locally, mirror.
type ExpenseService struct {
	analyzer  Analyzer
	store     *records.Store
	container Recreator
	logger    *log.Logger

	mu       sync.Mutex
	last     string
	inflight map[string]struct{}
}

// NewExpenseService wires the pipeline. container may be nil when there is
// no remote mirror.
func NewExpenseService(analyzer Analyzer, store *records.Store, container Recreator, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExpenseService{
		analyzer:  analyzer,
		store:     store,
		container: container,
		logger:    logger.WithComponent(log.ComponentPipeline),
		inflight:  make(map[string]struct{}),
	}
}

// ProcessTranscript classifies text and adds the resulting record. When the
// spreadsheet is gone it is recreated and the remote append retried once;
// the local add is never repeated. On a failed retry the stored record is
// returned together with the error.
func (s *ExpenseService) ProcessTranscript(ctx context.Context, text string) (core.Record, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return core.Record{}, ErrEmptyText
	}
	if !s.acquire(text) {
		s.logger.DebugContext(ctx, "Duplicate transcript ignored")
		return core.Record{}, ErrDuplicateText
	}
	defer s.release(text)

	start := time.Now()
	d := s.analyzer.Analyze(ctx, text)

	r, err := s.store.Add(ctx, d)
	if err == nil {
		s.logger.InfoContext(ctx, "Transcript processed",
			log.FieldRecordID, r.ID,
			log.FieldDuration, time.Since(start).Milliseconds())
		return r, nil
	}
	if !errors.Is(err, sheets.ErrContainerNotFound) || s.container == nil {
		return r, err
	}

	// Detached like the first attempt inside Add.
	rctx := context.WithoutCancel(ctx)
	s.logger.WarnContext(ctx, "Spreadsheet missing, recreating", log.FieldRecordID, r.ID)
	id, err := s.container.Recreate(rctx)
	if err != nil {
		return r, fmt.Errorf("recreate spreadsheet: %w", err)
	}
	if err := s.store.AppendRemote(rctx, r); err != nil {
		return r, fmt.Errorf("retry append to %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Record mirrored to new spreadsheet",
		log.FieldRecordID, r.ID,
		log.FieldSpreadsheetID, id)
	return r, nil
}

func (s *ExpenseService) acquire(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[text]; busy || text == s.last {
		return false
	}
	s.inflight[text] = struct{}{}
	s.last = text
	return true
}

func (s *ExpenseService) release(text string) {
	s.mu.Lock()
	delete(s.inflight, text)
	s.mu.Unlock()
}
