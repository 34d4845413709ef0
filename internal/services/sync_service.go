package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spesevoce/internal/log"
	"spesevoce/internal/records"
	"spesevoce/internal/sheets"
)

// ErrSyncDisabled is returned when no remote spreadsheet is configured.
var ErrSyncDisabled = errors.New("remote sync is disabled")

// SyncService runs the user-initiated bulk transfers between the local
// store and the spreadsheet. Unlike per-record appends, every remote error
// is returned.
type SyncService struct {
	remote    sheets.Sync
	store     *records.Store
	container Recreator
	logger    *log.Logger
}

// NewSyncService returns a service; a nil remote makes every call fail with
// ErrSyncDisabled.
func NewSyncService(remote sheets.Sync, store *records.Store, container Recreator, logger *log.Logger) *SyncService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SyncService{
		remote:    remote,
		store:     store,
		container: container,
		logger:    logger.WithComponent(log.ComponentSheets),
	}
}

// Upload replaces the remote data with the local records and returns how
// many were written. A missing spreadsheet is recreated once.
func (s *SyncService) Upload(ctx context.Context) (int, error) {
	if s.remote == nil {
		return 0, ErrSyncDisabled
	}
	ctx = context.WithoutCancel(ctx)
	local := s.store.Records()
	start := time.Now()

	err := s.remote.UploadAll(ctx, local)
	if errors.Is(err, sheets.ErrContainerNotFound) && s.container != nil {
		s.logger.WarnContext(ctx, "Spreadsheet missing, recreating before upload")
		if _, rerr := s.container.Recreate(ctx); rerr != nil {
			return 0, fmt.Errorf("recreate spreadsheet: %w", rerr)
		}
		err = s.remote.UploadAll(ctx, local)
	}
	if err != nil {
		return 0, fmt.Errorf("upload: %w", err)
	}

	s.logger.InfoContext(ctx, "Records uploaded",
		log.FieldOperation, log.OpUpload,
		log.FieldCount, len(local),
		log.FieldDuration, time.Since(start).Milliseconds())
	return len(local), nil
}

// Download replaces the local records with the remote ones. With the grid
// layout the remote side only holds per-cell totals, so the result is one
// aggregate record per non-empty cell.
func (s *SyncService) Download(ctx context.Context) (int, error) {
	if s.remote == nil {
		return 0, ErrSyncDisabled
	}
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	remote, err := s.remote.DownloadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("download: %w", err)
	}
	s.store.ReplaceAll(ctx, remote)

	s.logger.InfoContext(ctx, "Records downloaded",
		log.FieldOperation, log.OpDownload,
		log.FieldCount, len(remote),
		"layout", s.remote.Layout(),
		log.FieldDuration, time.Since(start).Milliseconds())
	return len(remote), nil
}
