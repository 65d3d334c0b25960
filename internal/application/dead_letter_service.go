package application

import (
	"context"
	"fmt"

	"github.com/pos-platform/pos/internal/domain"
	"github.com/pos-platform/pos/pkg/errors"
	"github.com/pos-platform/pos/pkg/logging"
)

// DeadLetterApplicationService exposes dead-lettered messages for
// inspection and manual resolution
type DeadLetterApplicationService struct {
	repo   domain.DeadLetterRepository
	clock  domain.Clock
	logger *logging.Logger
}

// NewDeadLetterApplicationService creates a new DeadLetterApplicationService
func NewDeadLetterApplicationService(repo domain.DeadLetterRepository, clock domain.Clock, logger *logging.Logger) *DeadLetterApplicationService {
	if clock == nil {
		clock = domain.SystemClock()
	}
	return &DeadLetterApplicationService{repo: repo, clock: clock, logger: logger}
}

// ListUnresolved lists unresolved dead letter entries, oldest first
func (s *DeadLetterApplicationService) ListUnresolved(ctx context.Context, page, pageSize int64) ([]DeadLetterDTO, error) {
	pagination := domain.DefaultPagination()
	if page > 0 {
		pagination.Page = page
	}
	if pageSize > 0 {
		pagination.PageSize = pageSize
	}

	entries, err := s.repo.FindUnresolved(ctx, pagination)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list dead letters")
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}

	return ToDeadLetterDTOs(entries), nil
}

// GetEntry retrieves a dead letter entry by ID
func (s *DeadLetterApplicationService) GetEntry(ctx context.Context, entryID string) (*DeadLetterDTO, error) {
	entry, err := s.repo.FindByID(ctx, entryID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dead letter", "entryId", entryID)
		return nil, fmt.Errorf("failed to get dead letter: %w", err)
	}
	if entry == nil {
		return nil, errors.ErrNotFoundWithID("dead letter", entryID)
	}

	return ToDeadLetterDTO(entry), nil
}

// Resolve marks a dead letter entry as handled by an operator
func (s *DeadLetterApplicationService) Resolve(ctx context.Context, cmd ResolveDeadLetterCommand) (*DeadLetterDTO, error) {
	entry, err := s.repo.FindByID(ctx, cmd.EntryID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dead letter", "entryId", cmd.EntryID)
		return nil, fmt.Errorf("failed to get dead letter: %w", err)
	}
	if entry == nil {
		return nil, errors.ErrNotFoundWithID("dead letter", cmd.EntryID)
	}

	if err := entry.Resolve(cmd.ResolvedBy, s.clock.Now()); err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.repo.Save(ctx, entry); err != nil {
		s.logger.WithError(err).Error("Failed to save dead letter", "entryId", cmd.EntryID)
		return nil, fmt.Errorf("failed to save dead letter: %w", err)
	}

	s.logger.Info("Dead letter resolved",
		"entryId", cmd.EntryID,
		"resolvedBy", cmd.ResolvedBy,
		"eventType", entry.EventType,
	)

	return ToDeadLetterDTO(entry), nil
}
