package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/TetyanaPavlyuk/library-api-service/internal/notifications"
	"github.com/TetyanaPavlyuk/library-api-service/internal/users"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/logger"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/types"
)

const overdueJobName = "overdue-borrowings"

// OverdueJobParams configure the overdue borrowing sweep.
type OverdueJobParams struct {
	Logger     *logger.Logger
	Borrowings dueBorrowingReader
	Users      userDirectory
	Sender     messageSender
	Now        func() time.Time
}

type dueBorrowingReader interface {
	ListActiveDueBy(ctx context.Context, cutoff time.Time) ([]models.Borrowing, error)
}

type userDirectory interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]users.UserDTO, error)
}

type messageSender interface {
	Send(ctx context.Context, text string) error
}

type overdueJob struct {
	logg       *logger.Logger
	borrowings dueBorrowingReader
	users      userDirectory
	sender     messageSender
	now        func() time.Time
}

// NewOverdueJob builds the read-only sweep that reports borrowings due by tomorrow.
func NewOverdueJob(params OverdueJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Borrowings == nil {
		return nil, fmt.Errorf("borrowings reader required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("message sender required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &overdueJob{
		logg:       params.Logger,
		borrowings: params.Borrowings,
		users:      params.Users,
		sender:     params.Sender,
		now:        now,
	}, nil
}

func (j *overdueJob) Name() string {
	return overdueJobName
}

// Run sends one message per due borrowing. Delivery errors are collected so
// every borrowing is attempted before the job reports failure.
func (j *overdueJob) Run(ctx context.Context) error {
	cutoff := types.DateOf(j.now()).AddDate(0, 0, 1)
	due, err := j.borrowings.ListActiveDueBy(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list due borrowings: %w", err)
	}

	if len(due) == 0 {
		j.logg.Info(ctx, "no borrowings overdue")
		return j.sender.Send(ctx, notifications.NoOverdueMessage)
	}

	names := j.fullNames(ctx, due)
	var errs error
	for _, b := range due {
		msg := notifications.OverdueBorrowing(names[b.UserID], b.Titles(), b.ExpectedReturnDate, b.BorrowDate)
		if sendErr := j.sender.Send(ctx, msg); sendErr != nil {
			errs = multierr.Append(errs, fmt.Errorf("borrowing %s: %w", b.ID, sendErr))
		}
	}

	ctx = j.logg.WithFields(ctx, map[string]any{
		"due_count":    len(due),
		"failed_count": len(multierr.Errors(errs)),
	})
	j.logg.Info(ctx, "overdue borrowings reported")
	return errs
}

func (j *overdueJob) fullNames(ctx context.Context, due []models.Borrowing) map[uuid.UUID]string {
	ids := make([]uuid.UUID, 0, len(due))
	names := make(map[uuid.UUID]string, len(due))
	for _, b := range due {
		if _, ok := names[b.UserID]; ok {
			continue
		}
		names[b.UserID] = b.UserID.String()
		ids = append(ids, b.UserID)
	}

	found, err := j.users.FindByIDs(ctx, ids)
	if err != nil {
		j.logg.Warn(ctx, fmt.Sprintf("user lookup failed, reporting user ids: %v", err))
		return names
	}
	for id, user := range found {
		if user.FullName != "" {
			names[id] = user.FullName
		}
	}
	return names
}
