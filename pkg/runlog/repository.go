package runlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/conceptsync/pkg/dictionary"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrRunNotFound = errors.New("sync run not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Run{})
}

// Start records a running phase and returns it; its id doubles as the run id
// on published events.
func (r *Repository) Start(ctx context.Context, phase string, foreignID int) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Phase:     phase,
		ForeignID: foreignID,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// Finish stores the phase outcome. A non-nil runErr marks the run failed.
func (r *Repository) Finish(ctx context.Context, run *Run, stats dictionary.Stats, runErr error) error {
	failures, err := json.Marshal(stats.Failures)
	if err != nil {
		return fmt.Errorf("marshal failures: %w", err)
	}
	summary := stats
	summary.Failures = nil
	statsJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	now := time.Now().UTC()
	run.Status = StatusCompleted
	run.ErrorMessage = ""
	if runErr != nil {
		run.Status = StatusFailed
		run.ErrorMessage = runErr.Error()
	}
	run.Processed = stats.Processed
	run.Failed = stats.Failed()
	run.Stats = datatypes.JSON(statsJSON)
	run.Failures = datatypes.JSON(failures)
	run.CompletedAt = &now
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *Repository) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// Recent lists the latest runs, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
