package sqldb

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// ProcessedJob one committed job descriptor
type ProcessedJob struct {
	JobID       string    `gorm:"column:job_id;primaryKey;size:64"`
	CommittedAt time.Time `gorm:"column:committed_at;not null"`
	ExpiresAt   time.Time `gorm:"column:expires_at;not null;index"`
}

func (ProcessedJob) TableName() string {
	return "processed_jobs"
}

// Open opens a gorm connection for driver ("mysql" or "postgres").
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// JobLedger dedup.Ledger stored in the processed_jobs table
type JobLedger struct {
	db    *gorm.DB
	ttl   time.Duration
	lease time.Duration
	now   func() time.Time
}

// NewJobLedger migrates processed_jobs and returns a ledger over it.
// Claims expire after lease, marks after ttl.
func NewJobLedger(db *gorm.DB, ttl, lease time.Duration) (*JobLedger, error) {
	if err := db.AutoMigrate(&ProcessedJob{}); err != nil {
		return nil, fmt.Errorf("failed to migrate processed_jobs: %w", err)
	}
	return &JobLedger{db: db, ttl: ttl, lease: lease, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (l *JobLedger) Seen(ctx context.Context, jobID string) (bool, error) {
	var count int64
	result := l.db.WithContext(ctx).
		Model(&ProcessedJob{}).
		Where("job_id = ? AND expires_at > ?", jobID, l.now()).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to look up job %s: %w", jobID, result.Error)
	}
	return count > 0, nil
}

func (l *JobLedger) Mark(ctx context.Context, jobID string) error {
	now := l.now()
	row := ProcessedJob{
		JobID:       jobID,
		CommittedAt: now,
		ExpiresAt:   now.Add(l.ttl),
	}

	result := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"committed_at", "expires_at"}),
		}).
		Create(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to record job %s: %w", jobID, result.Error)
	}
	return nil
}

// Claim inserts the row unless a live one exists; the primary key decides between
// concurrent deliveries.
func (l *JobLedger) Claim(ctx context.Context, jobID string) (bool, error) {
	now := l.now()
	db := l.db.WithContext(ctx)

	// an expired row must not block the insert
	if err := db.Where("job_id = ? AND expires_at <= ?", jobID, now).Delete(&ProcessedJob{}).Error; err != nil {
		return false, fmt.Errorf("failed to clear expired job %s: %w", jobID, err)
	}

	row := ProcessedJob{
		JobID:       jobID,
		CommittedAt: now,
		ExpiresAt:   now.Add(l.lease),
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim job %s: %w", jobID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (l *JobLedger) Release(ctx context.Context, jobID string) error {
	result := l.db.WithContext(ctx).Where("job_id = ?", jobID).Delete(&ProcessedJob{})
	if result.Error != nil {
		return fmt.Errorf("failed to release job %s: %w", jobID, result.Error)
	}
	return nil
}

// Purge deletes expired rows and returns how many were removed.
func (l *JobLedger) Purge(ctx context.Context) (int64, error) {
	result := l.db.WithContext(ctx).
		Where("expires_at <= ?", l.now()).
		Delete(&ProcessedJob{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge processed_jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Close closes the underlying connection pool.
func (l *JobLedger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
