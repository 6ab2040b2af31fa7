// Package store persists finished generation jobs for later retrieval.
// Backed by GORM with a pure-Go sqlite driver so the binary stays cgo-free.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/socialforge/types"
)

// ErrNotFound 表示任务不存在
var ErrNotFound = errors.New("job not found")

// JobRecord 是任务历史表的行模型。Content 与 Attempts 以 JSON 存储，
// 查询维度只有 job_id 与 schema，不需要展开成列。
type JobRecord struct {
	ID           uint   `gorm:"primaryKey"`
	JobID        string `gorm:"uniqueIndex;size:64"`
	Schema       string `gorm:"index;size:64"`
	Status       string `gorm:"size:32"`
	Content      string
	Attempts     string
	ErrorHistory string
	CreatedAt    time.Time
}

// Store 任务历史存储
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open 打开（或创建）sqlite 历史库并完成迁移。path 传 ":memory:"
// 时使用内存库，主要供测试使用。
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open job store %s: %w", path, err)
	}
	if err := db.AutoMigrate(&JobRecord{}); err != nil {
		return nil, fmt.Errorf("migrate job store: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With(zap.String("component", "store")),
	}, nil
}

// SaveResult 持久化一个终态任务结果
func (s *Store) SaveResult(ctx context.Context, result *types.JobResult) error {
	content, err := json.Marshal(result.Content)
	if err != nil {
		return fmt.Errorf("marshal content: %w", err)
	}
	attempts, err := json.Marshal(result.Attempts)
	if err != nil {
		return fmt.Errorf("marshal attempts: %w", err)
	}
	history, err := json.Marshal(result.ErrorHistory)
	if err != nil {
		return fmt.Errorf("marshal error history: %w", err)
	}

	record := JobRecord{
		JobID:        result.JobID,
		Schema:       result.Schema,
		Status:       string(result.Status),
		Content:      string(content),
		Attempts:     string(attempts),
		ErrorHistory: string(history),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("save job %s: %w", result.JobID, err)
	}
	return nil
}

// GetResult 按任务 ID 取回历史结果
func (s *Store) GetResult(ctx context.Context, jobID string) (*types.JobResult, error) {
	var record JobRecord
	err := s.db.WithContext(ctx).Where("job_id = ?", jobID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	return record.toResult()
}

// ListRecent 返回最近 limit 个任务，按入库时间倒序。
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*types.JobResult, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []JobRecord
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	results := make([]*types.JobResult, 0, len(records))
	for _, record := range records {
		result, err := record.toResult()
		if err != nil {
			s.logger.Warn("skipping corrupt job record",
				zap.String("job_id", record.JobID), zap.Error(err))
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// Close 关闭底层连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r JobRecord) toResult() (*types.JobResult, error) {
	result := &types.JobResult{
		JobID:  r.JobID,
		Schema: r.Schema,
		Status: types.JobStatus(r.Status),
	}
	if err := json.Unmarshal([]byte(r.Content), &result.Content); err != nil {
		return nil, fmt.Errorf("unmarshal content: %w", err)
	}
	if err := json.Unmarshal([]byte(r.Attempts), &result.Attempts); err != nil {
		return nil, fmt.Errorf("unmarshal attempts: %w", err)
	}
	if err := json.Unmarshal([]byte(r.ErrorHistory), &result.ErrorHistory); err != nil {
		return nil, fmt.Errorf("unmarshal error history: %w", err)
	}
	return result, nil
}
