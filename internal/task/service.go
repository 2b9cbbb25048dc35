// Package task はタスク管理のドメインロジックを提供する。
// 全ての個別タスク操作は所有者チェックを通過した場合のみ実行される。
package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/repository"
)

// Metrics はタスク操作のメトリクス記録インターフェース。
// nilを渡した場合は記録をスキップする。
type Metrics interface {
	RecordTaskCreated()
	RecordTaskDeleted()
	RecordOwnershipDenied()
}

// Service はタスク管理のサービス層。
type Service struct {
	taskRepo repository.TaskRepository
	metrics  Metrics
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilでもよい。
func NewService(taskRepo repository.TaskRepository, metrics Metrics) *Service {
	return &Service{
		taskRepo: taskRepo,
		metrics:  metrics,
	}
}

// CreateInput はタスク作成の入力を表す。
// 所有者は呼び出し元の認証済みユーザーIDからサーバー側で確定するため、
// 入力には含めない。
type CreateInput struct {
	Title    string
	Category string
	Priority model.Priority
	DueDate  *time.Time
}

// List は指定ユーザーが所有するタスク一覧を返す。
// クエリは常に所有者IDでスコープされ、カテゴリ・優先度の
// 等値フィルタをANDで追加できる。
func (s *Service) List(ctx context.Context, userID string, filter repository.TaskFilter) ([]*model.Task, error) {
	if filter.Priority != nil && !filter.Priority.IsValid() {
		return nil, model.NewValidationError(fmt.Sprintf("無効な優先度です: %s", *filter.Priority))
	}

	tasks, err := s.taskRepo.ListByUserID(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return tasks, nil
}

// Get は指定IDのタスクを所有者チェック付きで取得する。
func (s *Service) Get(ctx context.Context, userID, taskID string) (*model.Task, error) {
	return s.authorize(ctx, userID, taskID)
}

// Create はタスクを作成する。
// タイトルは必須。優先度の未指定時はMediumを適用する。
// 所有者は常にuserIDに確定し、クライアント入力からは受け取らない。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, model.NewValidationError("タイトルを入力してください")
	}

	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, model.NewValidationError(fmt.Sprintf("無効な優先度です: %s", priority))
	}

	now := time.Now()
	task := &model.Task{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Category:  strings.TrimSpace(input.Category),
		Priority:  priority,
		DueDate:   input.DueDate,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordTaskCreated()
	}

	return task, nil
}

// Update はタスクを所有者チェック付きで部分更新する。
// patchのnilフィールドは変更しない。所有者は変更できない。
func (s *Service) Update(ctx context.Context, userID, taskID string, patch model.TaskPatch) (*model.Task, error) {
	task, err := s.authorize(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, model.NewValidationError("タイトルを入力してください")
		}
		task.Title = title
	}
	if patch.Category != nil {
		task.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Priority != nil {
		if !patch.Priority.IsValid() {
			return nil, model.NewValidationError(fmt.Sprintf("無効な優先度です: %s", *patch.Priority))
		}
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	task.UpdatedAt = time.Now()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}

	return task, nil
}

// Delete はタスクを所有者チェック付きで削除し、削除したタスクのIDを返す。
func (s *Service) Delete(ctx context.Context, userID, taskID string) (string, error) {
	task, err := s.authorize(ctx, userID, taskID)
	if err != nil {
		return "", err
	}

	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		return "", fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordTaskDeleted()
	}

	return task.ID, nil
}

// authorize はタスクを取得し所有者を確認する。
// タスク未存在の確認を所有者比較より先に行い、存在有無以上の情報を漏らさない。
// 所有者不一致の場合はFORBIDDENを返す。
func (s *Service) authorize(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	if task.UserID != userID {
		if s.metrics != nil {
			s.metrics.RecordOwnershipDenied()
		}
		return nil, model.NewForbiddenError()
	}
	return task, nil
}
