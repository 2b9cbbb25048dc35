// Package model はドメインモデルを定義する。
package model

import "time"

// Task はユーザーが管理するタスクを表す。
// UserIDは作成時にサーバー側で確定し、以後変更されない。
type Task struct {
	ID        string
	UserID    string
	Title     string
	Category  string
	Priority  Priority
	DueDate   *time.Time
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Priority はタスクの優先度を表す。
type Priority string

const (
	// PriorityHigh は高優先度。
	PriorityHigh Priority = "High"
	// PriorityMedium は中優先度。未指定時のデフォルト。
	PriorityMedium Priority = "Medium"
	// PriorityLow は低優先度。
	PriorityLow Priority = "Low"
)

// IsValid は定義済みの優先度かどうかを返す。
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// TaskPatch はタスクの部分更新を表す。
// nilのフィールドは変更しない。
type TaskPatch struct {
	Title     *string
	Category  *string
	Priority  *Priority
	DueDate   *time.Time
	Completed *bool
}
