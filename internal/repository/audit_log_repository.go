package repository

import (
	"context"

	"orderledger/internal/domain/model"
)

// 監査ログの保存と、対象ごとの履歴取得
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error

	//古い順（id asc）。limit <= 0 は既定値
	ListByResource(ctx context.Context, resourceType model.AuditResourceType, resourceID int64, limit int) ([]model.AuditLog, error)
}
