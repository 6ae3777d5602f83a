package usecase

import (
	"context"
	"encoding/json"
	"time"

	"orderledger/internal/domain/model"
	repo "orderledger/internal/repository"
)

// 変更と同じトランザクションで監査ログを残す
func writeAudit(ctx context.Context, r repo.TxRepos, at model.AuditLog, before any, after any) error {
	at.BeforeJSON = toJSON(before)
	at.AfterJSON = toJSON(after)
	return r.AuditLogs().Create(ctx, at)
}

func toJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

type AuditEntryOutput struct {
	Action    string          `json:"action"`
	Before    json.RawMessage `json:"before"`
	After     json.RawMessage `json:"after"`
	CreatedAt time.Time       `json:"created_at"`
}

func toAuditEntryOutput(l model.AuditLog) AuditEntryOutput {
	out := AuditEntryOutput{Action: string(l.Action), CreatedAt: l.CreatedAt}
	if l.BeforeJSON != "" {
		out.Before = json.RawMessage(l.BeforeJSON)
	}
	if l.AfterJSON != "" {
		out.After = json.RawMessage(l.AfterJSON)
	}
	return out
}
