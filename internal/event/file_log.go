package event

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// topicごとの追記専用ログ（<dir>/<topic>.jsonl）。切り詰め・書き換えはしない
type FileLog struct {
	mu   sync.Mutex
	path string
}

func NewFileLog(dir string, topic string) *FileLog {
	return &FileLog{path: filepath.Join(dir, topic+".jsonl")}
}

func (f *FileLog) Path() string {
	return f.path
}

// 1行を1回のWriteで書く（並行出荷でも行が混ざらない）
func (f *FileLog) Append(line []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	fh, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}

	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	if _, err := fh.Write(buf); err != nil {
		_ = fh.Close()
		return fmt.Errorf("append log: %w", err)
	}
	if err := fh.Sync(); err != nil {
		_ = fh.Close()
		return fmt.Errorf("sync log: %w", err)
	}
	return fh.Close()
}
