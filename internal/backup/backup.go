// Package backup persists the whole conversation collection as a single
// JSON snapshot. Loading is fail-open: a missing, unreadable, or
// schema-invalid file yields an empty collection so a damaged backup
// never blocks startup. Saving is fail-visible: write errors are
// returned to the caller.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/asesoria-ai/advisor-platform/internal/model"
	"github.com/asesoria-ai/advisor-platform/pkg/logger"
)

// FormatVersion is the current snapshot schema version.
const FormatVersion = 1

type document struct {
	Version       int               `json:"version"`
	Conversations map[string]record `json:"conversations"`
}

type record struct {
	Title       string          `json:"title"`
	TitleLocked bool            `json:"title_locked"`
	CreatedAt   time.Time       `json:"created_at"`
	Messages    []model.Message `json:"messages"`
}

// FileAdapter stores snapshots in a file on local disk.
type FileAdapter struct {
	path   string
	logger *logger.Logger
}

// NewFileAdapter creates an adapter writing to the given path.
func NewFileAdapter(path string, log *logger.Logger) *FileAdapter {
	return &FileAdapter{path: path, logger: log}
}

// Load reads the persisted collection. Any failure to read or validate
// the snapshot returns an empty collection; the condition is logged and
// swallowed. Insertion order is reconstructed by creation time, then id.
func (a *FileAdapter) Load() []*model.Conversation {
	data, err := os.ReadFile(a.path)
	if err != nil {
		if !os.IsNotExist(err) {
			a.logger.Warn("backup unreadable, starting empty",
				zap.String("path", a.path), zap.Error(err))
		}
		return nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		a.logger.Warn("backup malformed, starting empty",
			zap.String("path", a.path), zap.Error(err))
		return nil
	}

	convs, err := validate(&doc)
	if err != nil {
		a.logger.Warn("backup failed validation, starting empty",
			zap.String("path", a.path), zap.Error(err))
		return nil
	}

	sort.Slice(convs, func(i, j int) bool {
		if !convs[i].CreatedAt.Equal(convs[j].CreatedAt) {
			return convs[i].CreatedAt.Before(convs[j].CreatedAt)
		}
		return convs[i].ID < convs[j].ID
	})

	return convs
}

// Save writes the whole collection atomically: the snapshot goes to a
// temp file in the same directory and is renamed over the previous one,
// so a crash mid-write never leaves an unparseable file behind.
func (a *FileAdapter) Save(convs []*model.Conversation) error {
	doc := document{
		Version:       FormatVersion,
		Conversations: make(map[string]record, len(convs)),
	}
	for _, conv := range convs {
		doc.Conversations[conv.ID] = record{
			Title:       conv.Title,
			TitleLocked: conv.TitleLocked,
			CreatedAt:   conv.CreatedAt,
			Messages:    conv.Messages,
		}
	}

	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	dir := filepath.Dir(a.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(a.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp backup: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp backup: %w", err)
	}
	if err := os.Rename(tmpName, a.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace backup: %w", err)
	}
	return nil
}

func validate(doc *document) ([]*model.Conversation, error) {
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported backup version %d", doc.Version)
	}

	convs := make([]*model.Conversation, 0, len(doc.Conversations))
	for id, rec := range doc.Conversations {
		if id == "" {
			return nil, fmt.Errorf("conversation with empty id")
		}
		for _, msg := range rec.Messages {
			if err := msg.Validate(); err != nil {
				return nil, fmt.Errorf("conversation %s: %w", id, err)
			}
		}
		convs = append(convs, &model.Conversation{
			ID:          id,
			Title:       rec.Title,
			TitleLocked: rec.TitleLocked,
			CreatedAt:   rec.CreatedAt,
			Messages:    rec.Messages,
		})
	}
	return convs, nil
}
