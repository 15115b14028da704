package filesystem

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"canvas-collab/core"

	"github.com/sirupsen/logrus"
)

// Canvas ids are opaque strings that may contain path separators, so
// each record is stored under the base64url form of its id.
const fileSuffix = ".json"

type fsStore struct {
	basePath string
}

// NewStore creates a new filesystem-based store.
func NewStore(basePath string) *fsStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Fatalf("failed to create base directory: %v", err)
	}
	return &fsStore{basePath: basePath}
}

func (s *fsStore) canvasPath(id string) string {
	name := base64.RawURLEncoding.EncodeToString([]byte(id)) + fileSuffix
	return filepath.Join(s.basePath, name)
}

func (s *fsStore) LoadAll(ctx context.Context) ([]core.Record, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, err
	}

	// Directory listings are unordered; sort by modification time so the
	// restored list order is at least stable across restarts.
	sort.Slice(entries, func(i, j int) bool {
		fi, erri := entries[i].Info()
		fj, errj := entries[j].Info()
		if erri != nil || errj != nil {
			return entries[i].Name() < entries[j].Name()
		}
		return fi.ModTime().Before(fj.ModTime())
	})

	recs := make([]core.Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		filePath := filepath.Join(s.basePath, entry.Name())
		data, err := os.ReadFile(filePath)
		if err != nil {
			logrus.WithField("path", filePath).WithError(err).Warn("Failed to read canvas file, skipping")
			continue
		}

		var rec core.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			logrus.WithField("path", filePath).WithError(err).Warn("Failed to unmarshal canvas file, skipping")
			continue
		}
		recs = append(recs, rec)
	}

	logrus.WithField("canvases", len(recs)).Debug("Loaded canvases from filesystem")
	return recs, nil
}

func (s *fsStore) Save(ctx context.Context, rec core.Record) error {
	filePath := s.canvasPath(rec.ID)
	log := logrus.WithFields(logrus.Fields{"canvas_id": rec.ID, "path": filePath})

	data, err := json.Marshal(rec)
	if err != nil {
		log.WithError(err).Error("Failed to marshal canvas for saving")
		return err
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write canvas file")
		return err
	}
	return nil
}
