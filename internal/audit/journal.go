package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Baaaki/instagallery/pkg/logger"
	"go.uber.org/zap"
)

// Entry is one destructive action recorded in the journal
type Entry struct {
	Action    string    `json:"action"`
	ActorID   uint      `json:"actor_id"`
	TargetID  uint      `json:"target_id,omitempty"`
	Affected  int64     `json:"affected"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder is what services depend on
type Recorder interface {
	Record(entry Entry) error
}

// Journal is an append-only JSON-lines file
type Journal struct {
	filePath string
	file     *os.File
	mu       sync.Mutex
}

func NewJournal(filePath string) (*Journal, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &Journal{
		filePath: filePath,
		file:     file,
	}, nil
}

// Record appends entry and syncs it to disk before returning
func (j *Journal) Record(entry Entry) error {
	start := time.Now()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = start.UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.Write(append(data, '\n')); err != nil {
		logger.Log.Error("Audit: Failed to write entry",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
		return err
	}

	if err := j.file.Sync(); err != nil {
		logger.Log.Error("Audit: Failed to sync to disk",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("Audit: Entry recorded",
		zap.String("action", entry.Action),
		zap.Uint("actor_id", entry.ActorID),
		zap.Uint("target_id", entry.TargetID),
		zap.Int64("affected", entry.Affected),
		zap.Duration("duration", time.Since(start)),
	)

	return nil
}

// ReadAll returns every entry in write order. Corrupt lines are skipped.
func (j *Journal) ReadAll() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.Open(j.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	entries := []Entry{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// Discard drops entries. Used when no journal is configured.
type Discard struct{}

func (Discard) Record(Entry) error { return nil }
