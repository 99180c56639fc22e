package quickdb

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/illarion/quickdb/internal/storage"
	"go.uber.org/zap"
)

const (
	LogsKey         = "__quickdb_logs"
	MaxLogEntries   = 1000
	TimestampFormat = "2006-01-02T15:04:05.000Z"
)

// Level of a log entry
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ParseLevel accepts info, warn and error
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelInfo, LevelWarn, LevelError:
		return Level(s), nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// LogEntry is one record of the shared log
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     Level  `json:"level"`
	Instance  string `json:"instance"`
	Message   string `json:"message"`
}

// LogStore keeps the most recent MaxLogEntries entries as a JSON array
// in a single record of the session area.
type LogStore struct {
	mu     sync.Mutex
	area   storage.Area
	logger *zap.Logger
}

// NewLogStore creates a log store backed by area
func NewLogStore(area storage.Area, logger *zap.Logger) *LogStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogStore{area: area, logger: logger}
}

// Append adds e and drops the oldest entries beyond MaxLogEntries.
// A corrupt record is replaced.
func (s *LogStore) Append(e LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	entries = append(entries, e)
	if len(entries) > MaxLogEntries {
		entries = entries[len(entries)-MaxLogEntries:]
	}
	return s.write(entries)
}

// Entries returns the stored entries, oldest first. A corrupt record
// reads as empty.
func (s *LogStore) Entries() ([]LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Clear removes the log record
func (s *LogStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.area.Delete(storage.ReservedNamespace, LogsKey); err != nil {
		return fmt.Errorf("failed to clear logs: %w", err)
	}
	return nil
}

func (s *LogStore) read() ([]LogEntry, error) {
	raw, ok, err := s.area.Get(storage.ReservedNamespace, LogsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}
	if !ok || len(raw) == 0 {
		return []LogEntry{}, nil
	}
	var entries []LogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn("discarding corrupt log record", zap.Error(err))
		return []LogEntry{}, nil
	}
	return entries, nil
}

func (s *LogStore) write(entries []LogEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode logs: %w", err)
	}
	if err := s.area.Put(storage.ReservedNamespace, LogsKey, data); err != nil {
		return fmt.Errorf("failed to write logs: %w", err)
	}
	return nil
}
