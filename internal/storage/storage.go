// Package storage keeps per-guild bot records in the JSON datastore.
package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/handler-bot/datastore"
)

const commandHistoryLimit int = 20

// DirectGuild is the record key used for messages sent outside a guild.
const DirectGuild = "@direct"

type Storage struct {
	ds *datastore.DataStore
	// mu serializes read-modify-write cycles on guild records.
	mu sync.Mutex
}

type CommandHistoryRecord struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Command   string    `json:"command"`
	Param     string    `json:"param"`
	Result    string    `json:"result"`
	Datetime  time.Time `json:"datetime"`
}

type Record struct {
	CommandsHistory  []CommandHistoryRecord `json:"cmd_history"`
	CommandsDisabled []string               `json:"cmd_disabled"`
}

// New opens the datastore at filePath.
func New(filePath string, logger zerolog.Logger) (*Storage, error) {
	cfg := datastore.DefaultConfig(filePath)
	cfg.Logger = logger.With().Str("component", "datastore").Logger()
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

func guildKey(guildID string) string {
	if guildID == "" {
		return DirectGuild
	}
	return guildID
}

// getOrCreateGuildRecord must be called with s.mu held.
func (s *Storage) getOrCreateGuildRecord(guildID string) (*Record, error) {
	var record Record
	if _, err := s.ds.Get(guildKey(guildID), &record); err != nil {
		return nil, fmt.Errorf("read guild %s: %w", guildID, err)
	}
	if len(record.CommandsHistory) > commandHistoryLimit {
		record.CommandsHistory = record.CommandsHistory[len(record.CommandsHistory)-commandHistoryLimit:]
	}
	return &record, nil
}

func (s *Storage) update(guildID string, fn func(*Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}
	if err := fn(record); err != nil {
		return err
	}
	return s.ds.Put(guildKey(guildID), record)
}

func (s *Storage) read(guildID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateGuildRecord(guildID)
}

// AppendCommandToHistory appends a command history record for a guild,
// keeping the newest entries only.
func (s *Storage) AppendCommandToHistory(guildID string, command CommandHistoryRecord) error {
	return s.update(guildID, func(r *Record) error {
		r.CommandsHistory = append(r.CommandsHistory, command)
		if len(r.CommandsHistory) > commandHistoryLimit {
			r.CommandsHistory = r.CommandsHistory[len(r.CommandsHistory)-commandHistoryLimit:]
		}
		return nil
	})
}

// FetchCommandHistory returns the history of a guild, oldest first.
func (s *Storage) FetchCommandHistory(guildID string) ([]CommandHistoryRecord, error) {
	record, err := s.read(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandsHistory, nil
}

// Guilds returns the keys of every stored guild record.
func (s *Storage) Guilds() []string {
	return s.ds.Keys()
}
