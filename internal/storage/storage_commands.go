package storage

import "slices"

// DisableCommand disables a command toggle key (e.g. "shop.buy") in a guild.
func (s *Storage) DisableCommand(guildID, key string) error {
	return s.update(guildID, func(r *Record) error {
		if !slices.Contains(r.CommandsDisabled, key) {
			r.CommandsDisabled = append(r.CommandsDisabled, key)
		}
		return nil
	})
}

func (s *Storage) EnableCommand(guildID, key string) error {
	return s.update(guildID, func(r *Record) error {
		r.CommandsDisabled = slices.DeleteFunc(r.CommandsDisabled, func(p string) bool { return p == key })
		return nil
	})
}

func (s *Storage) IsCommandDisabled(guildID, key string) (bool, error) {
	record, err := s.read(guildID)
	if err != nil {
		return false, err
	}
	return slices.Contains(record.CommandsDisabled, key), nil
}

func (s *Storage) GetDisabledCommands(guildID string) ([]string, error) {
	record, err := s.read(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandsDisabled, nil
}
