package clientstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrFutureVersion = errors.New("stored record has a newer version")
	ErrNoMigration   = errors.New("no migration for stored version")
)

// Envelope 是写入本地存储的外层结构，Version 标识 Data 的形状。
type Envelope struct {
	Version int             `json:"v"`
	SavedAt time.Time       `json:"savedAt"`
	Data    json.RawMessage `json:"data"`
}

// Migrator 把 from 版本的数据升级到 from+1 版本。
type Migrator func(from int, data json.RawMessage) (json.RawMessage, error)

// Save 以 version 版本写入 value。
func Save(s Storage, key string, version int, value any, now time.Time) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	raw, err := json.Marshal(Envelope{Version: version, SavedAt: now.UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", key, err)
	}
	return s.Set(key, string(raw))
}

// Load 读取 key 并解码到 out，返回记录是否存在。
// 旧版本逐级调用 migrate 升级并回写；没有信封的历史数据视为版本 0。
func Load(s Storage, key string, version int, out any, migrate Migrator) (bool, error) {
	raw, ok := s.Get(key)
	if !ok || raw == "" {
		return false, nil
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	if env.Version > version {
		return false, fmt.Errorf("%w: %s v%d > v%d", ErrFutureVersion, key, env.Version, version)
	}

	if env.Version < version {
		if migrate == nil {
			return false, fmt.Errorf("%w: %s v%d", ErrNoMigration, key, env.Version)
		}
		data := env.Data
		for v := env.Version; v < version; v++ {
			data, err = migrate(v, data)
			if err != nil {
				return false, fmt.Errorf("migrate %s from v%d: %w", key, v, err)
			}
		}
		env.Version = version
		env.Data = data

		upgraded, err := json.Marshal(env)
		if err != nil {
			return false, fmt.Errorf("encode %s envelope: %w", key, err)
		}
		if err := s.Set(key, string(upgraded)); err != nil {
			return false, fmt.Errorf("write back %s: %w", key, err)
		}
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return false, fmt.Errorf("decode %s data: %w", key, err)
	}
	return true, nil
}

func decodeEnvelope(raw string) (Envelope, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err == nil {
		if _, versioned := probe["v"]; versioned {
			var env Envelope
			if err := json.Unmarshal([]byte(raw), &env); err != nil {
				return Envelope{}, err
			}
			return env, nil
		}
	}
	if !json.Valid([]byte(raw)) {
		return Envelope{}, errors.New("invalid json")
	}
	return Envelope{Version: 0, Data: json.RawMessage(raw)}, nil
}
