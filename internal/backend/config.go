package backend

import (
	"errors"
	"fmt"

	"expenses/internal/config"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,
		Slot: appConfig.LedgerSlot,

		DataDirectory: appConfig.DataDir,
		SQLiteDBPath:  appConfig.SQLiteDBPath,

		RedisAddress:   appConfig.RedisAddress,
		RedisPassword:  appConfig.RedisPassword,
		RedisDB:        appConfig.RedisDB,
		RedisKeyPrefix: appConfig.RedisKeyPrefix,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Slot == "" {
		return errors.New("slot name is required")
	}

	switch c.Type {
	case FileBackend:
		if c.DataDirectory == "" {
			return errors.New("data directory is required for file backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case RedisBackend:
		if c.RedisAddress == "" {
			return errors.New("Redis address is required for redis backend")
		}
	}

	return nil
}

func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, FileBackend, SQLiteBackend, RedisBackend}
}

func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return names
}
