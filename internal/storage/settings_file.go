package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pomodoro/internal/core/model"
	"pomodoro/internal/platform"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

// fileSettings is the on-disk layout. Files ending in .toml are TOML, every
// other name is YAML.
type fileSettings struct {
	NumSessions       int    `yaml:"numSessions" toml:"numSessions"`
	SessionSeconds    int    `yaml:"sessionSeconds" toml:"sessionSeconds"`
	ShortBreakSeconds int    `yaml:"shortBreakSeconds" toml:"shortBreakSeconds"`
	LongBreakSeconds  int    `yaml:"longBreakSeconds" toml:"longBreakSeconds"`
	AudioEnabled      bool   `yaml:"audioEnabled" toml:"audioEnabled"`
	ColorA            string `yaml:"colorA" toml:"colorA"`
	ColorB            string `yaml:"colorB" toml:"colorB"`
	DevMode           bool   `yaml:"devMode" toml:"devMode"`
}

// SettingsPath returns the settings file location for the application.
func SettingsPath(appName string) (string, error) {
	configDir, err := platform.ConfigDir(appName)
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, settingsFileName), nil
}

// LoadRaw reads the settings file as an untyped payload. A missing or empty
// file yields a nil payload.
func LoadRaw(path string) (map[string]any, error) {
	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	payload, err := decodeSettings(path, rawData)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, nil
	}
	return payload, nil
}

// LoadSettings reads and normalizes the settings file.
func LoadSettings(path string, onError func(error)) (model.Settings, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return model.DefaultSettings(), err
	}
	return model.NormalizeSettings(raw, onError), nil
}

// SaveSettings writes settings as YAML or TOML depending on the file name. The file is replaced in one rename
// so watchers never observe a half-written document.
func SaveSettings(path string, settings model.Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fileData := fileSettings{
		NumSessions:       settings.NumSessions,
		SessionSeconds:    settings.SessionSeconds,
		ShortBreakSeconds: settings.ShortBreakSeconds,
		LongBreakSeconds:  settings.LongBreakSeconds,
		AudioEnabled:      settings.AudioEnabled,
		ColorA:            settings.ColorA,
		ColorB:            settings.ColorB,
		DevMode:           settings.DevMode,
	}

	serialized, err := encodeSettings(path, fileData)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(serialized); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close settings file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func decodeSettings(path string, data []byte) (map[string]any, error) {
	var payload map[string]any
	if isTOML(path) {
		if err := toml.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("parse settings toml: %w", err)
		}
		return payload, nil
	}
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse settings yaml: %w", err)
	}
	return payload, nil
}

func encodeSettings(path string, fileData fileSettings) ([]byte, error) {
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(fileData); err != nil {
			return nil, fmt.Errorf("marshal settings toml: %w", err)
		}
		return buf.Bytes(), nil
	}
	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return nil, fmt.Errorf("marshal settings yaml: %w", err)
	}
	return serialized, nil
}
