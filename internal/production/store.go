package production

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SettingsStore loads and saves sealed settings.
type SettingsStore interface {
	Load() (Settings, error)
	Save(s Settings) error
}

// Format selects the on-disk encoding of a FileStore.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "yaml"
}

// FormatForPath picks the format from a file extension, YAML by default.
func FormatForPath(path string) Format {
	if filepath.Ext(path) == ".json" {
		return FormatJSON
	}
	return FormatYAML
}

// StoreOption configures a FileStore.
type StoreOption func(*FileStore)

// WithSeed seals and verifies with seed instead of StandardSeed.
func WithSeed(seed uint64) StoreOption {
	return func(s *FileStore) {
		s.seed = seed
	}
}

// WithStoreLogger replaces the no-op logger.
func WithStoreLogger(log *zap.SugaredLogger) StoreOption {
	return func(s *FileStore) {
		s.log = log
	}
}

// FileStore keeps settings in one file on an afero filesystem.
type FileStore struct {
	fs     afero.Fs
	path   string
	format Format
	seed   uint64
	log    *zap.SugaredLogger
}

// NewFileStore creates a store for path in the given format.
func NewFileStore(fs afero.Fs, path string, format Format, opts ...StoreOption) *FileStore {
	s := &FileStore{
		fs:     fs,
		path:   path,
		format: format,
		seed:   StandardSeed,
		log:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewYAMLStore creates a YAML store for path.
func NewYAMLStore(fs afero.Fs, path string, opts ...StoreOption) *FileStore {
	return NewFileStore(fs, path, FormatYAML, opts...)
}

// NewJSONStore creates a JSON store for path.
func NewJSONStore(fs afero.Fs, path string, opts ...StoreOption) *FileStore {
	return NewFileStore(fs, path, FormatJSON, opts...)
}

// Path returns the settings file path.
func (s *FileStore) Path() string { return s.path }

// Load reads and verifies the settings. A missing file yields an error
// matching os.ErrNotExist, a bad checksum one matching ErrChecksum.
func (s *FileStore) Load() (Settings, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, errors.Wrapf(os.ErrNotExist, "settings %s", s.path)
		}
		return Settings{}, errors.Wrapf(err, "read %s", s.path)
	}

	var out Settings
	switch s.format {
	case FormatJSON:
		err = json.Unmarshal(data, &out)
	default:
		err = yaml.Unmarshal(data, &out)
	}
	if err != nil {
		return Settings{}, errors.Wrapf(err, "%s unmarshal %s", s.format, s.path)
	}
	if err := out.Verify(s.seed); err != nil {
		return Settings{}, errors.Wrapf(err, "settings %s", s.path)
	}
	if err := out.Validate(); err != nil {
		return Settings{}, errors.Wrapf(err, "settings %s", s.path)
	}
	return out, nil
}

// Save seals and writes the settings.
func (s *FileStore) Save(set Settings) error {
	set.Seal(s.seed)

	var (
		data []byte
		err  error
	)
	switch s.format {
	case FormatJSON:
		data, err = json.MarshalIndent(set, "", "  ")
	default:
		data, err = yaml.Marshal(set)
	}
	if err != nil {
		return errors.Wrapf(err, "%s marshal", s.format)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "mkdir %s", dir)
		}
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", s.path)
	}
	s.log.Infof("Settings saved to %s", s.path)
	return nil
}

// LoadOrDefault loads settings from store. When they are missing or
// corrupt the defaults are saved and returned; the returned error then
// reports only a failed save.
func LoadOrDefault(store SettingsStore, log *zap.SugaredLogger) (Settings, error) {
	set, err := store.Load()
	if err == nil {
		return set, nil
	}
	if log != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Infof("No settings found, using defaults")
		} else {
			log.Warnf("Failed to load settings, using defaults: %v", err)
		}
	}
	set = DefaultSettings()
	if err := store.Save(set); err != nil {
		return set, errors.Wrap(err, "saving default settings")
	}
	return set, nil
}
