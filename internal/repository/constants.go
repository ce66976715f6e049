package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jmehdipour/ratebook/internal/model"
	"go.uber.org/zap"
)

// ConstantsFile stores the enumerations in data_constants.json.
type ConstantsFile struct {
	path string
	log  *zap.Logger
}

func NewConstantsFile(path string, log *zap.Logger) *ConstantsFile {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConstantsFile{path: path, log: log}
}

func (f *ConstantsFile) Path() string { return f.path }

// Load returns the stored constants, or the defaults when the file is missing or unreadable.
func (f *ConstantsFile) Load() model.Constants {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.log.Warn("constants file unreadable, using defaults", zap.String("path", f.path), zap.Error(err))
		}
		return model.DefaultConstants()
	}
	var c model.Constants
	if err := json.Unmarshal(b, &c); err != nil {
		f.log.Warn("constants file malformed, using defaults", zap.String("path", f.path), zap.Error(err))
		return model.DefaultConstants()
	}
	return c
}

func (f *ConstantsFile) Save(c model.Constants) error {
	b, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("encode constants: %w", err)
	}
	return writeFileAtomic(f.path, append(b, '\n'))
}

// Add appends value to list and persists it. It reports false when the value was already known.
func (f *ConstantsFile) Add(list model.ConstantList, value string) (bool, error) {
	value = model.NormalizeCode(value)
	c := f.Load()
	if !c.Add(list, value) {
		return false, nil
	}
	if err := f.Save(c); err != nil {
		return false, err
	}
	f.log.Info("constant added", zap.String("list", list.String()), zap.String("value", value))
	return true, nil
}
