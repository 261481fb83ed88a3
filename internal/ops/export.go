package ops

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/spinner"
)

// ExportInput contains parameters for Export.
type ExportInput struct {
	Path      string // optional, default: ~/.spinit/exports/<name>-<timestamp>.yaml
	SpinnerID string // optional, export only this spinner
}

// ExportOutput contains the result of Export.
type ExportOutput struct {
	Path       string `json:"path"`
	Spinners   int    `json:"spinners"`
	Options    int    `json:"options"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportDocument is the YAML layout of an export file.
type ExportDocument struct {
	SpinitExport bool            `yaml:"spinit_export"`
	ExportedAt   int64           `yaml:"exported_at"`
	Spinners     []ExportSpinner `yaml:"spinners"`
}

// ExportSpinner is one spinner with its options nested.
type ExportSpinner struct {
	spinner.Spinner `yaml:",inline"`
	Options         []spinner.Option `yaml:"options"`
}

// Export writes spinners and its options to a YAML file. The file is
// written to a temp name and renamed into place, so an existing export is
// left intact on failure.
func (c *Collection) Export(input ExportInput) (*ExportOutput, error) {
	now := time.Now()
	state := c.Snapshot()

	name := "spinners"
	if input.SpinnerID != "" {
		var found *spinner.Spinner
		for i := range state.Spinners {
			if state.Spinners[i].ID == input.SpinnerID {
				found = &state.Spinners[i]
				break
			}
		}
		if found == nil {
			return nil, errors.NewNotFound("spinner", input.SpinnerID)
		}
		state.Spinners = []spinner.Spinner{*found}
		name = SanitizeForFilename(strings.ToLower(found.Title))
	}

	exportPath := input.Path
	if exportPath == "" {
		dir, err := DefaultExportsDir()
		if err != nil {
			return nil, err
		}
		exportPath = filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", name, now.Format("2006-01-02T150405")))
	}
	if err := ValidatePath(exportPath, PathCheckWrite, c.cfg); err != nil {
		return nil, err
	}

	doc := ExportDocument{SpinitExport: true, ExportedAt: now.Unix()}
	optionCount := 0
	for _, s := range state.Spinners {
		opts := state.Options[s.ID]
		if opts == nil {
			opts = []spinner.Option{}
		}
		optionCount += len(opts)
		doc.Spinners = append(doc.Spinners, ExportSpinner{Spinner: s, Options: opts})
	}
	if doc.Spinners == nil {
		doc.Spinners = []ExportSpinner{}
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}
	if err := writeYAMLAtomic(exportPath, doc); err != nil {
		return nil, err
	}

	c.log.Info("exported spinners", "path", exportPath, "spinners", len(doc.Spinners), "options", optionCount)
	return &ExportOutput{
		Path:       exportPath,
		Spinners:   len(doc.Spinners),
		Options:    optionCount,
		ExportedAt: doc.ExportedAt,
	}, nil
}

func writeYAMLAtomic(path string, v any) error {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	enc := yaml.NewEncoder(file)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.NewInternal(err)
	}
	if err := enc.Close(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	// Windows refuses to rename over an existing file; keep the old one.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}
