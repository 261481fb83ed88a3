package ops

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/spinner"
)

// ImportMode controls what happens when an imported spinner ID already exists.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // abort the whole import
	ImportModeReplace ImportMode = "replace" // overwrite the existing spinner and its options
	ImportModeSkip    ImportMode = "skip"    // keep the existing spinner
)

// ImportInput contains parameters for Import.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of Import.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Replaced int           `json:"replaced"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one rejected record. Index is 1-based.
type ImportError struct {
	Index   int    `json:"index"`
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import reads an export file and merges it by spinner ID. Every record is
// validated like a create. In error mode nothing is applied unless every
// record is valid and new.
func (c *Collection) Import(input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	switch input.Mode {
	case ImportModeError, ImportModeReplace, ImportModeSkip:
	default:
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, skip")
	}

	if err := ValidatePath(input.Path, PathCheckRead, c.cfg); err != nil {
		return nil, err
	}
	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if errors.Is(err, errors.ErrFileNotFound) || errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	doc, err := decodeExport(file)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	records, out := c.checkRecords(doc.Spinners, input.Mode)
	if input.Mode == ImportModeError && len(out.Errors) > 0 {
		return out, nil
	}

	for _, r := range records {
		if i := c.indexOf(r.spinner.ID); i >= 0 {
			if input.Mode == ImportModeSkip {
				out.Skipped++
				continue
			}
			c.state.Spinners[i] = r.spinner
			c.state.Options[r.spinner.ID] = r.options
			out.Replaced++
			continue
		}
		c.state.Spinners = append(c.state.Spinners, r.spinner)
		c.state.Options[r.spinner.ID] = r.options
		out.Imported++
	}

	if out.Imported+out.Replaced > 0 {
		c.syncer.Push(c.snapshotLocked())
	}
	c.log.Info("imported spinners", "path", input.Path, "mode", string(input.Mode),
		"imported", out.Imported, "replaced", out.Replaced, "skipped", out.Skipped)
	return out, nil
}

func decodeExport(r io.Reader) (*ExportDocument, error) {
	var doc ExportDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, errors.NewInvalidRequest("import file is empty")
		}
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid YAML: %v", err))
	}
	if !doc.SpinitExport {
		return nil, errors.NewInvalidRequest("not a spinit export (missing spinit_export: true)")
	}
	return &doc, nil
}

type importRecord struct {
	spinner spinner.Spinner
	options []spinner.Option
}

// checkRecords validates every record and, in error mode, reports ID
// collisions. Invalid records are dropped and reported.
func (c *Collection) checkRecords(in []ExportSpinner, mode ImportMode) ([]importRecord, *ImportOutput) {
	out := &ImportOutput{Errors: []ImportError{}}
	seen := make(map[string]bool, len(in))
	var records []importRecord

	for n, rec := range in {
		fail := func(code, msg string) {
			out.Errors = append(out.Errors, ImportError{
				Index: n + 1, ID: rec.ID, Title: rec.Title, Code: code, Message: msg,
			})
			out.Skipped++
		}

		if rec.ID == "" {
			fail("INVALID_RECORD", "missing id field")
			continue
		}
		if seen[rec.ID] {
			fail("DUPLICATE_ID", fmt.Sprintf("spinner %q appears more than once", rec.ID))
			continue
		}
		seen[rec.ID] = true

		r, err := c.validateRecord(rec)
		if err != nil {
			fail(string(errors.As(err).Code), errors.As(err).Message)
			continue
		}
		if mode == ImportModeError && c.indexOf(rec.ID) >= 0 {
			fail("ID_COLLISION", fmt.Sprintf("spinner with id %q already exists", rec.ID))
			continue
		}
		records = append(records, r)
	}
	return records, out
}

func (c *Collection) validateRecord(rec ExportSpinner) (importRecord, error) {
	title, icon, err := spinner.ValidateSpinner(rec.Title, rec.Icon)
	if err != nil {
		return importRecord{}, err
	}
	if len(rec.Options) > c.MaxOptions() {
		return importRecord{}, errors.NewCapacityExceeded(c.MaxOptions())
	}

	options := make([]spinner.Option, 0, len(rec.Options))
	optionIDs := make(map[string]bool, len(rec.Options))
	for _, o := range rec.Options {
		name, err := spinner.ValidateOptionName(o.Name)
		if err != nil {
			return importRecord{}, err
		}
		id := o.ID
		if id == "" || optionIDs[id] {
			id = spinner.NewID()
		}
		optionIDs[id] = true
		options = append(options, spinner.Option{ID: id, Name: name})
	}

	color := rec.Color
	if color == "" {
		color = c.cfg.DefaultColor
	}
	return importRecord{
		spinner: spinner.Spinner{
			ID:           rec.ID,
			Title:        title,
			Icon:         icon,
			Color:        color,
			OptionsCount: len(options),
		},
		options: options,
	}, nil
}
