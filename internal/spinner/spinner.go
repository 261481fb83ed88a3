package spinner

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// MaxOptions is the most options one spinner may hold.
	MaxOptions = 15

	// DefaultColor is the background assigned to new spinners.
	DefaultColor = "#B8DCD9"

	// DefaultIcon pre-fills the icon picker.
	DefaultIcon = "🎯"
)

// Spinner is a named, iconized decision wheel.
// JSON field names match the stored collection blob.
type Spinner struct {
	// ID is a ULID assigned at creation, immutable thereafter
	ID string `json:"id" yaml:"id"`

	// Title is the non-empty display name
	Title string `json:"title" yaml:"title"`

	// Icon is a single pictographic grapheme (emoji)
	Icon string `json:"icon" yaml:"icon"`

	// OptionsCount caches len(options[ID]); derived, never a source of truth
	OptionsCount int `json:"optionsCount" yaml:"options_count"`

	// Color is assigned at creation and not user-editable
	Color string `json:"color" yaml:"color"`
}

// Option is one selectable choice on a spinner's wheel.
type Option struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new monotonic ULID string. IDs generated within the same
// millisecond still sort in creation order.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
