package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/spinit/internal/config"
	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/ops"
	"github.com/hpungsan/spinit/internal/session"
	"github.com/hpungsan/spinit/internal/wheel"
)

// revealPoll is how often a waiting spinner_spin checks for the reveal.
const revealPoll = 50 * time.Millisecond

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	coll     *ops.Collection
	sessions *session.Manager
	cfg      *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(coll *ops.Collection, sessions *session.Manager, cfg *config.Config) *Handlers {
	if cfg == nil {
		cfg = coll.Config()
	}
	return &Handlers{coll: coll, sessions: sessions, cfg: cfg}
}

// Request types for each tool

// SpinnerRequest represents the arguments for spinner_create and spinner_update.
type SpinnerRequest struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
}

// SpinnerRef identifies a spinner by ID.
type SpinnerRef struct {
	ID string `json:"id"`
}

// SpinRequest represents the arguments for spinner_spin.
type SpinRequest struct {
	ID   string `json:"id"`
	Wait bool   `json:"wait,omitempty"`
}

// OptionRequest represents the arguments for the option_* tools.
type OptionRequest struct {
	SpinnerID string `json:"spinner_id"`
	OptionID  string `json:"option_id,omitempty"`
	Name      string `json:"name,omitempty"`
}

// ExportRequest represents the arguments for spinner_export.
type ExportRequest struct {
	Path      string `json:"path,omitempty"`
	SpinnerID string `json:"spinner_id,omitempty"`
}

// ImportRequest represents the arguments for spinner_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// SpinOutput is the spinner_spin result. State is "spinning" unless Wait
// was requested, in which case the call returns after the reveal.
type SpinOutput struct {
	wheel.Result
	State wheel.State `json:"state"`
}

// Handler implementations

// HandleSpinnerCreate handles the spinner_create tool call.
func (h *Handlers) HandleSpinnerCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SpinnerRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.coll.CreateSpinner(ctx, input.Title, input.Icon)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSpinnerUpdate handles the spinner_update tool call.
func (h *Handlers) HandleSpinnerUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SpinnerRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	result, err := h.coll.UpdateSpinner(ctx, input.ID, input.Title, input.Icon)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSpinnerDelete handles the spinner_delete tool call. An open wheel
// for the spinner is stopped first.
func (h *Handlers) HandleSpinnerDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SpinnerRef](req)
	if err != nil {
		return errorResult(err), nil
	}

	h.sessions.Back(input.ID)
	if err := h.coll.DeleteSpinner(ctx, input.ID); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"deleted": true, "id": input.ID})
}

// HandleSpinnerList handles the spinner_list tool call.
func (h *Handlers) HandleSpinnerList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spinners := h.coll.ListSpinners()
	return successResult(map[string]any{
		"spinners": spinners,
		"total":    len(spinners),
	})
}

// HandleSpinnerLayout handles the spinner_layout tool call.
func (h *Handlers) HandleSpinnerLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SpinnerRef](req)
	if err != nil {
		return errorResult(err), nil
	}

	options, err := h.coll.ListOptions(input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"options":  options,
		"geometry": wheel.Layout(len(options)),
	})
}

// HandleSpinnerSpin handles the spinner_spin tool call.
func (h *Handlers) HandleSpinnerSpin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SpinRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	sess, err := h.sessions.Open(input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	res, err := sess.Spin()
	if err != nil {
		return errorResult(err), nil
	}

	out := SpinOutput{Result: res, State: wheel.Spinning}
	if !input.Wait {
		return successResult(out)
	}

	state, err := waitForReveal(ctx, sess)
	if err != nil {
		return errorResult(err), nil
	}
	out.State = state
	return successResult(out)
}

// waitForReveal polls the session until the spin it started has settled.
func waitForReveal(ctx context.Context, sess *session.Session) (wheel.State, error) {
	ticker := time.NewTicker(revealPoll)
	defer ticker.Stop()
	for {
		if state := sess.Snapshot().State; state != wheel.Spinning {
			return state, nil
		}
		select {
		case <-ctx.Done():
			return wheel.Spinning, errors.NewInvalidRequest("cancelled while waiting for the wheel: " + ctx.Err().Error())
		case <-ticker.C:
		}
	}
}

// HandleSpinnerExport handles the spinner_export tool call.
func (h *Handlers) HandleSpinnerExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.coll.Export(ops.ExportInput{
		Path:      input.Path,
		SpinnerID: input.SpinnerID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSpinnerImport handles the spinner_import tool call.
func (h *Handlers) HandleSpinnerImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.coll.Import(ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleOptionAdd handles the option_add tool call.
func (h *Handlers) HandleOptionAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[OptionRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.coll.AddOption(ctx, input.SpinnerID, input.Name)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleOptionUpdate handles the option_update tool call.
func (h *Handlers) HandleOptionUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[OptionRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.coll.UpdateOption(ctx, input.SpinnerID, input.OptionID, input.Name)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleOptionDelete handles the option_delete tool call.
func (h *Handlers) HandleOptionDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[OptionRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	if err := h.coll.DeleteOption(ctx, input.SpinnerID, input.OptionID); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"deleted": true, "id": input.OptionID})
}

// HandleOptionList handles the option_list tool call.
func (h *Handlers) HandleOptionList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[OptionRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	options, err := h.coll.ListOptions(input.SpinnerID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"options": options,
		"total":   len(options),
		"max":     h.coll.MaxOptions(),
	})
}


// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var sErr *errors.SpinitError
	if stderrors.As(err, &sErr) {
		msg := sErr.Message
		if err != error(sErr) {
			msg = err.Error()
		}
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": msg,
			"status":  sErr.Status,
		}
		if sErr.Code != errors.ErrInternal && sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
