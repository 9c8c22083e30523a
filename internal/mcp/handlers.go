package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/kinsfolk/internal/app"
	"github.com/hpungsan/kinsfolk/internal/capsule"
	"github.com/hpungsan/kinsfolk/internal/credential"
	"github.com/hpungsan/kinsfolk/internal/errors"
	"github.com/hpungsan/kinsfolk/internal/family"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	app *app.App
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(a *app.App) *Handlers {
	return &Handlers{app: a}
}

// Request types for each tool

// PhotoAddRequest represents the arguments for photo_add.
type PhotoAddRequest struct {
	SourceRef   string `json:"source_ref"`
	Caption     string `json:"caption,omitempty"`
	Contributor string `json:"contributor,omitempty"`
	AIGenerated bool   `json:"ai_generated,omitempty"`
}

// PhotoRemoveRequest represents the arguments for photo_remove.
type PhotoRemoveRequest struct {
	ID string `json:"id"`
}

// FamilyAddRequest represents the arguments for family_add.
type FamilyAddRequest struct {
	Name string `json:"name"`
}

// FamilyRenameRequest represents the arguments for family_rename.
type FamilyRenameRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FamilyRemoveRequest represents the arguments for family_remove.
type FamilyRemoveRequest struct {
	ID      string `json:"id"`
	Confirm bool   `json:"confirm,omitempty"`
}

// FamilySetStatusRequest represents the arguments for family_set_status.
type FamilySetStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Handler implementations

// HandleGardenStats handles the garden_stats tool call.
func (h *Handlers) HandleGardenStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.app.Engine.Stats())
}

// HandlePhotoList handles the photo_list tool call.
func (h *Handlers) HandlePhotoList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	photos := h.app.Engine.Photos()
	return successResult(map[string]any{
		"photos": photos,
		"count":  len(photos),
	})
}

// HandlePhotoAdd handles the photo_add tool call.
func (h *Handlers) HandlePhotoAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PhotoAddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	photo, err := h.app.Engine.AddPhoto(capsule.AddInput{
		SourceRef:   input.SourceRef,
		Caption:     input.Caption,
		Contributor: input.Contributor,
		AIGenerated: input.AIGenerated,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"photo": photo,
		"stats": h.app.Engine.Stats(),
	})
}

// HandlePhotoRemove handles the photo_remove tool call.
func (h *Handlers) HandlePhotoRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PhotoRemoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	h.app.Engine.RemovePhoto(input.ID)
	return successResult(map[string]any{
		"removed": input.ID,
		"stats":   h.app.Engine.Stats(),
	})
}

// HandleFamilyList handles the family_list tool call.
func (h *Handlers) HandleFamilyList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	members := h.app.Roster.Members()
	return successResult(map[string]any{
		"members": members,
		"count":   len(members),
	})
}

// HandleFamilyAdd handles the family_add tool call.
func (h *Handlers) HandleFamilyAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FamilyAddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	member, err := h.app.Roster.Add(input.Name)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"member": member})
}

// HandleFamilyRename handles the family_rename tool call.
func (h *Handlers) HandleFamilyRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FamilyRenameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.app.Roster.Rename(input.ID, input.Name); err != nil {
		return errorResult(err), nil
	}

	member, ok := h.app.Roster.Get(input.ID)
	return successResult(map[string]any{"member": member, "found": ok})
}

// HandleFamilyRemove handles the family_remove tool call.
// The roster itself never prompts; confirmation is the caller's duty and
// is enforced here so an agent cannot remove a member by accident.
func (h *Handlers) HandleFamilyRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FamilyRemoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}
	if !input.Confirm {
		return errorResult(errors.NewInvalidRequest("removal requires confirm=true")), nil
	}

	h.app.Roster.Remove(input.ID)
	return successResult(map[string]any{"removed": input.ID})
}

// HandleFamilySetStatus handles the family_set_status tool call.
func (h *Handlers) HandleFamilySetStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FamilySetStatusRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	status := family.Status(input.Status)
	if !status.Valid() {
		return errorResult(errors.NewInvalidRequest("status must be one of: ready, pending, overdue")), nil
	}

	if err := h.app.Roster.SetStatus(input.ID, status); err != nil {
		return errorResult(err), nil
	}

	member, _ := h.app.Roster.Get(input.ID)
	return successResult(map[string]any{"member": member})
}

// HandleCredentialStatus handles the credential_status tool call. The
// credential value itself is never included in the response.
func (h *Handlers) HandleCredentialStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := h.app.Credentials.Source()
	return successResult(map[string]any{
		"configured": source != credential.SourceNone,
		"source":     source,
	})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if kinErr, ok := err.(*errors.KinError); ok {
		errorObj := map[string]any{
			"code":    kinErr.Code,
			"message": kinErr.Message,
			"status":  kinErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or backend errors
		if kinErr.Code != errors.ErrInternal && kinErr.Details != nil {
			errorObj["details"] = kinErr.Details
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
