package web

import (
	"io"
	"net/http"

	"github.com/hpungsan/kinsfolk/internal/app"
	"github.com/hpungsan/kinsfolk/internal/capsule"
	"github.com/hpungsan/kinsfolk/internal/credential"
	"github.com/hpungsan/kinsfolk/internal/errors"
	"github.com/hpungsan/kinsfolk/internal/family"
	"github.com/hpungsan/kinsfolk/internal/gateway"
)

// maxUploadBytes bounds photo uploads. Photos live in memory as data
// URIs for the session, so the cap keeps a capsule from eating the heap.
const maxUploadBytes = 10 << 20

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	app      *app.App
	renderer *Renderer
}

// HandleGarden handles GET /garden — the capsule dashboard.
func (h *Handlers) HandleGarden(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "garden", GardenPageData{
		PageData: PageData{
			Title:   "Garden",
			Version: h.renderer.version,
			Nav:     "garden",
		},
		Stats:   h.app.Engine.Stats(),
		Photos:  h.app.Engine.Photos(),
		Members: h.app.Roster.Members(),
	})
}

// HandlePhotoAdd handles POST /photos — add a photo from an upload or a
// source reference.
func (h *Handlers) HandlePhotoAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid upload"))
		return
	}

	sourceRef := r.FormValue("source_ref")
	if file, header, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		if header.Size > maxUploadBytes {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("photo exceeds the 10MB upload limit"))
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInternal(err))
			return
		}
		sourceRef = dataURIForUpload(data)
	}

	_, err := h.app.Engine.AddPhoto(capsule.AddInput{
		SourceRef:   sourceRef,
		Caption:     r.FormValue("caption"),
		Contributor: r.FormValue("contributor"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/garden", http.StatusFound)
}

// HandlePhotoRemove handles POST /photos/{id}/remove.
func (h *Handlers) HandlePhotoRemove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("photo ID is required"))
		return
	}

	h.app.Engine.RemovePhoto(id)
	http.Redirect(w, r, "/garden", http.StatusFound)
}

// HandleStudio handles GET /studio — the image generation page.
func (h *Handlers) HandleStudio(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "studio", h.studioData())
}

// HandleStudioGenerate handles POST /studio/generate. Generation is
// synchronous; the failed state carries its own display text, so the
// page is re-rendered rather than routed to the error page.
func (h *Handlers) HandleStudioGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	err := h.app.Studio.Generate(r.Context(), r.FormValue("prompt"))
	if err != nil && !errors.IsGenerationFailure(err) && !errors.Is(err, errors.ErrMissingCredential) {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "studio", h.studioData())
}

// HandleStudioSave handles POST /studio/save — commit the generated
// image into the capsule.
func (h *Handlers) HandleStudioSave(w http.ResponseWriter, r *http.Request) {
	if _, err := h.app.Studio.Commit(); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/garden", http.StatusFound)
}

// HandleChat handles GET /chat — the assistant transcript.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "chat", h.chatData())
}

// HandleChatSend handles POST /chat/send. Send blocks until the reply
// or the apology lands in the transcript.
func (h *Handlers) HandleChatSend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if err := h.app.Chat.Send(r.Context(), r.FormValue("text")); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/chat", http.StatusFound)
}

// HandleFamily handles GET /family — the roster page.
func (h *Handlers) HandleFamily(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "family", FamilyPageData{
		PageData: PageData{
			Title:   "Family",
			Version: h.renderer.version,
			Nav:     "family",
		},
		Members:  h.app.Roster.Members(),
		Statuses: []family.Status{family.StatusReady, family.StatusPending, family.StatusOverdue},
	})
}

// HandleFamilyAdd handles POST /family/add.
func (h *Handlers) HandleFamilyAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if _, err := h.app.Roster.Add(r.FormValue("name")); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/family", http.StatusFound)
}

// HandleFamilyRename handles POST /family/{id}/rename.
func (h *Handlers) HandleFamilyRename(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if err := h.app.Roster.Rename(r.PathValue("id"), r.FormValue("name")); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/family", http.StatusFound)
}

// HandleFamilyRemove handles POST /family/{id}/remove. The form carries
// confirm=true from the UI's confirmation step; the roster itself never
// prompts.
func (h *Handlers) HandleFamilyRemove(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	h.app.Roster.Remove(r.PathValue("id"))
	http.Redirect(w, r, "/family", http.StatusFound)
}

// HandleFamilyStatus handles POST /family/{id}/status.
func (h *Handlers) HandleFamilyStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	status := family.Status(r.FormValue("status"))
	if err := h.app.Roster.SetStatus(r.PathValue("id"), status); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/family", http.StatusFound)
}

// HandleSettings handles GET /settings. The stored credential value is
// never rendered, only whether one exists and where it comes from.
func (h *Handlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	source := h.app.Credentials.Source()
	h.renderer.renderPage(w, r, "settings", SettingsPageData{
		PageData: PageData{
			Title:   "Settings",
			Version: h.renderer.version,
			Nav:     "settings",
		},
		Configured: source != credential.SourceNone,
		Source:     source,
	})
}

// HandleCredentialSet handles POST /settings/credential.
func (h *Handlers) HandleCredentialSet(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if err := h.app.Credentials.Set(r.FormValue("credential")); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/settings", http.StatusFound)
}

// HandleCredentialClear handles POST /settings/credential/clear.
func (h *Handlers) HandleCredentialClear(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Credentials.Clear(); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/settings", http.StatusFound)
}

// dataURIForUpload converts uploaded bytes into a displayable data URI,
// sniffing the media type from the content.
func dataURIForUpload(data []byte) string {
	return gateway.DataURI(http.DetectContentType(data), data)
}

func (h *Handlers) studioData() StudioPageData {
	return StudioPageData{
		PageData: PageData{
			Title:   "Studio",
			Version: h.renderer.version,
			Nav:     "studio",
		},
		State: h.app.Studio.State(),
	}
}

func (h *Handlers) chatData() ChatPageData {
	messages := h.app.Chat.Messages()
	rendered := make([]RenderedMessage, len(messages))
	for i, m := range messages {
		rendered[i] = RenderedMessage{Message: m, HTML: renderMarkdown(m.Text)}
	}
	return ChatPageData{
		PageData: PageData{
			Title:   "KinBot",
			Version: h.renderer.version,
			Nav:     "chat",
		},
		Messages: rendered,
		Awaiting: h.app.Chat.Awaiting(),
	}
}
