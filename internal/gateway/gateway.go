// Package gateway wraps the generative-AI backend behind a uniform
// request/result contract. Backend failures and missing-credential
// conditions are translated into typed errors; raw backend error text
// never crosses this boundary.
package gateway

import (
	"context"
	"encoding/base64"
	"log"
	"strings"

	"google.golang.org/genai"

	"github.com/hpungsan/kinsfolk/internal/config"
	"github.com/hpungsan/kinsfolk/internal/errors"
)

// Role identifies a transcript speaker.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior exchange entry handed to the chat backend.
type Turn struct {
	Role Role
	Text string
}

// Persona is the fixed system instruction for KinBot conversations.
const Persona = "You are KinBot, a friendly family memory assistant. You help users " +
	"organize their photos, suggest caption ideas, and encourage them to share " +
	"memories with their loved ones. Keep responses warm, encouraging, and concise."

// EmptyReplyFallback is returned when the backend succeeds but produces
// no text, so the conversation never shows a blank turn.
const EmptyReplyFallback = "I'm having trouble finding the right words right now."

// Service is the AI content contract consumed by the chat and studio
// sessions.
type Service interface {
	// ChatReply submits userText against the prior transcript and returns
	// the assistant's reply text.
	ChatReply(ctx context.Context, history []Turn, userText string) (string, error)

	// GenerateImage requests one square JPEG for the prompt and returns
	// it as a displayable data URI.
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// CredentialSource yields the active backend credential.
type CredentialSource interface {
	Resolve() (string, bool)
}

// Gemini implements Service on the Google GenAI SDK. The client is built
// per call from a freshly resolved credential so a settings change takes
// effect on the very next request.
type Gemini struct {
	creds CredentialSource
	cfg   *config.Config
}

// NewGemini creates a Gemini-backed gateway.
func NewGemini(creds CredentialSource, cfg *config.Config) *Gemini {
	return &Gemini{creds: creds, cfg: cfg}
}

// ChatReply implements Service.
func (g *Gemini) ChatReply(ctx context.Context, history []Turn, userText string) (string, error) {
	client, err := g.client(ctx, "chat")
	if err != nil {
		return "", err
	}

	chatConfig := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(g.cfg.ChatTemperature)),
		SystemInstruction: genai.NewContentFromText(Persona, genai.RoleUser),
	}

	chat, err := client.Chats.Create(ctx, g.cfg.ChatModel, chatConfig, toContents(history))
	if err != nil {
		log.Printf("gateway: chat session create failed: %v", err)
		return "", errors.NewGenerationFailed("chat")
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: userText})
	if err != nil {
		log.Printf("gateway: chat send failed: %v", err)
		return "", errors.NewGenerationFailed("chat")
	}

	return replyOrFallback(resp.Text()), nil
}

// GenerateImage implements Service.
func (g *Gemini) GenerateImage(ctx context.Context, prompt string) (string, error) {
	client, err := g.client(ctx, "image")
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateImages(ctx, g.cfg.ImageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    "1:1",
	})
	if err != nil {
		log.Printf("gateway: image generation failed: %v", err)
		return "", errors.NewGenerationFailed("image")
	}

	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil ||
		len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return "", errors.NewNoImageProduced()
	}

	return DataURI("image/jpeg", resp.GeneratedImages[0].Image.ImageBytes), nil
}

// client resolves the credential and builds a backend client. The
// credential check happens before any network I/O so a missing key is
// reported instantly and distinctly.
func (g *Gemini) client(ctx context.Context, kind string) (*genai.Client, error) {
	key, ok := g.creds.Resolve()
	if !ok {
		return nil, errors.NewMissingCredential()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Printf("gateway: client init failed: %v", err)
		return nil, errors.NewGenerationFailed(kind)
	}
	return client, nil
}

// toContents maps transcript turns onto backend history entries
// (user stays user, assistant becomes the model role).
func toContents(history []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		var role genai.Role = genai.RoleUser
		if turn.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	return contents
}

// replyOrFallback substitutes the fixed fallback for empty backend text.
func replyOrFallback(text string) string {
	if strings.TrimSpace(text) == "" {
		return EmptyReplyFallback
	}
	return text
}

// DataURI inlines binary image data as a directly displayable reference.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
