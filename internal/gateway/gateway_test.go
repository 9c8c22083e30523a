package gateway

import (
	"context"
	"testing"

	"google.golang.org/genai"

	"github.com/hpungsan/kinsfolk/internal/config"
	"github.com/hpungsan/kinsfolk/internal/errors"
)

type staticCreds struct {
	key string
	ok  bool
}

func (c staticCreds) Resolve() (string, bool) { return c.key, c.ok }

func TestChatReply_MissingCredential(t *testing.T) {
	g := NewGemini(staticCreds{}, config.DefaultConfig())

	_, err := g.ChatReply(context.Background(), nil, "hello")
	if !errors.Is(err, errors.ErrMissingCredential) {
		t.Errorf("error = %v, want MISSING_CREDENTIAL", err)
	}
}

func TestGenerateImage_MissingCredential(t *testing.T) {
	g := NewGemini(staticCreds{}, config.DefaultConfig())

	_, err := g.GenerateImage(context.Background(), "a sunset")
	if !errors.Is(err, errors.ErrMissingCredential) {
		t.Errorf("error = %v, want MISSING_CREDENTIAL", err)
	}
}

func TestToContents(t *testing.T) {
	history := []Turn{
		{Role: RoleAssistant, Text: "Hi! I'm KinBot."},
		{Role: RoleUser, Text: "Suggest a caption"},
	}

	contents := toContents(history)
	if len(contents) != 2 {
		t.Fatalf("len = %d, want 2", len(contents))
	}
	if contents[0].Role != genai.RoleModel {
		t.Errorf("assistant turn role = %q, want model", contents[0].Role)
	}
	if contents[1].Role != genai.RoleUser {
		t.Errorf("user turn role = %q, want user", contents[1].Role)
	}
	if len(contents[1].Parts) == 0 || contents[1].Parts[0].Text != "Suggest a caption" {
		t.Error("turn text not carried into content parts")
	}
}

func TestToContents_Empty(t *testing.T) {
	if got := toContents(nil); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestReplyOrFallback(t *testing.T) {
	if got := replyOrFallback("Sounds lovely!"); got != "Sounds lovely!" {
		t.Errorf("got %q", got)
	}
	if got := replyOrFallback(""); got != EmptyReplyFallback {
		t.Errorf("empty reply: got %q, want fallback", got)
	}
	if got := replyOrFallback("  \n "); got != EmptyReplyFallback {
		t.Errorf("whitespace reply: got %q, want fallback", got)
	}
}

func TestDataURI(t *testing.T) {
	uri := DataURI("image/jpeg", []byte{0xff, 0xd8, 0xff})

	want := "data:image/jpeg;base64,/9j/"
	if uri != want {
		t.Errorf("DataURI = %q, want %q", uri, want)
	}
}
