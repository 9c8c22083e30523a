package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/kinsfolk/internal/capsule"
	"github.com/hpungsan/kinsfolk/internal/chat"
	"github.com/hpungsan/kinsfolk/internal/config"
	"github.com/hpungsan/kinsfolk/internal/credential"
	"github.com/hpungsan/kinsfolk/internal/db"
	"github.com/hpungsan/kinsfolk/internal/gateway"
	"github.com/hpungsan/kinsfolk/internal/studio"
)

// scriptedGateway drives both sessions without a backend.
type scriptedGateway struct {
	reply    string
	imageRef string
	chatErr  error
	imageErr error
}

func (g *scriptedGateway) ChatReply(context.Context, []gateway.Turn, string) (string, error) {
	if g.chatErr != nil {
		return "", g.chatErr
	}
	return g.reply, nil
}

func (g *scriptedGateway) GenerateImage(context.Context, string) (string, error) {
	if g.imageErr != nil {
		return "", g.imageErr
	}
	return g.imageRef, nil
}

func testApp(t *testing.T, gw gateway.Service) *App {
	t.Helper()

	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return NewWithGateway(database, config.DefaultConfig(), gw, credential.NewResolver(database))
}

func TestNew_SeedsEngagementState(t *testing.T) {
	a := testApp(t, &scriptedGateway{})

	stats := a.Engine.Stats()
	assert.Equal(t, 4, stats.Streak)
	assert.Equal(t, 0, stats.TotalPhotos)
	assert.Equal(t, 1, stats.GardenLevel)

	// Next unlock is seeded roughly two days out.
	lead := time.Until(time.Unix(stats.NextUnlockAt, 0))
	assert.Greater(t, lead, 47*time.Hour)
	assert.LessOrEqual(t, lead, 48*time.Hour)

	assert.Len(t, a.Roster.Members(), 3)
	assert.Len(t, a.Chat.Messages(), 1)
	assert.Equal(t, studio.StatusIdle, a.Studio.State().Status)
}

func TestGardenProgression(t *testing.T) {
	a := testApp(t, &scriptedGateway{})

	// Level steps: 1 photo -> 1, 2 -> 2, 5 -> 3, 8+ -> capped at 5.
	steps := []struct {
		addUpTo   int
		wantLevel int
	}{
		{1, 1},
		{2, 2},
		{5, 3},
		{8, 5},
		{12, 5},
	}

	added := 0
	for _, step := range steps {
		for added < step.addUpTo {
			_, err := a.Engine.AddPhoto(capsule.AddInput{SourceRef: "file:///p.jpg"})
			require.NoError(t, err)
			added++
		}
		stats := a.Engine.Stats()
		assert.Equal(t, added, stats.TotalPhotos)
		assert.Equal(t, step.wantLevel, stats.GardenLevel, "after %d photos", added)
	}
}

func TestStudioToCapsuleFlow(t *testing.T) {
	gw := &scriptedGateway{imageRef: "data:image/jpeg;base64,abc"}
	a := testApp(t, gw)

	require.NoError(t, a.Studio.Generate(context.Background(), "grandma's garden in spring"))

	photo, err := a.Studio.Commit()
	require.NoError(t, err)
	assert.True(t, photo.AIGenerated)
	assert.Equal(t, studio.AIContributor, photo.Contributor)

	photos := a.Engine.Photos()
	require.Len(t, photos, 1)
	assert.Equal(t, photo.ID, photos[0].ID)
	assert.Equal(t, 1, a.Engine.Stats().TotalPhotos)
}

func TestChatFlow_FailureNeverBreaksTranscript(t *testing.T) {
	gw := &scriptedGateway{reply: "Lovely!"}
	a := testApp(t, gw)

	require.NoError(t, a.Chat.Send(context.Background(), "hello"))
	require.Len(t, a.Chat.Messages(), 3)

	gw.chatErr = context.DeadlineExceeded
	require.NoError(t, a.Chat.Send(context.Background(), "are you there?"))

	messages := a.Chat.Messages()
	require.Len(t, messages, 5)
	assert.Equal(t, chat.Apology, messages[4].Text)
	assert.False(t, a.Chat.Awaiting())
}
