package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesoria-ai/advisor-platform/internal/agent"
	"github.com/asesoria-ai/advisor-platform/internal/model"
	"github.com/asesoria-ai/advisor-platform/internal/store"
	"github.com/asesoria-ai/advisor-platform/pkg/logger"
)

type fakeGateway struct {
	response string
	err      error
	calls    int
	lastKey  string
}

func (g *fakeGateway) Ask(ctx context.Context, prompt, sessionKey string) (string, error) {
	g.calls++
	g.lastKey = sessionKey
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

type memoryBackup struct {
	saves int
	last  []*model.Conversation
	err   error
}

func (b *memoryBackup) Load() []*model.Conversation { return b.last }

func (b *memoryBackup) Save(convs []*model.Conversation) error {
	b.saves++
	if b.err != nil {
		return b.err
	}
	b.last = convs
	return nil
}

func newTestSession(t *testing.T, gw agent.Gateway) (*Session, *store.Store, *memoryBackup) {
	t.Helper()
	st := store.New(store.Options{})
	bk := &memoryBackup{}
	return NewSession(st, bk, gw, logger.NewNop()), st, bk
}

func TestBootstrapCreatesDefaultConversation(t *testing.T) {
	session, st, bk := newTestSession(t, &fakeGateway{})

	// Scenario A: empty collection bootstraps exactly one conversation
	// with the default title and one seeded greeting.
	assert.Equal(t, 1, st.Len())
	active, ok := st.Get(session.ActiveID())
	require.True(t, ok)
	assert.Equal(t, "Nueva Consulta", active.Title)
	require.Len(t, active.Messages, 1)
	assert.Equal(t, model.RoleAssistant, active.Messages[0].Role)
	assert.Equal(t, 1, bk.saves)
}

func TestBootstrapFromSeededStoreSelectsNewest(t *testing.T) {
	st := store.New(store.Options{})
	first := st.Create()
	second := st.Create()

	session := NewSession(st, &memoryBackup{}, &fakeGateway{}, logger.NewNop())

	assert.Equal(t, second.ID, session.ActiveID())
	assert.True(t, session.Select(first.ID))
	assert.Equal(t, 2, st.Len())
}

func TestSubmitHappyPath(t *testing.T) {
	gw := &fakeGateway{response: "Respuesta X"}
	session, st, bk := newTestSession(t, gw)
	savesBefore := bk.saves

	// Scenario B.
	resp, err := session.Submit(context.Background(), "¿Qué impuestos aplican al alquiler?")
	require.NoError(t, err)

	conv, ok := st.Get(session.ActiveID())
	require.True(t, ok)
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, model.RoleAssistant, conv.Messages[0].Role)
	assert.Equal(t, model.RoleUser, conv.Messages[1].Role)
	assert.Equal(t, "¿Qué impuestos aplican al alquiler?", conv.Messages[1].Content)
	assert.Equal(t, model.RoleAssistant, conv.Messages[2].Role)
	assert.Equal(t, "Respuesta X", conv.Messages[2].Content)

	assert.Equal(t, "¿Qué impuestos aplican al alqu", conv.Title)
	assert.True(t, conv.TitleLocked)
	assert.Equal(t, conv.Title, resp.Title)

	// The gateway is called exactly once, keyed by the conversation id.
	assert.Equal(t, 1, gw.calls)
	assert.Equal(t, session.ActiveID(), gw.lastKey)

	// Persistence happens exactly once per submit, after the turn.
	assert.Equal(t, savesBefore+1, bk.saves)
}

func TestSubmitDoesNotRetitleLockedConversation(t *testing.T) {
	session, st, _ := newTestSession(t, &fakeGateway{response: "ok"})

	_, err := session.Submit(context.Background(), "primera consulta")
	require.NoError(t, err)
	_, err = session.Submit(context.Background(), "segunda consulta distinta")
	require.NoError(t, err)

	conv, _ := st.Get(session.ActiveID())
	assert.Equal(t, "primera consulta", conv.Title)
	require.Len(t, conv.Messages, 5)
}

func TestSubmitAgentFailureBecomesAssistantMessage(t *testing.T) {
	gw := &fakeGateway{err: &agent.TransportError{Err: errors.New("connection refused")}}
	session, st, bk := newTestSession(t, gw)
	savesBefore := bk.saves

	// Scenario E: the failure surfaces inline, nothing escapes.
	resp, err := session.Submit(context.Background(), "hola")
	require.NoError(t, err)

	conv, _ := st.Get(session.ActiveID())
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, model.RoleAssistant, conv.Messages[2].Role)
	assert.Contains(t, conv.Messages[2].Content, "Lo siento")
	assert.Contains(t, resp.Assistant.Content, "Lo siento")
	assert.Equal(t, savesBefore+1, bk.saves)
}

func TestSubmitUpstreamFailureMessageDiffers(t *testing.T) {
	gw := &fakeGateway{err: &agent.UpstreamError{Err: errors.New("model overloaded")}}
	session, st, _ := newTestSession(t, gw)

	_, err := session.Submit(context.Background(), "hola")
	require.NoError(t, err)

	conv, _ := st.Get(session.ActiveID())
	assert.Contains(t, conv.Messages[2].Content, "devolvió un error")
}

func TestSubmitSurvivesBackupFailure(t *testing.T) {
	session, st, bk := newTestSession(t, &fakeGateway{response: "ok"})
	bk.err = errors.New("disk full")

	_, err := session.Submit(context.Background(), "hola")
	require.NoError(t, err)

	// In-memory state stays authoritative despite the failed flush.
	conv, _ := st.Get(session.ActiveID())
	require.Len(t, conv.Messages, 3)
}

func TestSelectSwitchesActive(t *testing.T) {
	session, _, _ := newTestSession(t, &fakeGateway{})
	first := session.ActiveID()
	second := session.NewConversation(context.Background())

	require.Equal(t, second.ID, session.ActiveID())
	assert.True(t, session.Select(first))
	assert.Equal(t, first, session.ActiveID())
}

func TestSelectUnknownIDIsIgnored(t *testing.T) {
	session, _, _ := newTestSession(t, &fakeGateway{})
	active := session.ActiveID()

	assert.False(t, session.Select("0195a9c0-dead-7000-8000-000000000000"))
	assert.Equal(t, active, session.ActiveID())
}

func TestDeleteActiveReassignsToNewestRemaining(t *testing.T) {
	session, st, _ := newTestSession(t, &fakeGateway{})
	first := session.ActiveID()
	second := session.NewConversation(context.Background())

	// Scenario C.
	session.Delete(context.Background(), second.ID)

	assert.Equal(t, 1, st.Len())
	assert.Equal(t, first, session.ActiveID())
}

func TestDeleteInactiveKeepsActive(t *testing.T) {
	session, st, _ := newTestSession(t, &fakeGateway{})
	first := session.ActiveID()
	second := session.NewConversation(context.Background())

	session.Delete(context.Background(), first)

	assert.Equal(t, 1, st.Len())
	assert.Equal(t, second.ID, session.ActiveID())
}

func TestDeleteLastConversationRecreates(t *testing.T) {
	session, st, bk := newTestSession(t, &fakeGateway{})
	only := session.ActiveID()

	// Scenario D.
	session.Delete(context.Background(), only)

	assert.Equal(t, 1, st.Len())
	assert.NotEqual(t, only, session.ActiveID())
	conv, ok := st.Get(session.ActiveID())
	require.True(t, ok)
	assert.Equal(t, "Nueva Consulta", conv.Title)

	// Delete persisted, then the replacement persisted again.
	assert.GreaterOrEqual(t, bk.saves, 3)
}

func TestDeleteUnknownIDIsNoOp(t *testing.T) {
	session, st, _ := newTestSession(t, &fakeGateway{})
	active := session.ActiveID()

	session.Delete(context.Background(), "0195a9c0-dead-7000-8000-000000000000")

	assert.Equal(t, 1, st.Len())
	assert.Equal(t, active, session.ActiveID())
}

func TestSearchMatchesTitles(t *testing.T) {
	session, _, _ := newTestSession(t, &fakeGateway{response: "ok"})

	_, err := session.Submit(context.Background(), "Impuestos del alquiler")
	require.NoError(t, err)
	session.NewConversation(context.Background())

	results := session.Search("alquiler")
	require.Len(t, results, 1)
	assert.Equal(t, "Impuestos del alquiler", results[0].Title)

	// Search is a pure read; everything is still there afterwards.
	assert.Len(t, session.List(), 2)
}

func TestStateIsIdleBetweenActions(t *testing.T) {
	session, _, _ := newTestSession(t, &fakeGateway{response: "ok"})

	assert.Equal(t, StateIdle, session.State())
	_, err := session.Submit(context.Background(), "hola")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, session.State())
}

func TestFlushWritesSnapshot(t *testing.T) {
	session, _, bk := newTestSession(t, &fakeGateway{})
	saves := bk.saves

	require.NoError(t, session.Flush())
	assert.Equal(t, saves+1, bk.saves)
	require.Len(t, bk.last, 1)
}
