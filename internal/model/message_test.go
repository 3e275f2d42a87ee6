package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("system").Valid())
	assert.False(t, Role("").Valid())
}

func TestMessageValidateRejectsUnknownRole(t *testing.T) {
	assert.NoError(t, Message{Role: RoleUser, Content: "hola"}.Validate())
	assert.Error(t, Message{Role: Role("tool"), Content: "x"}.Validate())
}

func TestCloneIsIndependent(t *testing.T) {
	conv := &Conversation{
		ID:       "a",
		Title:    "original",
		Messages: []Message{{Role: RoleUser, Content: "hola"}},
	}

	clone := conv.Clone()
	clone.Title = "cambiado"
	clone.Messages[0].Content = "cambiado"

	assert.Equal(t, "original", conv.Title)
	assert.Equal(t, "hola", conv.Messages[0].Content)
}

func TestSummarizeCountsMessages(t *testing.T) {
	conv := &Conversation{
		ID:    "a",
		Title: "t",
		Messages: []Message{
			{Role: RoleAssistant, Content: "hola"},
			{Role: RoleUser, Content: "pregunta"},
		},
	}

	summary := conv.Summarize()
	assert.Equal(t, "a", summary.ID)
	assert.Equal(t, 2, summary.MessageCount)
}
