package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePrompt(t *testing.T) {
	assert.NoError(t, ValidatePrompt("¿Qué impuestos aplican al alquiler?"))
	assert.Error(t, ValidatePrompt(""))
	assert.Error(t, ValidatePrompt("   \n\t"))
	assert.Error(t, ValidatePrompt(strings.Repeat("a", 100001)))
	assert.Error(t, ValidatePrompt(string([]byte{0xff, 0xfe})))
}

func TestValidateConversationID(t *testing.T) {
	assert.NoError(t, ValidateConversationID("0195a9c0-0000-7000-8000-000000000001"))
	assert.Error(t, ValidateConversationID("not-a-uuid"))
	assert.Error(t, ValidateConversationID(""))
}

func TestValidateSearchQuery(t *testing.T) {
	assert.NoError(t, ValidateSearchQuery("alquiler"))
	assert.NoError(t, ValidateSearchQuery(""))
	assert.Error(t, ValidateSearchQuery(strings.Repeat("q", 257)))
}
