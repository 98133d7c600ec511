package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleUser, ParseRole("user"))
	assert.Equal(t, RoleAssistant, ParseRole("assistant"))
	assert.Equal(t, RoleAssistant, ParseRole("ai"))
	assert.Equal(t, RoleAssistant, ParseRole("USER"))
}

func TestChatRequestDecodesSingleMessage(t *testing.T) {
	body := `{"id_session":"s1","user_id":"u1","messages":{"role":"user","text":"hola"}}`

	var req ChatRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	require.Len(t, req.Messages, 1)
	assert.Equal(t, UserMessage("hola"), req.Messages[0])
	assert.Equal(t, SessionKey{UserID: "u1", SessionID: "s1"}, req.Key())
}

func TestChatRequestDecodesMessageList(t *testing.T) {
	body := `{"id_session":"s1","user_id":"u1","messages":[
		{"role":"user","text":"a"},
		{"role":"assistant","text":"b"}
	]}`

	var req ChatRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Equal(t, MessagesPayload{UserMessage("a"), AssistantMessage("b")}, req.Messages)
}

func TestChatRequestRejectsScalarMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"string", `{"messages":"hello"}`},
		{"number", `{"messages":42}`},
		{"bad element", `{"messages":[1,2]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req ChatRequest
			assert.Error(t, json.Unmarshal([]byte(tt.body), &req))
		})
	}
}

func TestChatRequestNullMessages(t *testing.T) {
	var req ChatRequest
	require.NoError(t, json.Unmarshal([]byte(`{"messages":null}`), &req))
	assert.Empty(t, req.Messages)
}

func TestChatReplyEncodesNullPDF(t *testing.T) {
	data, err := json.Marshal(ChatReply{Message: "ok"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"ok","pdf_url":null}`, string(data))
}

func TestNormalizedLegacyRole(t *testing.T) {
	msg := ChatMessage{Role: "ai", Text: "x"}.Normalized()
	assert.Equal(t, AssistantMessage("x"), msg)
}
