package server

import (
	"fmt"
	"net/http"
	"testing"

	"atelier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagingFlow(t *testing.T) {
	ts := newTestServer(t)
	u := ts.register("ulla")
	v := ts.register("vik")
	w := ts.register("wren")

	resp := ts.do(http.MethodPost, "/api/v1/messages", u.Token, map[string]string{
		"recipient": "vik",
		"subject":   "Residency",
		"body":      "Are you applying this year?",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sent := decode[models.Message](t, resp)
	assert.Equal(t, u.ID, sent.SenderID)
	assert.Equal(t, v.ID, sent.RecipientID)
	assert.False(t, sent.IsRead)

	unread := decode[map[string]int64](t, ts.do(http.MethodGet, "/api/v1/messages/unread-count", v.Token, nil))
	assert.Equal(t, int64(1), unread["unread"])

	inbox := decode[[]models.Message](t, ts.do(http.MethodGet, "/api/v1/messages/inbox", v.Token, nil))
	require.Len(t, inbox, 1)
	assert.Equal(t, "Residency", inbox[0].Subject)

	outbox := decode[[]models.Message](t, ts.do(http.MethodGet, "/api/v1/messages/outbox", u.Token, nil))
	require.Len(t, outbox, 1)
	assert.Empty(t, decode[[]models.Message](t, ts.do(http.MethodGet, "/api/v1/messages/inbox", u.Token, nil)))

	path := fmt.Sprintf("/api/v1/messages/%d", sent.ID)
	resp = ts.do(http.MethodGet, path, w.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(http.MethodGet, path, v.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[models.Message](t, resp).IsRead)

	unread = decode[map[string]int64](t, ts.do(http.MethodGet, "/api/v1/messages/unread-count", v.Token, nil))
	assert.Equal(t, int64(0), unread["unread"])

	resp = ts.do(http.MethodPost, path+"/reply", v.Token, map[string]string{"body": "Yes, sent it today"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reply := decode[models.Message](t, resp)
	assert.Equal(t, "Re: Residency", reply.Subject)
	assert.Equal(t, u.ID, reply.RecipientID)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, sent.ID, *reply.ParentID)

	resp = ts.do(http.MethodPost, path+"/reply", w.Token, map[string]string{"body": "Me too"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSendMessage_Validation(t *testing.T) {
	ts := newTestServer(t)
	u := ts.register("ulla")
	ts.register("vik")

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"unknown recipient", map[string]string{"recipient": "ghost", "subject": "Hi", "body": "Hello"}, http.StatusBadRequest},
		{"self", map[string]string{"recipient": "ulla", "subject": "Hi", "body": "Hello"}, http.StatusBadRequest},
		{"missing subject", map[string]string{"recipient": "vik", "body": "Hello"}, http.StatusBadRequest},
		{"missing body", map[string]string{"recipient": "vik", "subject": "Hi"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(http.MethodPost, "/api/v1/messages", u.Token, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, models.CodeValidation, errorCode(t, resp))
		})
	}

	resp := ts.do(http.MethodGet, "/api/v1/messages/inbox", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(http.MethodGet, "/api/v1/messages/999", u.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSuggestRecipients(t *testing.T) {
	ts := newTestServer(t)
	u := ts.register("ulla")
	ts.register("ulrike")
	ts.register("vik")

	resp := ts.do(http.MethodGet, "/api/v1/messages/recipients?q=ul", u.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]models.AccountSummary](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "ulrike", list[0].Username)
}
