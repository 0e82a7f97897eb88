package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSkipsWithoutCredentials(t *testing.T) {
	called := false
	m := New(Config{Host: "smtp.example.com", Port: 587}, zerolog.Nop(), WithTransport(func(context.Context, string, []string, []byte) error {
		called = true
		return nil
	}))

	delivered, err := m.Send(context.Background(), Message{To: []string{"admin@example.com"}, Subject: "x"})
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.False(t, called)
	assert.False(t, m.Configured())
}

func TestSendRequiresRecipients(t *testing.T) {
	m := New(Config{Username: "u", Password: "p"}, zerolog.Nop())
	_, err := m.Send(context.Background(), Message{Subject: "x"})
	assert.True(t, errors.Is(err, ErrNoRecipients))
}

func TestSendPropagatesTransportError(t *testing.T) {
	m := New(Config{Username: "u", Password: "p"}, zerolog.Nop(), WithTransport(func(context.Context, string, []string, []byte) error {
		return errors.New("connection refused")
	}))

	delivered, err := m.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "x"})
	require.Error(t, err)
	assert.False(t, delivered)
}

func TestSendWithAttachment(t *testing.T) {
	var gotFrom string
	var gotTo []string
	var raw []byte
	m := New(Config{Username: "bot@example.com", Password: "p"}, zerolog.Nop(), WithTransport(func(_ context.Context, from string, to []string, msg []byte) error {
		gotFrom, gotTo, raw = from, to, msg
		return nil
	}))

	delivered, err := m.Send(context.Background(), Message{
		To:      []string{"admin@example.com"},
		Subject: "Student Session AI Analysis Report",
		Body:    "See attached Excel report for details.",
		Attachments: []Attachment{{
			Filename:    "session_report_1.xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        []byte("PK\x03\x04 workbook bytes"),
		}},
	})
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Equal(t, "bot@example.com", gotFrom)
	assert.Equal(t, []string{"admin@example.com"}, gotTo)

	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, "Student Session AI Analysis Report", parsed.Header.Get("Subject"))

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(parsed.Body, params["boundary"])
	body, err := mr.NextPart()
	require.NoError(t, err)
	text, _ := io.ReadAll(body)
	assert.Equal(t, "See attached Excel report for details.", string(text))

	att, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "session_report_1.xlsx", att.FileName())
	encoded, _ := io.ReadAll(att)
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(encoded), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, "PK\x03\x04 workbook bytes", string(decoded))
}
