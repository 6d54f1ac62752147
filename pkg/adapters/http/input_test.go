package http

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/callflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInput_Form(t *testing.T) {
	body := "CallSid=CA1&Digits=3&CallStatus=in-progress&Tag=a&Tag=b"
	req := httptest.NewRequest(http.MethodPost, "/x?ignored=1", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	in, err := DecodeInput(req)
	require.NoError(t, err)

	assert.Equal(t, "CA1", in.Call.CallSid)
	assert.Equal(t, "3", in.Call.Digits)
	assert.Equal(t, "in-progress", in.Call.CallStatus)
	assert.Equal(t, []string{"a", "b"}, in.Values["Tag"])
	assert.NotContains(t, in.Values, "ignored", "query parameters are not carrier input")
}

func TestDecodeInput_JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"CallSid":"CA2","SpeechResult":"yes","Extra":{"a":1}}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	in, err := DecodeInput(req)
	require.NoError(t, err)
	assert.Equal(t, "CA2", in.Call.CallSid)
	assert.Equal(t, "yes", in.Call.SpeechResult)
	assert.Equal(t, map[string]any{"a": float64(1)}, in.Values["Extra"])
}

func TestDecodeInput_BadRequests(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"MissingCallSid", "application/x-www-form-urlencoded", "Digits=1"},
		{"EmptyJSON", "application/json", ""},
		{"MalformedJSON", "application/json", "{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)

			_, err := DecodeInput(req)
			assert.ErrorIs(t, err, domain.ErrBadRequest)
		})
	}
}

func TestNewRenderContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/x?lang=pt", nil)
	rc := NewRenderContext(req)
	assert.Equal(t, "http", rc.Protocol)
	assert.Equal(t, "example.com", rc.Host)
	assert.Equal(t, "pt", rc.Query.Get("lang"))

	req.TLS = &tls.ConnectionState{}
	assert.Equal(t, "https", NewRenderContext(req).Protocol)
}
