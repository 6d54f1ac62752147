package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/aretw0/callflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// DecodeInput reads a carrier webhook body. Form-encoded and JSON bodies are accepted.
// A request without CallSid is a bad request.
func DecodeInput(r *http.Request) (domain.Input, error) {
	values, err := readValues(r)
	if err != nil {
		return domain.Input{}, fmt.Errorf("%w: %w", domain.ErrBadRequest, err)
	}
	if err := sanitizeValues(values); err != nil {
		return domain.Input{}, fmt.Errorf("%w: %w", domain.ErrBadRequest, err)
	}

	var call domain.CallParams
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &call,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return domain.Input{}, err
	}
	if err := decoder.Decode(scalars(values)); err != nil {
		return domain.Input{}, fmt.Errorf("%w: %w", domain.ErrBadRequest, err)
	}
	if call.CallSid == "" {
		return domain.Input{}, fmt.Errorf("%w: missing CallSid", domain.ErrBadRequest)
	}

	return domain.Input{Values: values, Call: call}, nil
}

func readValues(r *http.Request) (map[string]any, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/json" {
		values := make(map[string]any)
		err := json.NewDecoder(r.Body).Decode(&values)
		if errors.Is(err, io.EOF) {
			return values, nil
		}
		if err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		return values, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form body: %w", err)
	}
	values := make(map[string]any, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) == 1 {
			values[k] = v[0]
		} else {
			values[k] = v
		}
	}
	return values, nil
}

// scalars keeps the first element of repeated fields so they decode into string fields.
func scalars(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if list, ok := v.([]string); ok && len(list) > 0 {
			v = list[0]
		}
		out[k] = v
	}
	return out
}

// NewRenderContext extracts the request facts a render may need.
// Forwarded headers set by a reverse proxy take precedence.
func NewRenderContext(r *http.Request) domain.RenderContext {
	proto := "http"
	if r.TLS != nil {
		proto = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		proto = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}

	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}

	return domain.RenderContext{
		Protocol: proto,
		Host:     host,
		Query:    r.URL.Query(),
	}
}
