package domain

import (
	"fmt"
	"net/url"
)

// CallParams are the well-known fields a carrier sends with every voice webhook.
type CallParams struct {
	CallSid      string `json:"call_sid,omitempty" mapstructure:"CallSid"`
	AccountSid   string `json:"account_sid,omitempty" mapstructure:"AccountSid"`
	From         string `json:"from,omitempty" mapstructure:"From"`
	To           string `json:"to,omitempty" mapstructure:"To"`
	CallStatus   string `json:"call_status,omitempty" mapstructure:"CallStatus"`
	Direction    string `json:"direction,omitempty" mapstructure:"Direction"`
	Digits       string `json:"digits,omitempty" mapstructure:"Digits"`
	SpeechResult string `json:"speech_result,omitempty" mapstructure:"SpeechResult"`
}

// Terminal reports whether CallStatus means the call is over.
func (p CallParams) Terminal() bool {
	switch p.CallStatus {
	case CallCompleted, CallBusy, CallFailed, CallNoAnswer, CallCanceled:
		return true
	}
	return false
}

// Input is the raw payload of a single carrier request.
type Input struct {
	// Values holds every field of the request body as received.
	Values map[string]any

	// Call is the typed view of the well-known carrier fields in Values.
	Call CallParams
}

// String returns Values[key] formatted as a string, or "" if absent.
func (in Input) String(key string) string {
	v, ok := in.Values[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// RenderContext carries the read-only request facts a rendering may need.
type RenderContext struct {
	Protocol string
	Host     string
	Query    url.Values
}

// BaseURL returns protocol://host.
func (rc RenderContext) BaseURL() string {
	return rc.Protocol + "://" + rc.Host
}

// AssetResolver maps a static asset path to the URL the carrier should fetch.
type AssetResolver func(path string) string

// Document is a rendered markup response.
type Document struct {
	ContentType string
	Body        []byte
}
