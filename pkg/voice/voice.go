// Package voice builds TwiML documents for RoutableState renders.
package voice

import (
	"errors"
	"strings"

	"github.com/aretw0/callflow/pkg/domain"
	"github.com/twilio/twilio-go/twiml"
)

// Response renders verbs into a <Response> document.
func Response(verbs ...twiml.Element) (domain.Document, error) {
	if len(verbs) == 0 {
		return domain.Document{}, errors.New("voice: response has no verbs")
	}
	xml, err := twiml.Voice(verbs)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{ContentType: domain.ContentTypeXML, Body: []byte(xml)}, nil
}

// Say speaks message.
func Say(message string) *twiml.VoiceSay {
	return &twiml.VoiceSay{Message: message}
}

// Gather collects digits and posts them to action. Nested verbs are played while waiting.
func Gather(action string, numDigits string, nested ...twiml.Element) *twiml.VoiceGather {
	return &twiml.VoiceGather{
		Action:        action,
		Method:        "POST",
		NumDigits:     numDigits,
		InnerElements: nested,
	}
}

// Redirect transfers control to another endpoint of the flow.
func Redirect(url string) *twiml.VoiceRedirect {
	return &twiml.VoiceRedirect{Url: url, Method: "POST"}
}

// Dial bridges the call to number.
func Dial(number string) *twiml.VoiceDial {
	return &twiml.VoiceDial{Number: number}
}

// Play streams an audio file.
func Play(url string) *twiml.VoicePlay {
	return &twiml.VoicePlay{Url: url}
}

// Hangup ends the call.
func Hangup() *twiml.VoiceHangup {
	return &twiml.VoiceHangup{}
}

// URL joins the request's base URL and a flow path, producing the absolute address
// carriers require for action and redirect attributes.
func URL(rc domain.RenderContext, path string) string {
	return strings.TrimRight(rc.BaseURL(), "/") + "/" + strings.TrimLeft(path, "/")
}
