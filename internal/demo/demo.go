// Package demo is a small IVR used by the CLI: a main menu that routes callers to an
// opening-hours message, a transfer to an operator, or a goodbye.
package demo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aretw0/callflow/pkg/domain"
	"github.com/aretw0/callflow/pkg/voice"
)

// MaxAttempts is the number of invalid menu choices before the call is ended.
const MaxAttempts = 3

// Session field keys.
const (
	FieldAttempts = "attempts"
	FieldChoice   = "choice"
)

// Options customizes the demo flow.
type Options struct {
	Greeting       string
	Hours          string
	OperatorNumber string
	HoldMusic      string
}

func (o Options) withDefaults() Options {
	if o.Greeting == "" {
		o.Greeting = "Thanks for calling."
	}
	if o.Hours == "" {
		o.Hours = "We are open Monday to Friday, nine to five."
	}
	if o.OperatorNumber == "" {
		o.OperatorNumber = "+15005550006"
	}
	return o
}

// New returns the demo states in declaration order.
func New(opts Options) []any {
	opts = opts.withDefaults()

	goodbye := &Goodbye{}
	hours := &Hours{Message: opts.Hours}
	transfer := &Transfer{Number: opts.OperatorNumber, HoldMusic: opts.HoldMusic}
	welcome := &Welcome{Greeting: opts.Greeting}
	menu := &Menu{Welcome: welcome, Hours: hours, Transfer: transfer, Goodbye: goodbye}

	return []any{welcome, menu, hours, transfer, goodbye}
}

// Welcome greets the caller and gathers one digit for the menu.
type Welcome struct {
	Greeting string
}

func (*Welcome) Name() string { return "welcome" }
func (*Welcome) URI() string  { return "/voice" }

func (w *Welcome) Render(_ context.Context, rc domain.RenderContext, data domain.SessionData, _ domain.AssetResolver, _ *domain.Input) (domain.Document, error) {
	prompt := "For opening hours, press 1. To speak to an operator, press 2. To hang up, press 9."
	intro := w.Greeting
	if Attempts(data) > 0 {
		intro = "Sorry, that is not a valid option."
	}
	return voice.Response(
		voice.Gather(voice.URL(rc, "/menu/next"), "1", voice.Say(intro+" "+prompt)),
		voice.Redirect(voice.URL(rc, "/voice")),
	)
}

// Menu consumes the gathered digit.
type Menu struct {
	Welcome  *Welcome
	Hours    *Hours
	Transfer *Transfer
	Goodbye  *Goodbye
}

func (*Menu) Name() string                 { return "menu" }
func (*Menu) ProcessTransitionURI() string { return "/menu/next" }

func (m *Menu) TransitionOut(_ context.Context, data domain.SessionData, input domain.Input) (domain.SessionData, domain.UsableState, error) {
	digits := input.Call.Digits
	if digits == "" {
		digits = input.String("Digits")
	}

	switch digits {
	case "1":
		return data.With(FieldChoice, "hours").With(FieldAttempts, 0), m.Hours, nil
	case "2":
		return data.With(FieldChoice, "operator").With(FieldAttempts, 0), m.Transfer, nil
	case "9":
		return data.With(FieldChoice, "hangup"), m.Goodbye, nil
	}

	attempts := Attempts(data) + 1
	data = data.With(FieldAttempts, attempts)
	if attempts >= MaxAttempts {
		return data, m.Goodbye, nil
	}
	return data, m.Welcome, nil
}

// Hours reads the opening hours and returns to the menu.
type Hours struct {
	Message string
}

func (*Hours) Name() string { return "hours" }
func (*Hours) URI() string  { return "/hours" }

func (h *Hours) Render(_ context.Context, rc domain.RenderContext, _ domain.SessionData, _ domain.AssetResolver, _ *domain.Input) (domain.Document, error) {
	return voice.Response(
		voice.Say(h.Message),
		voice.Redirect(voice.URL(rc, "/voice")),
	)
}

// Transfer dials the operator.
type Transfer struct {
	Number    string
	HoldMusic string
}

func (*Transfer) Name() string { return "transfer" }
func (*Transfer) URI() string  { return "/transfer" }

func (t *Transfer) Render(_ context.Context, _ domain.RenderContext, _ domain.SessionData, assets domain.AssetResolver, _ *domain.Input) (domain.Document, error) {
	if t.Number == "" {
		return domain.Document{}, errors.New("transfer: no operator number configured")
	}
	if t.HoldMusic != "" {
		return voice.Response(voice.Play(assets(t.HoldMusic)), voice.Dial(t.Number))
	}
	return voice.Response(voice.Say("Connecting you to an operator."), voice.Dial(t.Number))
}

// Goodbye ends the call.
type Goodbye struct{}

func (*Goodbye) Name() string { return "goodbye" }
func (*Goodbye) URI() string  { return "/goodbye" }

func (*Goodbye) Render(_ context.Context, _ domain.RenderContext, _ domain.SessionData, _ domain.AssetResolver, _ *domain.Input) (domain.Document, error) {
	return voice.Response(voice.Say("Goodbye."), voice.Hangup())
}

// Attempts reads the invalid-choice counter. Persistent stores hand numbers back as float64.
func Attempts(data domain.SessionData) int {
	switch v := data.Fields[FieldAttempts].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}
