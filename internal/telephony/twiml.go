package telephony

import (
	"errors"
	"fmt"
	"strings"

	"hotline-platform/internal/playback"

	"github.com/twilio/twilio-go/twiml"
)

// ErrEncodingFault means a plan could not be rendered as TwiML.
var ErrEncodingFault = errors.New("telephony: twiml encoding failed")

// fallbackTwiML is served when a plan cannot be encoded. It is a constant so that
// producing it cannot fail.
const fallbackTwiML = `<?xml version="1.0" encoding="UTF-8"?>` +
	`<Response><Say voice="alice" language="en-US">` + playback.MsgProcessingError + `</Say><Hangup/></Response>`

// FallbackTwiML returns the minimal apology document.
func FallbackTwiML() string { return fallbackTwiML }

// Encode renders a plan as a TwiML voice response.
//
// Speak and Decline become <Say>, Play becomes one <Play> per URL, and the
// document always ends with exactly one <Hangup/>, wherever the plan put its hangup.
// Encode is pure; it performs no I/O.
func Encode(plan playback.Plan) (string, error) {
	if len(plan.Actions) == 0 {
		return "", fmt.Errorf("%w: empty plan", ErrEncodingFault)
	}

	verbs := make([]twiml.Element, 0, len(plan.Actions)+1)
	for i, a := range plan.Actions {
		switch a.Kind {
		case playback.ActionSpeak, playback.ActionDecline:
			if strings.TrimSpace(a.Text) == "" {
				return "", fmt.Errorf("%w: action %d has no text", ErrEncodingFault, i)
			}
			verbs = append(verbs, &twiml.VoiceSay{
				Message:  a.Text,
				Voice:    a.Voice,
				Language: a.Language,
			})
		case playback.ActionPlay:
			if len(a.URLs) == 0 {
				return "", fmt.Errorf("%w: action %d has no audio", ErrEncodingFault, i)
			}
			for _, u := range a.URLs {
				if strings.TrimSpace(u) == "" {
					return "", fmt.Errorf("%w: action %d has an empty url", ErrEncodingFault, i)
				}
				verbs = append(verbs, &twiml.VoicePlay{Url: u})
			}
		case playback.ActionHangup:
			// appended once below
		default:
			return "", fmt.Errorf("%w: unknown action %q", ErrEncodingFault, a.Kind)
		}
	}
	verbs = append(verbs, &twiml.VoiceHangup{})

	doc, err := twiml.Voice(verbs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncodingFault, err)
	}
	return doc, nil
}
