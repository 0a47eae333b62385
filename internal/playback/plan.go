// Package playback turns a resolved hotline into an ordered voice-response plan.
package playback

import "fmt"

// Caller-facing notices.
const (
	MsgNotConfigured      = "This number is not configured. Goodbye."
	MsgNoActiveHotline    = "No active hotline found. Goodbye."
	MsgAudioUnavailable   = "Audio file not available."
	MsgMenuNotConfigured  = "This menu is not configured yet."
	MsgProcessingError    = "Sorry, there was an error processing your call."
	msgWelcomeUnfinishedF = "Welcome to %s. Not fully configured."
)

// WelcomeUnfinished is spoken for hotlines without usable content.
func WelcomeUnfinished(name string) string { return fmt.Sprintf(msgWelcomeUnfinishedF, name) }

type ActionKind string

const (
	ActionSpeak   ActionKind = "speak"
	ActionPlay    ActionKind = "play"
	ActionDecline ActionKind = "decline"
	ActionHangup  ActionKind = "hangup"
)

// Action is one step of a plan. Speak and Decline use Text/Voice/Language,
// Play uses URLs in order.
type Action struct {
	Kind     ActionKind
	Text     string
	Voice    string
	Language string
	URLs     []string
	Reason   Reason
}

// Outcome classifies how a call was answered. It labels logs and metrics.
type Outcome string

const (
	OutcomeSpoken             Outcome = "spoken"
	OutcomeAudio              Outcome = "audio"
	OutcomeUnconfigured       Outcome = "hotline_unconfigured"
	OutcomeContentUnavailable Outcome = "content_unavailable"
	OutcomeDeclined           Outcome = "declined"
	OutcomeError              Outcome = "error"
)

// Reason says why a call was declined.
type Reason string

const (
	ReasonNotConfigured   Reason = "not_configured"
	ReasonNoActiveHotline Reason = "no_active_hotline"
	ReasonMenuUnavailable Reason = "menu_unavailable"
	ReasonProcessingError Reason = "processing_error"
)

// Plan is an ordered list of actions. The encoder always terminates it with a single hangup.
type Plan struct {
	Outcome Outcome
	Actions []Action
}

// Voice is the speech configuration applied to every spoken action.
type Voice struct {
	Name     string
	Language string
}

func (v Voice) withDefaults() Voice {
	if v.Name == "" {
		v.Name = "alice"
	}
	if v.Language == "" {
		v.Language = "en-US"
	}
	return v
}

func (v Voice) speak(text string) Action {
	v = v.withDefaults()
	return Action{Kind: ActionSpeak, Text: text, Voice: v.Name, Language: v.Language}
}

var hangup = Action{Kind: ActionHangup}

// Declined is the plan for a call that cannot be served.
func Declined(reason Reason, v Voice) Plan {
	v = v.withDefaults()
	text := MsgNotConfigured
	outcome := OutcomeDeclined
	switch reason {
	case ReasonNoActiveHotline:
		text = MsgNoActiveHotline
	case ReasonMenuUnavailable:
		text = MsgMenuNotConfigured
	case ReasonProcessingError:
		text = MsgProcessingError
		outcome = OutcomeError
	}
	return Plan{
		Outcome: outcome,
		Actions: []Action{
			{Kind: ActionDecline, Text: text, Voice: v.Name, Language: v.Language, Reason: reason},
			hangup,
		},
	}
}
