package directory

import "time"

// Tenant invariant: every row below carries OrgID. Lookups by dialed number are the
// only reads that start without one, and they resolve it.

type PhoneNumberStatus string

const (
	PhoneNumberActive   PhoneNumberStatus = "active"
	PhoneNumberInactive PhoneNumberStatus = "inactive"
	PhoneNumberReleased PhoneNumberStatus = "released"
)

// PhoneNumber is a provisioned E.164 number. E164 is globally unique.
type PhoneNumber struct {
	ID        string            `json:"id"`
	OrgID     string            `json:"org_id"`
	E164      string            `json:"e164"`
	Status    PhoneNumberStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

type HotlineMode string

const (
	ModeTTS       HotlineMode = "tts"
	ModeAudio     HotlineMode = "audio"
	ModeSimpleIVR HotlineMode = "simple_ivr"
)

type HotlineStatus string

const (
	HotlineActive   HotlineStatus = "active"
	HotlinePaused   HotlineStatus = "paused"
	HotlineArchived HotlineStatus = "archived"
)

// Hotline is the content configuration answered on a phone number.
// PhoneNumberID is empty when the hotline is not bound to a number.
type Hotline struct {
	ID            string        `json:"id"`
	OrgID         string        `json:"org_id"`
	PhoneNumberID string        `json:"phone_number_id,omitempty"`
	Name          string        `json:"name"`
	Mode          HotlineMode   `json:"mode"`
	TTSText       string        `json:"tts_text,omitempty"`
	Status        HotlineStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

type AudioSource string

const (
	AudioSourceUpload AudioSource = "upload"
	AudioSourceTTS    AudioSource = "tts"
)

// AudioAsset is an uploaded or generated clip. StoragePath is an opaque locator
// in object storage; it is never a public URL.
type AudioAsset struct {
	ID          string      `json:"id"`
	OrgID       string      `json:"org_id"`
	Title       string      `json:"title,omitempty"`
	StoragePath string      `json:"storage_path"`
	DurationMS  *int64      `json:"duration_ms,omitempty"`
	Source      AudioSource `json:"source"`
	Hash        string      `json:"hash,omitempty"`
}

// HotlineAudioFile is one playlist entry, joined with its asset.
// Ordering: DisplayOrder, then CreatedAt, then ID.
type HotlineAudioFile struct {
	ID           string     `json:"id"`
	HotlineID    string     `json:"hotline_id"`
	AudioAssetID string     `json:"audio_asset_id"`
	DisplayOrder int        `json:"display_order"`
	CreatedAt    time.Time  `json:"created_at"`
	Asset        AudioAsset `json:"asset"`
}

// Binding is the result of resolving a dialed number.
type Binding struct {
	OrgID       string
	PhoneNumber PhoneNumber
	Hotline     Hotline
}
