package domain

import (
	"encoding/json"
	"strings"
)

// Payload is the typed projection of an event's open payload mapping.
// Every field is optional; absent or malformed fields decode to nil.
type Payload struct {
	BuildID     *string `json:"buildId"`
	SFProjectID *string `json:"sfProjectId"`
	// BuildState is reported by the build service as a title-cased
	// string ("Completed", "Faulted", ...). It is compared literally,
	// never as an enum.
	BuildState  *string      `json:"buildState"`
	BuildConfig *BuildConfig `json:"buildConfig"`
}

// BuildState value signalling a build that ended in error without an
// exception being recorded.
const BuildStateFaulted = "Faulted"

// BuildConfig is the build configuration embedded in a start event's
// payload.
type BuildConfig struct {
	TrainingScriptureRanges    []ScriptureRangeSpec `json:"TrainingScriptureRanges"`
	TranslationScriptureRanges []ScriptureRangeSpec `json:"TranslationScriptureRanges"`
}

// ScriptureRangeSpec names a semicolon-delimited list of book codes,
// optionally scoped to a project other than the event's own.
type ScriptureRangeSpec struct {
	ProjectID      string `json:"ProjectId"`
	ScriptureRange string `json:"ScriptureRange"`
}

// Books splits the semicolon-delimited range into individual book
// codes, dropping empty segments.
func (s ScriptureRangeSpec) Books() []string {
	var books []string
	for _, b := range strings.Split(s.ScriptureRange, ";") {
		b = strings.TrimSpace(b)
		if b != "" {
			books = append(books, b)
		}
	}
	return books
}

// ParsePayload decodes a raw JSON payload leniently: unknown fields
// are ignored and any decode failure yields an empty payload rather
// than an error. Telemetry payloads are written by several backend
// versions and must never abort reconstruction.
func ParsePayload(raw []byte) Payload {
	if len(raw) == 0 {
		return Payload{}
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}
	}
	return p
}
