package live

import (
	"encoding/json"
	"strings"
)

// EventName is the server-sent event name of change notifications.
const EventName = "files-changed"

// ChangeEvent is one notification delivered to a client. Dropped is set when
// at least one earlier notification could not be queued.
type ChangeEvent struct {
	Paths   []string `json:"paths"`
	Dropped bool     `json:"dropped"`
}

// Encode renders event as JSON. Paths that are not valid UTF-8 are encoded
// with U+FFFD replacing the invalid bytes, so any path can be reported.
func Encode(event ChangeEvent) ([]byte, error) {
	paths := make([]string, len(event.Paths))
	for index, path := range event.Paths {
		paths[index] = strings.ToValidUTF8(path, "�")
	}
	return json.Marshal(ChangeEvent{Paths: paths, Dropped: event.Dropped})
}

func Decode(data []byte) (ChangeEvent, error) {
	var event ChangeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return ChangeEvent{}, err
	}
	return event, nil
}
