package chat

import "encoding/json"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior exchange supplied by the caller. The backend never
// persists turns; the full history arrives with every request.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Valid reports whether the turn carries a recognized role.
func (t Turn) Valid() bool {
	return t.Role == RoleUser || t.Role == RoleAssistant
}

// ParseHistory decodes a caller-supplied history payload. Malformed JSON or
// turns with unknown roles degrade to an empty history rather than an error,
// so a broken client never loses the whole request over its transcript.
func ParseHistory(raw []byte) []Turn {
	if len(raw) == 0 {
		return nil
	}

	var turns []Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil
	}

	for _, t := range turns {
		if !t.Valid() {
			return nil
		}
	}

	if len(turns) == 0 {
		return nil
	}
	return turns
}
