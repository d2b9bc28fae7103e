package speech

// Transcription is the result of running STT over one normalized waveform.
type Transcription struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// EmotionScore is one ranked label from the emotion classifier. The label
// vocabulary belongs to the classifier; this backend treats it as opaque.
type EmotionScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// NeutralEmotion is reported when the classifier returns nothing usable.
const NeutralEmotion = "neutral"
