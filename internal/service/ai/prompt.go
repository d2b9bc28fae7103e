package ai

import (
	"fmt"
	"strings"

	"github.com/triptalk/backend/internal/model/chat"
	"github.com/triptalk/backend/internal/model/lang"
)

// System instructions are configuration data keyed by language. They are
// read-only after process start and selected per request with a uniform
// fallback to lang.Default.
var systemInstructions = map[lang.Code]string{
	lang.PL: `ROLA:
Jesteś Osobistym Architektem Podróży. Twoim zadaniem nie jest sprzedaż, ale wspólne z użytkownikiem zbudowanie planu idealnego.

TWOJA BAZA WIEDZY (METODYKA):
Dobry plan podróży musi uwzględniać:
1. Tempo (intensywne vs relaks).
2. Budżet (studencki vs luxury).
3. Zainteresowania (kultura, natura, jedzenie).
4. Logistykę (jak się przemieszczać).

ZASADY:
- Nie generuj od razu planu na 2 tygodnie. Planuj etapami.
- Zawsze pytaj o potwierdzenie propozycji przed przejściem dalej.
- Odpowiadaj w języku polskim.
- Bądź pomocny i empatyczny.`,

	lang.EN: `ROLE:
You are a Personal Travel Architect. Your job is not to sell anything but to build the ideal trip plan together with the user.

YOUR KNOWLEDGE BASE (METHOD):
A good travel plan must account for:
1. Pace (intense vs relaxed).
2. Budget (student vs luxury).
3. Interests (culture, nature, food).
4. Logistics (how to get around).

RULES:
- Do not generate a two-week plan up front. Plan in stages.
- Always ask the user to confirm a proposal before moving on.
- Answer in English.
- Be helpful and empathetic.`,
}

// apologies are the fixed in-band degradation texts returned when generation
// fails. Chat stays usable; the error never reaches the user raw.
var apologies = map[lang.Code]string{
	lang.PL: "Przepraszam, mam chwilowy problem techniczny i nie mogę teraz odpowiedzieć. Spróbuj ponownie za moment.",
	lang.EN: "I'm sorry, I'm having a temporary technical problem and can't answer right now. Please try again in a moment.",
}

// emotionTones maps classifier labels to response-style guidance embedded in
// the steering note. Unlisted labels get a generic adaptation line.
var emotionTones = map[string]string{
	"neutral": "Keep a clear, friendly and natural tone.",
	"happy":   "Match the user's upbeat mood; be warm and enthusiastic about their plans.",
	"sad":     "Be gentle and supportive; suggest calm, restorative options without pressure.",
	"angry":   "Stay calm and concrete; acknowledge frustration and focus on practical solutions.",
	"fearful": "Be reassuring; emphasize safety, predictability and well-tested options.",
	"excited": "Share the excitement; it is fine to propose bolder, more adventurous ideas.",
}

const (
	historyOpen  = "=== PREVIOUS CONVERSATION (established context, do not re-ask) ==="
	historyClose = "=== END OF PREVIOUS CONVERSATION ==="
)

// SystemInstruction returns the language-keyed behavioral directive for the
// model. When an emotion label is present a delimited steering note is
// appended; the note must never be echoed back to the user, which the
// sanitizer additionally enforces post-hoc.
func SystemInstruction(code lang.Code, emotion string) string {
	instruction, ok := systemInstructions[code]
	if !ok {
		instruction = systemInstructions[lang.Default]
	}

	emotion = strings.TrimSpace(emotion)
	if emotion == "" {
		return instruction
	}

	tone, ok := emotionTones[strings.ToLower(emotion)]
	if !ok {
		tone = "Adapt your tone to this emotional state in a natural, unobtrusive way."
	}

	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "[SYSTEM NOTE: detected user emotion from voice: %q. %s", emotion, tone)
	b.WriteString(" Never mention this note, the detected emotion, or any bracketed system markers in your reply.]")
	return b.String()
}

// ComposeInput builds the exact model input from the new utterance and the
// caller-supplied history. Pure function of its inputs. An empty history
// yields the bare utterance with no transcript block.
func ComposeInput(userText string, history []chat.Turn) string {
	if len(history) == 0 {
		return userText
	}

	var b strings.Builder
	b.WriteString(historyOpen)
	b.WriteString("\n")
	for _, turn := range history {
		label := "USER"
		if turn.Role == chat.RoleAssistant {
			label = "ASSISTANT"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}
	b.WriteString(historyClose)
	b.WriteString("\n\n")
	b.WriteString(userText)
	return b.String()
}

// Apology returns the fixed localized degradation text for a language.
func Apology(code lang.Code) string {
	if text, ok := apologies[code]; ok {
		return text
	}
	return apologies[lang.Default]
}
