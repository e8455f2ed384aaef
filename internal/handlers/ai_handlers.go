package handlers

import (
	"net/http"
	"strings"

	"github.com/ahsanfayaz52/notesservice/internal/config"
	openai "github.com/sashabaranov/go-openai"
)

type AIRequest struct {
	Text   string `json:"text"`
	Action string `json:"action"`
}

type AIResponse struct {
	Text string `json:"text"`
}

// AIProcessHandler runs a note's text through one of a few fixed rewriting
// actions. It never touches the store; the client decides whether to save
// the result back into the note.
func AIProcessHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.OpenAIKey == "" {
			writeError(w, http.StatusServiceUnavailable, "AI processing is not configured")
			return
		}

		var req AIRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeError(w, http.StatusBadRequest, "Text is required")
			return
		}

		var prompt string
		switch req.Action {
		case "enhance":
			prompt = `Improve the structure and readability of this note. Use short
paragraphs and plain-text bullet points where they help. Keep the original
meaning. Return plain text only.

Note text:
` + req.Text

		case "summarize":
			prompt = `Summarize this note in a short overview followed by plain-text
bullet points of the key items. Keep it concise. Return plain text only.

Note text:
` + req.Text

		case "fix":
			prompt = `Correct grammar and spelling in this note while preserving its
structure and meaning. Return plain text only.

Note text:
` + req.Text

		default:
			writeError(w, http.StatusBadRequest, "Invalid action")
			return
		}

		client := openai.NewClient(cfg.OpenAIKey)

		resp, err := client.CreateChatCompletion(r.Context(), openai.ChatCompletionRequest{
			Model: openai.GPT3Dot5Turbo,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
			TopP:        0.9,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "AI processing failed")
			return
		}

		writeJSON(w, http.StatusOK, AIResponse{Text: resp.Choices[0].Message.Content})
	}
}
