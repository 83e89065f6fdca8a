package http

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/article"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/author"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/explain"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tts"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/voice"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/pkg/protocol"
)

func (h *Handler) handleParseArticle(w http.ResponseWriter, r *http.Request) {
	var req article.ParseRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.backend.ParseArticle(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("article parsed", "source", res.Source, "chunks", res.TotalChunks)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explain.Request
	if !decode(w, r, &req) {
		return
	}
	res, err := h.backend.Explain(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type authorStyleRequest struct {
	AuthorName      string `json:"authorName"`
	UseLLMKnowledge *bool  `json:"useLLMKnowledge,omitempty"`
}

func (h *Handler) handleAuthorStyle(w http.ResponseWriter, r *http.Request) {
	var req authorStyleRequest
	if !decode(w, r, &req) {
		return
	}
	useLLM := req.UseLLMKnowledge == nil || *req.UseLLMKnowledge
	res, err := h.backend.GetAuthorStyle(r.Context(), req.AuthorName, useLLM)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleAuthorAnalyze(w http.ResponseWriter, r *http.Request) {
	var req author.AnalyzeRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.backend.AnalyzeAuthorStyle(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleAuthorSearch(w http.ResponseWriter, r *http.Request) {
	var req authorStyleRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.backend.SearchAuthorContent(r.Context(), req.AuthorName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleSpeech always answers 200; failures carry a fallback hint so the
// client switches to local speech.
func (h *Handler) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req tts.SpeechRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.backend.GenerateSpeech(r.Context(), req))
}

type classifyRequest struct {
	Utterance string `json:"utterance"`
}

func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Utterance) == "" {
		writeErrorCode(w, http.StatusBadRequest, protocol.ErrBadRequest, "utterance is required")
		return
	}
	writeJSON(w, http.StatusOK, voice.Classify(req.Utterance))
}

type transcribeResponse struct {
	Text   string       `json:"text"`
	Intent voice.Intent `json:"intent"`
}

// handleTranscribe accepts a multipart upload (field "audio", optional
// "language") or a raw audio/* body with ?language=.
func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	audio, format, language, err := readAudio(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorCode(w, http.StatusRequestEntityTooLarge, protocol.ErrBadRequest, "Audio too large")
			return
		}
		writeError(w, r, apperr.BadRequest("voice.transcribe", err))
		return
	}
	text, err := h.backend.Transcribe(r.Context(), audio, format, language)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transcribeResponse{Text: text, Intent: voice.Classify(text)})
}

func readAudio(r *http.Request) (audio []byte, format, language string, err error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
			return nil, "", "", err
		}
		f, hdr, err := r.FormFile("audio")
		if err != nil {
			return nil, "", "", errors.New("audio file is required")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", "", err
		}
		format = strings.TrimPrefix(filepath.Ext(hdr.Filename), ".")
		return data, format, r.FormValue("language"), nil
	}

	if !strings.HasPrefix(mediaType, "audio/") {
		return nil, "", "", errors.New("expected multipart/form-data or an audio/* body")
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", "", err
	}
	format = strings.TrimPrefix(mediaType, "audio/")
	format = strings.TrimPrefix(format, "x-")
	return data, format, r.URL.Query().Get("language"), nil
}
