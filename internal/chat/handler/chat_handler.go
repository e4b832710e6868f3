// Package handler exposes the chat API over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"botrelay/internal/chat/service"
	"botrelay/internal/common"
	"botrelay/internal/dbmysql"
	"botrelay/internal/user"
)

const (
	// BotKeyHeader carries "<bot user id>-<token>" on bot requests.
	BotKeyHeader = "X-Bot-Key"

	maxUploadBytes = 32 << 20
	maxTextBytes   = 1 << 20
)

type ChatHandler struct {
	chatService service.ChatService
	bots        user.BotService
	limiter     *KeyedLimiter
	log         zerolog.Logger
}

func NewChatHandler(chatService service.ChatService, bots user.BotService, limiter *KeyedLimiter, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		bots:        bots,
		limiter:     limiter,
		log:         log.With().Str("component", "chat_handler").Logger(),
	}
}

// RegisterRoutes mounts the message API on api (expected to be the /api/v1
// subrouter). auth guards the routes used by human users.
func (h *ChatHandler) RegisterRoutes(api *mux.Router, auth mux.MiddlewareFunc) {
	api.Handle("/rooms/{roomID}/messages", auth(http.HandlerFunc(h.CreateMessage))).Methods(http.MethodPost)
	api.Handle("/rooms/{roomID}/messages", auth(http.HandlerFunc(h.ListMessages))).Methods(http.MethodGet)
	api.Handle("/rooms/{roomID}/messages/{messageID}", auth(http.HandlerFunc(h.GetMessage))).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{roomID}/bot_messages", h.CreateBotMessage).Methods(http.MethodPost)
}

type createMessageRequest struct {
	Body            string   `json:"body"`
	ClientMessageID string   `json:"client_message_id"`
	MentioneeIDs    []string `json:"mentionee_ids"`
}

type attachmentResponse struct {
	Filename    string                    `json:"filename"`
	ContentType string                    `json:"content_type"`
	Size        int64                     `json:"size"`
	URL         string                    `json:"url"`
	Analyzed    bool                      `json:"analyzed"`
	Metadata    common.AttachmentMetadata `json:"metadata"`
}

type messageResponse struct {
	ID                string              `json:"id"`
	RoomID            string              `json:"room_id"`
	CreatorID         string              `json:"creator_id"`
	Body              string              `json:"body"`
	PlainBody         string              `json:"plain_body"`
	ContentType       string              `json:"content_type"`
	ClientMessageID   string              `json:"client_message_id"`
	CausedByMessageID *string             `json:"caused_by_message_id,omitempty"`
	Attachment        *attachmentResponse `json:"attachment,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
}

func toMessageResponse(msg *dbmysql.Message) messageResponse {
	resp := messageResponse{
		ID:                msg.ID,
		RoomID:            msg.RoomID,
		CreatorID:         msg.CreatorID,
		Body:              msg.Body,
		PlainBody:         msg.PlainTextBody(),
		ContentType:       msg.ContentType().String(),
		ClientMessageID:   msg.ClientMessageID,
		CausedByMessageID: msg.CausedByMessageID,
		CreatedAt:         msg.CreatedAt,
	}
	if msg.HasAttachment() {
		resp.Attachment = &attachmentResponse{
			Filename:    msg.Attachment.Filename,
			ContentType: msg.Attachment.ContentType,
			Size:        msg.Attachment.ByteSize,
			URL:         "/media/" + msg.Attachment.FileID,
			Analyzed:    msg.Attachment.Analyzed,
			Metadata:    msg.Attachment.Metadata,
		}
	}
	return resp
}

// CreateMessage handles POST /rooms/{roomID}/messages for signed-in users.
// The body is JSON, or multipart/form-data with an "attachment" file part.
func (h *ChatHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, common.ErrUnauthenticated)
		return
	}

	req := service.NewMessage{
		RoomID:    mux.Vars(r)["roomID"],
		CreatorID: userID,
	}

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			h.Error(w, http.StatusBadRequest, "invalid multipart body")
			return
		}
		defer r.MultipartForm.RemoveAll()

		req.Body = r.FormValue("body")
		req.ClientMessageID = r.FormValue("client_message_id")
		req.MentioneeIDs = r.MultipartForm.Value["mentionee_ids"]

		attachment, closeFn, err := formAttachment(r)
		if err != nil {
			h.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		defer closeFn()
		req.Attachment = attachment
	} else {
		var body createMessageRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxTextBytes)).Decode(&body); err != nil {
			h.Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		req.Body = body.Body
		req.ClientMessageID = body.ClientMessageID
		req.MentioneeIDs = body.MentioneeIDs
	}

	msg, err := h.chatService.CreateMessage(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Location", messageLocation(msg))
	h.JSON(w, http.StatusCreated, toMessageResponse(msg))
}

// CreateBotMessage handles POST /rooms/{roomID}/bot_messages. A raw body is
// posted as text; a multipart body carries an "attachment" file part.
func (h *ChatHandler) CreateBotMessage(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get(BotKeyHeader)
	// buckets are per bot user, so varying the secret part buys no requests
	userID, _, err := common.SplitBotKey(key)
	if err != nil {
		h.writeError(w, common.ErrInvalidBotKey)
		return
	}
	if !h.limiter.Allow(userID) {
		h.writeError(w, common.ErrRateLimited)
		return
	}

	bot, err := h.bots.AuthenticateBot(r.Context(), key)
	if err != nil {
		h.writeError(w, err)
		return
	}

	req := service.NewMessage{
		RoomID:    mux.Vars(r)["roomID"],
		CreatorID: bot.ID,
	}

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			h.Error(w, http.StatusBadRequest, "invalid multipart body")
			return
		}
		defer r.MultipartForm.RemoveAll()

		attachment, closeFn, err := formAttachment(r)
		if err != nil {
			h.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		defer closeFn()
		req.Attachment = attachment
		req.Body = html.EscapeString(r.FormValue("body"))
	} else {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxTextBytes))
		if err != nil {
			h.Error(w, http.StatusBadRequest, "could not read body")
			return
		}
		req.Body = string(raw)
		if common.NormalizeContentType(r.Header.Get("Content-Type")) != "text/html" {
			req.Body = html.EscapeString(req.Body)
		}
	}

	msg, err := h.chatService.CreateMessage(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Location", messageLocation(msg))
	w.WriteHeader(http.StatusCreated)
}

func (h *ChatHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, common.ErrUnauthenticated)
		return
	}
	vars := mux.Vars(r)

	msg, err := h.chatService.GetMessage(r.Context(), userID, vars["roomID"], vars["messageID"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, toMessageResponse(msg))
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, common.ErrUnauthenticated)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	messages, err := h.chatService.GetMessageHistory(r.Context(), userID, mux.Vars(r)["roomID"], limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]messageResponse, 0, len(messages))
	for _, msg := range messages {
		resp = append(resp, toMessageResponse(msg))
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"messages": resp})
}

// JSON sends a JSON response with the given status code.
func (h *ChatHandler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Warn().Err(err).Msg("failed to encode response")
	}
}

// Error sends a JSON error response with the given status code.
func (h *ChatHandler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

func (h *ChatHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrRoomNotFound), errors.Is(err, common.ErrMessageNotFound):
		h.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrNotRoomMember):
		h.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, common.ErrEmptyMessage):
		h.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, common.ErrInvalidBotKey), errors.Is(err, common.ErrUnauthenticated):
		h.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, common.ErrRateLimited):
		w.Header().Set("Retry-After", "60")
		h.Error(w, http.StatusTooManyRequests, err.Error())
	default:
		h.log.Error().Err(err).Msg("request failed")
		h.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// formAttachment returns the "attachment" part of a parsed multipart form, or
// nil when the form has none.
func formAttachment(r *http.Request) (*service.NewAttachment, func(), error) {
	file, header, err := r.FormFile("attachment")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("invalid attachment: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename)))
	}

	return &service.NewAttachment{
		Filename:    header.Filename,
		ContentType: contentType,
		Content:     file,
	}, func() { file.Close() }, nil
}

func messageLocation(msg *dbmysql.Message) string {
	return fmt.Sprintf("/api/v1/rooms/%s/messages/%s", msg.RoomID, msg.ID)
}
