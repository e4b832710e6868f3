package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botrelay/internal/chat/handler/mocks"
	"botrelay/internal/chat/service"
	"botrelay/internal/common"
	"botrelay/internal/dbmysql"
)

const testSecret = "test-secret"

type testServer struct {
	router      *mux.Router
	chatService *mocks.MockChatService
	bots        *mocks.MockBotService
	token       string
}

func newTestServer(t *testing.T, perMinute int) *testServer {
	ctrl := gomock.NewController(t)
	chatService := mocks.NewMockChatService(ctrl)
	bots := mocks.NewMockBotService(ctrl)
	issuer := common.NewTokenIssuer(testSecret, time.Hour)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	NewChatHandler(chatService, bots, NewKeyedLimiter(perMinute), zerolog.Nop()).
		RegisterRoutes(api, common.AuthMiddleware(issuer))

	token, err := issuer.GenerateToken("user-1", "alice")
	require.NoError(t, err)

	return &testServer{router: router, chatService: chatService, bots: bots, token: token}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func savedMessage(req service.NewMessage) *dbmysql.Message {
	return &dbmysql.Message{
		ID:        "msg-1",
		RoomID:    req.RoomID,
		CreatorID: req.CreatorID,
		Body:      req.Body,
		PlainBody: common.PlainText(req.Body),
		CreatedAt: time.Now().UTC(),
	}
}

func TestChatHandler_CreateMessage(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		auth           bool
		mockSetup      func(s *testServer)
		expectedStatus int
		checkResponse  func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "successful_message_send",
			body: `{"body":"<div>Hello @Reporter</div>","client_message_id":"c-1","mentionee_ids":["bot-1"]}`,
			auth: true,
			mockSetup: func(s *testServer) {
				s.chatService.EXPECT().
					CreateMessage(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req service.NewMessage) (*dbmysql.Message, error) {
						assert.Equal(t, "room-1", req.RoomID)
						assert.Equal(t, "user-1", req.CreatorID)
						assert.Equal(t, "c-1", req.ClientMessageID)
						assert.Equal(t, []string{"bot-1"}, req.MentioneeIDs)
						assert.Nil(t, req.Attachment)
						return savedMessage(req), nil
					})
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "/api/v1/rooms/room-1/messages/msg-1", rec.Header().Get("Location"))
				var resp messageResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, "Hello @Reporter", resp.PlainBody)
				assert.Equal(t, "text", resp.ContentType)
			},
		},
		{
			name:           "missing_token",
			body:           `{"body":"hi"}`,
			mockSetup:      func(s *testServer) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid_json",
			body:           `{"body":`,
			auth:           true,
			mockSetup:      func(s *testServer) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "empty_message",
			body: `{"body":""}`,
			auth: true,
			mockSetup: func(s *testServer) {
				s.chatService.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).Return(nil, common.ErrEmptyMessage)
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "not_a_member",
			body: `{"body":"hi"}`,
			auth: true,
			mockSetup: func(s *testServer) {
				s.chatService.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).Return(nil, common.ErrNotRoomMember)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "service_error_handling",
			body: `{"body":"hi"}`,
			auth: true,
			mockSetup: func(s *testServer) {
				s.chatService.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).Return(nil, errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, 30)
			tt.mockSetup(s)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/room-1/messages", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.auth {
				req.Header.Set("Authorization", "Bearer "+s.token)
			}

			rec := s.do(req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, rec)
			}
		})
	}
}

func multipartBody(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("attachment", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestChatHandler_CreateMessage_Multipart(t *testing.T) {
	s := newTestServer(t, 30)
	s.chatService.EXPECT().
		CreateMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req service.NewMessage) (*dbmysql.Message, error) {
			assert.Equal(t, "@Reporter report.pdf", req.Body)
			require.NotNil(t, req.Attachment)
			assert.Equal(t, "report.pdf", req.Attachment.Filename)
			content, err := io.ReadAll(req.Attachment.Content)
			require.NoError(t, err)
			assert.Equal(t, "%PDF-1.4", string(content))
			return savedMessage(req), nil
		})

	body, contentType := multipartBody(t, map[string]string{"body": "@Reporter report.pdf"}, "report.pdf", "%PDF-1.4")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/room-1/messages", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.token)

	rec := s.do(req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestChatHandler_CreateBotMessage(t *testing.T) {
	bot := &dbmysql.User{ID: "bot-1", Name: "Reporter", Bot: true, Active: true}

	t.Run("plain text is escaped", func(t *testing.T) {
		s := newTestServer(t, 30)
		s.bots.EXPECT().AuthenticateBot(gomock.Any(), "bot-1-abc").Return(bot, nil)
		s.chatService.EXPECT().
			CreateMessage(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req service.NewMessage) (*dbmysql.Message, error) {
				assert.Equal(t, "bot-1", req.CreatorID)
				assert.Equal(t, "1 &lt; 2", req.Body)
				return savedMessage(req), nil
			})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/room-1/bot_messages", strings.NewReader("1 < 2"))
		req.Header.Set("Content-Type", "text/plain")
		req.Header.Set(BotKeyHeader, "bot-1-abc")

		rec := s.do(req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "/api/v1/rooms/room-1/messages/msg-1", rec.Header().Get("Location"))
	})

	t.Run("attachment", func(t *testing.T) {
		s := newTestServer(t, 30)
		s.bots.EXPECT().AuthenticateBot(gomock.Any(), "bot-1-abc").Return(bot, nil)
		s.chatService.EXPECT().
			CreateMessage(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req service.NewMessage) (*dbmysql.Message, error) {
				require.NotNil(t, req.Attachment)
				assert.Equal(t, "chart.png", req.Attachment.Filename)
				return savedMessage(req), nil
			})

		body, contentType := multipartBody(t, nil, "chart.png", "\x89PNG")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/room-1/bot_messages", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set(BotKeyHeader, "bot-1-abc")

		assert.Equal(t, http.StatusCreated, s.do(req).Code)
	})

	t.Run("missing key", func(t *testing.T) {
		s := newTestServer(t, 30)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/room-1/bot_messages", strings.NewReader("hi"))
		assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)
	})

	t.Run("invalid key", func(t *testing.T) {
		s := newTestServer(t, 30)
		s.bots.EXPECT().AuthenticateBot(gomock.Any(), "bot-1-bad").Return(nil, common.ErrInvalidBotKey)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/room-1/bot_messages", strings.NewReader("hi"))
		req.Header.Set(BotKeyHeader, "bot-1-bad")

		assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)
	})

	t.Run("malformed key", func(t *testing.T) {
		s := newTestServer(t, 30)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/room-1/bot_messages", strings.NewReader("hi"))
		req.Header.Set(BotKeyHeader, "nodash")
		assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)
	})

	t.Run("guessed secrets share the bot's bucket", func(t *testing.T) {
		s := newTestServer(t, 1)
		s.bots.EXPECT().AuthenticateBot(gomock.Any(), "bot-1-guess1").Return(nil, common.ErrInvalidBotKey).Times(1)

		for i, want := range []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusTooManyRequests} {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/room-1/bot_messages", strings.NewReader("hi"))
			req.Header.Set(BotKeyHeader, fmt.Sprintf("bot-1-guess%d", i+1))
			assert.Equal(t, want, s.do(req).Code)
		}
	})

	t.Run("rate limited per bot", func(t *testing.T) {
		s := newTestServer(t, 1)
		s.bots.EXPECT().AuthenticateBot(gomock.Any(), "bot-1-abc").Return(bot, nil).Times(1)
		s.chatService.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req service.NewMessage) (*dbmysql.Message, error) {
				return savedMessage(req), nil
			}).Times(1)

		newReq := func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/room-1/bot_messages", strings.NewReader("hi"))
			req.Header.Set(BotKeyHeader, "bot-1-abc")
			return req
		}

		assert.Equal(t, http.StatusCreated, s.do(newReq()).Code)
		rec := s.do(newReq())
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	})
}

func TestChatHandler_GetMessage(t *testing.T) {
	s := newTestServer(t, 30)
	s.chatService.EXPECT().GetMessage(gomock.Any(), "user-1", "room-1", "msg-1").Return(&dbmysql.Message{
		ID:         "msg-1",
		RoomID:     "room-1",
		CreatorID:  "bot-1",
		Attachment: &dbmysql.Attachment{FileID: "65f0c0ffee00000000000001", Filename: "attachment.png", ContentType: "image/png", ByteSize: 10},
	}, nil)
	s.chatService.EXPECT().GetMessage(gomock.Any(), "user-1", "room-1", "msg-x").Return(nil, common.ErrMessageNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/room-1/messages/msg-1", nil)
	req.Header.Set("Authorization", "Bearer "+s.token)
	rec := s.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "attachment", resp.ContentType)
	assert.Equal(t, "attachment.png", resp.PlainBody)
	require.NotNil(t, resp.Attachment)
	assert.Equal(t, "/media/65f0c0ffee00000000000001", resp.Attachment.URL)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/rooms/room-1/messages/msg-x", nil)
	req.Header.Set("Authorization", "Bearer "+s.token)
	assert.Equal(t, http.StatusNotFound, s.do(req).Code)
}

func TestChatHandler_ListMessages(t *testing.T) {
	s := newTestServer(t, 30)
	s.chatService.EXPECT().GetMessageHistory(gomock.Any(), "user-1", "room-1", 5).
		Return([]*dbmysql.Message{{ID: "msg-2"}, {ID: "msg-1"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/room-1/messages?limit=5", nil)
	req.Header.Set("Authorization", "Bearer "+s.token)
	rec := s.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []messageResponse `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Messages, 2)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/rooms/room-1/messages?limit=abc", nil)
	req.Header.Set("Authorization", "Bearer "+s.token)
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)
}

func TestKeyedLimiter(t *testing.T) {
	l := NewKeyedLimiter(2)
	now := time.Now()
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "keys are limited independently")

	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("a"), "tokens refill over the minute")
}
