package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botrelay/internal/chat/service/mocks"
	"botrelay/internal/common"
	"botrelay/internal/dbmongo"
	"botrelay/internal/dbmysql"
)

type testDeps struct {
	repo      *mocks.MockChatRepository
	blobs     *mocks.MockBlobStore
	publisher *mocks.MockEventPublisher
	analyzer  *mocks.MockAttachmentAnalyzer
	service   ChatService
}

func newTestService(t *testing.T) *testDeps {
	ctrl := gomock.NewController(t)
	d := &testDeps{
		repo:      mocks.NewMockChatRepository(ctrl),
		blobs:     mocks.NewMockBlobStore(ctrl),
		publisher: mocks.NewMockEventPublisher(ctrl),
		analyzer:  mocks.NewMockAttachmentAnalyzer(ctrl),
	}
	d.service = NewChatService(d.repo, d.blobs, d.publisher, d.analyzer, zerolog.Nop())
	return d
}

var (
	testRoom    = &dbmysql.Room{ID: "room-1", Name: "General"}
	testMembers = []dbmysql.User{
		{ID: "bot-1", Name: "Reporter", Bot: true, Active: true},
		{ID: "user-1", Name: "alice", Active: true},
	}
)

func TestChatService_CreateMessage(t *testing.T) {
	t.Run("text message is saved then published", func(t *testing.T) {
		d := newTestService(t)
		d.repo.EXPECT().RoomByID(gomock.Any(), "room-1").Return(testRoom, nil)
		d.repo.EXPECT().RoomMembers(gomock.Any(), "room-1").Return(testMembers, nil)
		saved := d.repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, msg *dbmysql.Message) error {
				assert.Equal(t, "<div>Hi @Reporter</div>", msg.Body)
				assert.Equal(t, "Hi @Reporter", msg.PlainBody)
				require.Len(t, msg.Mentionees, 1)
				assert.Equal(t, "bot-1", msg.Mentionees[0].ID)
				assert.False(t, msg.CreatedAt.IsZero())
				msg.ID = "msg-1"
				return nil
			})
		d.publisher.EXPECT().NotifyAsync(gomock.Any()).Do(func(event common.MessageEvent) {
			assert.Equal(t, common.MessageCreatedType, event.Type)
			assert.Equal(t, "msg-1", event.MessageID)
			assert.Equal(t, "user-1", event.CreatorID)
		}).After(saved)

		msg, err := d.service.CreateMessage(context.Background(), NewMessage{
			RoomID:    "room-1",
			CreatorID: "user-1",
			Body:      "  <div>Hi @Reporter</div> ",
		})

		require.NoError(t, err)
		assert.Equal(t, "msg-1", msg.ID)
		assert.Equal(t, testRoom, msg.Room)
		assert.Equal(t, "alice", msg.Creator.Name)
	})

	t.Run("explicit mentionee ids", func(t *testing.T) {
		d := newTestService(t)
		d.repo.EXPECT().RoomByID(gomock.Any(), "room-1").Return(testRoom, nil)
		d.repo.EXPECT().RoomMembers(gomock.Any(), "room-1").Return(testMembers, nil)
		d.repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, msg *dbmysql.Message) error {
				require.Len(t, msg.Mentionees, 1)
				assert.Equal(t, "bot-1", msg.Mentionees[0].ID)
				return nil
			})
		d.publisher.EXPECT().NotifyAsync(gomock.Any())

		_, err := d.service.CreateMessage(context.Background(), NewMessage{
			RoomID:       "room-1",
			CreatorID:    "user-1",
			Body:         "have a look",
			MentioneeIDs: []string{"bot-1", "stranger"},
		})
		require.NoError(t, err)
	})

	t.Run("attachment is uploaded and analyzed", func(t *testing.T) {
		d := newTestService(t)
		causedBy := "msg-0"
		d.repo.EXPECT().RoomByID(gomock.Any(), "room-1").Return(testRoom, nil)
		d.repo.EXPECT().RoomMembers(gomock.Any(), "room-1").Return(testMembers, nil)
		d.blobs.EXPECT().UploadFile(gomock.Any(), "attachment.png", "image/png", "bot-1", gomock.Any()).
			Return(&dbmongo.MediaFile{ID: "65f0c0ffee00000000000001", Filename: "attachment.png", ContentType: "image/png", Size: 4}, nil)
		d.repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, msg *dbmysql.Message) error {
				require.NotNil(t, msg.Attachment)
				assert.Equal(t, "65f0c0ffee00000000000001", msg.Attachment.FileID)
				assert.Equal(t, int64(4), msg.Attachment.ByteSize)
				assert.Equal(t, &causedBy, msg.CausedByMessageID)
				msg.ID = "msg-2"
				msg.Attachment.MessageID = msg.ID
				return nil
			})
		d.analyzer.EXPECT().AnalyzeAsync(gomock.Any()).Do(func(a dbmysql.Attachment) {
			assert.Equal(t, "msg-2", a.MessageID)
		})
		d.publisher.EXPECT().NotifyAsync(gomock.Any())

		msg, err := d.service.CreateMessage(context.Background(), NewMessage{
			RoomID:            "room-1",
			CreatorID:         "bot-1",
			CausedByMessageID: &causedBy,
			Attachment: &NewAttachment{
				Filename:    "attachment.png",
				ContentType: "image/png",
				Content:     strings.NewReader("\x89PNG"),
			},
		})

		require.NoError(t, err)
		assert.Equal(t, common.ContentAttachment, msg.ContentType())
		assert.Equal(t, "attachment.png", msg.PlainTextBody())
	})

	t.Run("failed save removes the uploaded blob and publishes nothing", func(t *testing.T) {
		d := newTestService(t)
		d.repo.EXPECT().RoomByID(gomock.Any(), "room-1").Return(testRoom, nil)
		d.repo.EXPECT().RoomMembers(gomock.Any(), "room-1").Return(testMembers, nil)
		d.blobs.EXPECT().UploadFile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&dbmongo.MediaFile{ID: "f-1"}, nil)
		d.repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("database error"))
		d.blobs.EXPECT().DeleteFile(gomock.Any(), "f-1").Return(nil)

		_, err := d.service.CreateMessage(context.Background(), NewMessage{
			RoomID:     "room-1",
			CreatorID:  "user-1",
			Attachment: &NewAttachment{Filename: "a.txt", Content: strings.NewReader("x")},
		})
		assert.EqualError(t, err, "database error")
	})

	tests := []struct {
		name    string
		req     NewMessage
		setup   func(d *testDeps)
		wantErr error
		errMsg  string
	}{
		{
			name:   "empty room ID",
			req:    NewMessage{CreatorID: "user-1", Body: "hi"},
			setup:  func(d *testDeps) {},
			errMsg: "room ID cannot be empty",
		},
		{
			name:   "empty creator ID",
			req:    NewMessage{RoomID: "room-1", Body: "hi"},
			setup:  func(d *testDeps) {},
			errMsg: "creator ID cannot be empty",
		},
		{
			name:    "no body and no attachment",
			req:     NewMessage{RoomID: "room-1", CreatorID: "user-1", Body: "   "},
			setup:   func(d *testDeps) {},
			wantErr: common.ErrEmptyMessage,
		},
		{
			name: "unknown room",
			req:  NewMessage{RoomID: "room-x", CreatorID: "user-1", Body: "hi"},
			setup: func(d *testDeps) {
				d.repo.EXPECT().RoomByID(gomock.Any(), "room-x").Return(nil, common.ErrRoomNotFound)
			},
			wantErr: common.ErrRoomNotFound,
		},
		{
			name: "creator outside the room",
			req:  NewMessage{RoomID: "room-1", CreatorID: "user-9", Body: "hi"},
			setup: func(d *testDeps) {
				d.repo.EXPECT().RoomByID(gomock.Any(), "room-1").Return(testRoom, nil)
				d.repo.EXPECT().RoomMembers(gomock.Any(), "room-1").Return(testMembers, nil)
			},
			wantErr: common.ErrNotRoomMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestService(t)
			tt.setup(d)

			msg, err := d.service.CreateMessage(context.Background(), tt.req)

			assert.Nil(t, msg)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.EqualError(t, err, tt.errMsg)
			}
		})
	}
}

func TestChatService_GetMessage(t *testing.T) {
	t.Run("message from another room", func(t *testing.T) {
		d := newTestService(t)
		d.repo.EXPECT().RoomByID(gomock.Any(), "room-1").Return(testRoom, nil)
		d.repo.EXPECT().RoomMembers(gomock.Any(), "room-1").Return(testMembers, nil)
		d.repo.EXPECT().ByID(gomock.Any(), "msg-9").Return(&dbmysql.Message{ID: "msg-9", RoomID: "room-2"}, nil)

		_, err := d.service.GetMessage(context.Background(), "user-1", "room-1", "msg-9")
		assert.ErrorIs(t, err, common.ErrMessageNotFound)
	})

	t.Run("viewer outside the room", func(t *testing.T) {
		d := newTestService(t)
		d.repo.EXPECT().RoomByID(gomock.Any(), "room-1").Return(testRoom, nil)
		d.repo.EXPECT().RoomMembers(gomock.Any(), "room-1").Return(testMembers, nil)

		_, err := d.service.GetMessage(context.Background(), "user-9", "room-1", "msg-1")
		assert.ErrorIs(t, err, common.ErrNotRoomMember)
	})
}

func TestChatService_GetMessageHistory(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"default limit", 0, defaultHistoryLimit},
		{"custom limit", 10, 10},
		{"capped limit", 1000, maxHistoryLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestService(t)
			d.repo.EXPECT().RoomByID(gomock.Any(), "room-1").Return(testRoom, nil)
			d.repo.EXPECT().RoomMembers(gomock.Any(), "room-1").Return(testMembers, nil)
			d.repo.EXPECT().FetchHistory(gomock.Any(), "room-1", tt.wantLimit).
				Return([]*dbmysql.Message{{ID: "msg-1"}}, nil)

			msgs, err := d.service.GetMessageHistory(context.Background(), "user-1", "room-1", tt.limit)

			require.NoError(t, err)
			assert.Len(t, msgs, 1)
		})
	}

	t.Run("empty room ID", func(t *testing.T) {
		d := newTestService(t)
		_, err := d.service.GetMessageHistory(context.Background(), "user-1", "", 10)
		assert.EqualError(t, err, "room ID is required")
	})
}

func TestMentionees(t *testing.T) {
	got := mentionees(testMembers, nil, "thanks @reporter, and @nobody.")
	require.Len(t, got, 1)
	assert.Equal(t, "bot-1", got[0].ID)

	assert.Empty(t, mentionees(testMembers, nil, "mail me at alice@example.com"))
}
