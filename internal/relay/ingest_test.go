package relay

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botrelay/internal/chat/service"
	"botrelay/internal/dbmysql"
	"botrelay/internal/relay/mocks"
)

func newIngestorWithMock(t *testing.T) (*Ingestor, *mocks.MockMessageCreator) {
	ctrl := gomock.NewController(t)
	creator := mocks.NewMockMessageCreator(ctrl)
	return NewIngestor(creator, zerolog.Nop()), creator
}

func TestIngestor_TextReply(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantBody    string
	}{
		{"plain text is escaped", "text/plain", "  1 < 2 & ok \n", "1 &lt; 2 &amp; ok"},
		{"html is kept", "text/html", "<p>ok</p>", "<p>ok</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingestor, creator := newIngestorWithMock(t)
			task := textTask("m1", botA)

			creator.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, req service.NewMessage) (*dbmysql.Message, error) {
					assert.Equal(t, groupRoom.ID, req.RoomID)
					assert.Equal(t, botA.ID, req.CreatorID)
					assert.Equal(t, tt.wantBody, req.Body)
					require.NotNil(t, req.CausedByMessageID)
					assert.Equal(t, "m1", *req.CausedByMessageID)
					assert.Nil(t, req.Attachment)
					return &dbmysql.Message{ID: "reply-1", RoomID: req.RoomID, CreatorID: req.CreatorID}, nil
				})

			msg, err := ingestor.Ingest(context.Background(), task, &Reply{ContentType: tt.contentType, Body: []byte(tt.body)})

			require.NoError(t, err)
			assert.Equal(t, "reply-1", msg.ID)
		})
	}
}

func TestIngestor_AttachmentReply(t *testing.T) {
	ingestor, creator := newIngestorWithMock(t)
	task := textTask("m1", botA)
	content := []byte("%PDF-1.4 report")

	creator.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req service.NewMessage) (*dbmysql.Message, error) {
			require.NotNil(t, req.Attachment)
			assert.Equal(t, "attachment.pdf", req.Attachment.Filename)
			assert.Equal(t, "application/pdf", req.Attachment.ContentType)
			data, err := io.ReadAll(req.Attachment.Content)
			require.NoError(t, err)
			assert.Equal(t, content, data)
			assert.Empty(t, req.Body)
			assert.Equal(t, "m1", *req.CausedByMessageID)
			return &dbmysql.Message{ID: "reply-2"}, nil
		})

	msg, err := ingestor.Ingest(context.Background(), task, &Reply{ContentType: "application/pdf", Body: content, Extension: "pdf"})

	require.NoError(t, err)
	assert.Equal(t, "reply-2", msg.ID)
}

func TestIngestor_Errors(t *testing.T) {
	t.Run("nil reply", func(t *testing.T) {
		ingestor, _ := newIngestorWithMock(t)
		_, err := ingestor.Ingest(context.Background(), textTask("m1", botA), nil)
		assert.Error(t, err)
	})

	t.Run("creation failure is wrapped", func(t *testing.T) {
		ingestor, creator := newIngestorWithMock(t)
		creator.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).Return(nil, errors.New("room gone"))

		_, err := ingestor.Ingest(context.Background(), textTask("m1", botA), &Reply{ContentType: "text/plain", Body: []byte("ok")})
		assert.ErrorContains(t, err, "failed to create text reply: room gone")
	})
}

func TestIngestor_IngestTimeout(t *testing.T) {
	ingestor, creator := newIngestorWithMock(t)
	creator.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req service.NewMessage) (*dbmysql.Message, error) {
			assert.Equal(t, "Failed to respond within 7 seconds", req.Body)
			assert.Equal(t, botA.ID, req.CreatorID)
			return &dbmysql.Message{ID: "reply-3"}, nil
		})

	_, err := ingestor.IngestTimeout(context.Background(), textTask("m1", botA), 7*time.Second)
	require.NoError(t, err)
}

func TestTimeoutReplyText(t *testing.T) {
	assert.Equal(t, "Failed to respond within 7 seconds", TimeoutReplyText(7*time.Second))
	assert.Equal(t, "Failed to respond within 1 second", TimeoutReplyText(time.Second))
	assert.Equal(t, "Failed to respond within 1.5s", TimeoutReplyText(1500*time.Millisecond))
}
