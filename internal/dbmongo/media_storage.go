package dbmongo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"botrelay/internal/common"
)

var ErrFileNotFound = errors.New("file not found")

type MediaStorage struct {
	gridFS *gridfs.Bucket
}

func NewMediaStorage(mongoClient *MongoClient) *MediaStorage {
	return &MediaStorage{
		gridFS: mongoClient.GridFS,
	}
}

// MediaFile describes one stored attachment blob.
type MediaFile struct {
	ID          string               `json:"id"` // GridFS ObjectID
	Filename    string               `json:"filename"`
	ContentType string               `json:"content_type"`
	Size        int64                `json:"size"`
	FileType    common.MediaFileType `json:"file_type"`
	UploadedBy  string               `json:"uploaded_by"`
	UploadedAt  time.Time            `json:"uploaded_at"`
}

func (ms *MediaStorage) UploadFile(ctx context.Context, filename, contentType, uploaderID string, content io.Reader) (*MediaFile, error) {
	contentType = common.NormalizeContentType(contentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	fileType := common.DetectFileType(contentType)
	uploadedAt := time.Now().UTC()

	metadata := bson.M{
		"file_type":    fileType.String(),
		"content_type": contentType,
		"uploaded_by":  uploaderID,
		"uploaded_at":  uploadedAt,
	}

	stream, err := ms.gridFS.OpenUploadStream(filename, options.GridFSUpload().SetMetadata(metadata))
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}

	size, err := io.Copy(stream, content)
	if err != nil {
		_ = stream.Abort()
		return nil, fmt.Errorf("file copy failed: %w", err)
	}
	if err := stream.Close(); err != nil {
		return nil, fmt.Errorf("upload finalize failed: %w", err)
	}

	fileID, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected file id type %T", stream.FileID)
	}

	return &MediaFile{
		ID:          fileID.Hex(),
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		FileType:    fileType,
		UploadedBy:  uploaderID,
		UploadedAt:  uploadedAt,
	}, nil
}

// DownloadFile opens a stored blob. The caller must close the returned reader.
func (ms *MediaStorage) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, *MediaFile, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid file ID: %w", err)
	}

	stream, err := ms.gridFS.OpenDownloadStream(objectID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", fileID, ErrFileNotFound)
		}
		return nil, nil, fmt.Errorf("download failed: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}

	fileInfo := stream.GetFile()
	var metadata bson.M
	if fileInfo.Metadata != nil {
		_ = bson.Unmarshal(fileInfo.Metadata, &metadata)
	}

	return stream, mediaFileFrom(fileID, fileInfo.Name, fileInfo.Length, fileInfo.UploadDate, metadata), nil
}

func (ms *MediaStorage) DeleteFile(ctx context.Context, fileID string) error {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return fmt.Errorf("invalid file ID: %w", err)
	}
	return ms.gridFS.DeleteContext(ctx, objectID)
}

func mediaFileFrom(id, name string, length int64, uploadDate time.Time, metadata bson.M) *MediaFile {
	contentType := getStringFromMap(metadata, "content_type")
	fileType := common.MediaFileType(getStringFromMap(metadata, "file_type"))
	if fileType == "" {
		fileType = common.DetectFileType(contentType)
	}
	return &MediaFile{
		ID:          id,
		Filename:    name,
		ContentType: contentType,
		Size:        length,
		FileType:    fileType,
		UploadedBy:  getStringFromMap(metadata, "uploaded_by"),
		UploadedAt:  uploadDate,
	}
}

func getStringFromMap(m bson.M, key string) string {
	if m == nil {
		return ""
	}
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
