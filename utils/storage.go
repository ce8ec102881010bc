package utils

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"

	storage "github.com/supabase-community/storage-go"

	"uvocollab/config"
)

func storageClient() *storage.Client {
	return storage.NewClient(config.AppConfig.SupabaseURL+"/storage/v1", config.AppConfig.SupabaseKey, nil)
}

func publicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		config.AppConfig.SupabaseURL, config.AppConfig.SupabaseBucket, objectPath)
}

func uploadMultipart(fileHeader *multipart.FileHeader, objectPath string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", err
	}

	contentType := fileHeader.Header.Get("Content-Type")
	options := storage.FileOptions{
		ContentType: &contentType,
	}

	if _, err := storageClient().UploadFile(config.AppConfig.SupabaseBucket, objectPath, &buf, options); err != nil {
		return "", err
	}

	return publicURL(objectPath), nil
}

// UploadDeliverable stores a deliverable file under
// deliverables/<collab-id>/<fileID><ext> and returns its public URL.
func UploadDeliverable(fileHeader *multipart.FileHeader, collabID uint, fileID string) (string, error) {
	ext := filepath.Ext(fileHeader.Filename)
	objectPath := fmt.Sprintf("deliverables/%d/%s%s", collabID, fileID, ext)
	return uploadMultipart(fileHeader, objectPath)
}

// UploadAvatar stores a profile image under avatars/<fileID>.<ext>.
func UploadAvatar(fileHeader *multipart.FileHeader, fileID string) (string, error) {
	ext := filepath.Ext(fileHeader.Filename)
	objectPath := fmt.Sprintf("avatars/%s%s", fileID, ext)
	return uploadMultipart(fileHeader, objectPath)
}

// UploadPodcastCover stores a show cover under covers/<fileID>.<ext>.
func UploadPodcastCover(fileHeader *multipart.FileHeader, fileID string) (string, error) {
	ext := filepath.Ext(fileHeader.Filename)
	objectPath := fmt.Sprintf("covers/%s%s", fileID, ext)
	return uploadMultipart(fileHeader, objectPath)
}
