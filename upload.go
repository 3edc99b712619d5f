package rest

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/bytes"

	"github.com/talentbridge/placement-rest/http_errors"
)

// FileExtension is a lowercase extension including the dot (".pdf").
type FileExtension string

// DefaultMaxFileSize applies when a FileUploadConfig does not set a limit.
var DefaultMaxFileSize, _ = bytes.Parse("5MB")

// FileUploadConfig configures multipart uploads for one endpoint.
type FileUploadConfig struct {
	MaxFileSize        int64                       // Max file size in bytes (0 = DefaultMaxFileSize)
	FileFields         map[string]*FileFieldConfig // Configuration for specific file fields
	UploadPath         string                      // Base upload directory
	TempPath           string                      // Temporary files directory
	KeepFilesAfterSend bool                        // Whether to keep files after response
}

// FileFieldConfig restricts a single form field.
type FileFieldConfig struct {
	Required     bool
	MaxFileSize  int64 // Max file size for this field (0 = use global)
	AllowedTypes []FileExtension
	MaxFiles     int // Maximum number of files for this field (0 = unlimited)
}

// UploadedFile represents an uploaded file stored on disk.
type UploadedFile struct {
	FieldName    string `json:"field_name"`
	OriginalName string `json:"original_name"`
	Filename     string `json:"filename"`
	Size         int64  `json:"size"`
	Extension    string `json:"extension"`
	MimeType     string `json:"mime_type"`
	Path         string `json:"path"`
}

// UploadHandler streams multipart file parts to disk, enforcing size and type
// limits before the whole body has been read.
type UploadHandler struct {
	config *FileUploadConfig
}

func NewUploadHandler(config *FileUploadConfig) *UploadHandler {
	if config.TempPath == "" {
		config.TempPath = os.TempDir()
	}
	if config.UploadPath == "" {
		config.UploadPath = "./uploads"
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = DefaultMaxFileSize
	}
	os.MkdirAll(config.UploadPath, 0755)

	return &UploadHandler{config: config}
}

// ProcessUploads reads the multipart body part by part. Files are written to
// disk under a fresh unique name; any failure removes everything written so
// far.
func (h *UploadHandler) ProcessUploads(c echo.Context) (map[string][]*UploadedFile, error) {
	contentType := c.Request().Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return nil, http_errors.BadRequestError("Content-Type must be multipart/form-data")
	}

	if _, _, err := mime.ParseMediaType(contentType); err != nil {
		return nil, http_errors.BadRequestError("Failed to parse Content-Type")
	}

	reader, err := c.Request().MultipartReader()
	if err != nil {
		return nil, http_errors.BadRequestError("Failed to read multipart data")
	}

	uploadedFiles := make(map[string][]*UploadedFile)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			h.cleanupFiles(uploadedFiles)
			return nil, http_errors.BadRequestError("Failed to read multipart data")
		}

		fieldName := part.FormName()
		if part.FileName() == "" || fieldName == "" {
			part.Close()
			continue
		}

		uploadedFile, err := h.processFilePart(fieldName, part)
		part.Close()
		if err != nil {
			h.cleanupFiles(uploadedFiles)
			return nil, err
		}

		uploadedFiles[fieldName] = append(uploadedFiles[fieldName], uploadedFile)
	}

	for fieldName, fieldConfig := range h.config.FileFields {
		files := uploadedFiles[fieldName]

		if fieldConfig.Required && len(files) == 0 {
			h.cleanupFiles(uploadedFiles)
			return nil, http_errors.BadRequestError(fmt.Sprintf("Field '%s' is required", fieldName))
		}

		if fieldConfig.MaxFiles > 0 && len(files) > fieldConfig.MaxFiles {
			h.cleanupFiles(uploadedFiles)
			return nil, http_errors.BadRequestError(
				fmt.Sprintf("Field '%s' exceeds maximum file limit of %d", fieldName, fieldConfig.MaxFiles))
		}
	}

	return uploadedFiles, nil
}

func (h *UploadHandler) processFilePart(fieldName string, part *multipart.Part) (*UploadedFile, error) {
	filename := part.FileName()

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return nil, http_errors.BadRequestError("File must have an extension")
	}

	fieldConfig := h.config.FileFields[fieldName]

	if fieldConfig != nil && len(fieldConfig.AllowedTypes) > 0 {
		allowed := false
		for _, allowedExt := range fieldConfig.AllowedTypes {
			if string(allowedExt) == ext {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, http_errors.NewErrorResponse(415, fmt.Sprintf("File type '%s' is not allowed", ext))
		}
	}

	maxSize := h.config.MaxFileSize
	if fieldConfig != nil && fieldConfig.MaxFileSize > 0 {
		maxSize = fieldConfig.MaxFileSize
	}

	uniqueFilename := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	directory := h.config.UploadPath
	if !h.config.KeepFilesAfterSend {
		directory = h.config.TempPath
	}
	filePath := filepath.Join(directory, uniqueFilename)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, http_errors.InternalServerError("Failed to create destination file")
	}
	defer dst.Close()

	// Stream with the size check before each write so an oversized body is
	// rejected without being stored.
	var totalSize int64
	buffer := make([]byte, 32*1024)

	for {
		n, err := part.Read(buffer)
		if n > 0 {
			totalSize += int64(n)

			if maxSize > 0 && totalSize > maxSize {
				dst.Close()
				os.Remove(filePath)
				return nil, http_errors.NewErrorResponse(413,
					fmt.Sprintf("File size exceeds limit of %d bytes for field '%s'", maxSize, fieldName))
			}

			if _, writeErr := dst.Write(buffer[:n]); writeErr != nil {
				os.Remove(filePath)
				return nil, http_errors.InternalServerError("Failed to write file")
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			os.Remove(filePath)
			return nil, http_errors.BadRequestError("Failed to read uploaded file")
		}
	}

	mimeType := part.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return &UploadedFile{
		FieldName:    fieldName,
		OriginalName: filename,
		Filename:     uniqueFilename,
		Size:         totalSize,
		Extension:    ext,
		MimeType:     mimeType,
		Path:         filePath,
	}, nil
}

func (h *UploadHandler) cleanupFiles(uploadedFiles map[string][]*UploadedFile) {
	for _, files := range uploadedFiles {
		for _, file := range files {
			if file.Path != "" {
				os.Remove(file.Path)
			}
		}
	}
}

// CleanupAfterResponse removes temporary files after the response is sent.
func (h *UploadHandler) CleanupAfterResponse(uploadedFiles map[string][]*UploadedFile) {
	if h.config.KeepFilesAfterSend {
		return
	}

	go func() {
		time.Sleep(100 * time.Millisecond) // Small delay to ensure response is sent
		for _, files := range uploadedFiles {
			for _, file := range files {
				if file.Path != "" {
					os.Remove(file.Path)
				}
			}
		}
	}()
}
