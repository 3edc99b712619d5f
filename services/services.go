// Package services holds the narrow contracts for the portal's external
// collaborators: email delivery, resume file storage and the resume scorer.
// Production implementations (SaaS mailers, cloud buckets, LLM scorers) live
// outside this repository; the portal only depends on these interfaces.
package services

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Mailer delivers transactional mail (application confirmations, shortlist
// notifications).
type Mailer interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// FileStorage stores uploaded resumes and returns a URL the frontend can
// render.
type FileStorage interface {
	Put(ctx context.Context, name string, content io.Reader) (url string, err error)
	Delete(ctx context.Context, name string) error
}

// ResumeScorer rates a stored resume against a job description, returning a
// score in [0, 100].
type ResumeScorer interface {
	Score(ctx context.Context, resumeURL string, jobDescription string) (float64, error)
}

// LogMailer is the development Mailer: it logs instead of sending.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to string, subject string, _ string) error {
	log.Printf("[INFO] mail to %s: %s", to, subject)
	return nil
}

// LocalFileStorage keeps files on the local disk and serves them under
// /files. Suitable for development and single-instance deployments.
type LocalFileStorage struct {
	Directory string
	BaseURL   string
}

func NewLocalFileStorage(directory string, baseURL string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, err
	}

	return &LocalFileStorage{Directory: directory, BaseURL: baseURL}, nil
}

func (storage *LocalFileStorage) Put(_ context.Context, name string, content io.Reader) (string, error) {
	path := filepath.Join(storage.Directory, filepath.Base(name))

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, content); err != nil {
		os.Remove(path)
		return "", err
	}

	return storage.BaseURL + "/" + filepath.Base(name), nil
}

func (storage *LocalFileStorage) Delete(_ context.Context, name string) error {
	return os.Remove(filepath.Join(storage.Directory, filepath.Base(name)))
}
