// Package cloudinary uploads images through Cloudinary's unsigned upload
// endpoint. One POST per file, multipart-encoded, authenticated by the
// upload preset alone.
package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"walletbook/internal/core"
)

type Client struct {
	httpClient   *http.Client
	uploadURL    string
	uploadPreset string
}

// New creates a client for the given cloud name and unsigned upload preset.
func New(cloudName, uploadPreset string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		uploadURL:    fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", cloudName),
		uploadPreset: uploadPreset,
	}
}

// NewWithBaseURL points the client at a different API host. Used by tests.
func NewWithBaseURL(baseURL, uploadPreset string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		uploadURL:    baseURL,
		uploadPreset: uploadPreset,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Upload(ctx context.Context, ref *core.ImageRef, folder string) (string, error) {
	if ref.IsRemote() {
		return ref.URL, nil
	}
	if !ref.NeedsUpload() {
		return "", errors.New("image reference has no file to upload")
	}

	file, err := os.Open(ref.URI)
	if err != nil {
		return "", fmt.Errorf("open image file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(ref.URI))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("read image file: %w", err)
	}
	if err := mw.WriteField("upload_preset", c.uploadPreset); err != nil {
		return "", fmt.Errorf("write upload preset: %w", err)
	}
	if err := mw.WriteField("folder", folder); err != nil {
		return "", fmt.Errorf("write folder: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := parsed.Error.Message
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("upload rejected: %s", msg)
	}
	if parsed.SecureURL == "" {
		return "", errors.New("upload response missing secure_url")
	}

	slog.InfoContext(ctx, "Image uploaded",
		"folder", folder,
		"url", parsed.SecureURL)

	return parsed.SecureURL, nil
}
