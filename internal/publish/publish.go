// Package publish uploads written reports to Azure Blob storage so CI
// systems can pick them up as build artifacts.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Publisher uploads a report file.
type Publisher interface {
	Publish(ctx context.Context, path string) (string, error)
}

// BlobPublisher uploads reports into one blob container.
type BlobPublisher struct {
	client     uploader
	accountURL string
	container  string
	prefix     string
}

// NewBlobPublisher returns a publisher for container in the storage account
// at accountURL, authenticated with the default Azure credential chain
// (environment, workload identity, managed identity, Azure CLI).
func NewBlobPublisher(accountURL, container string) (*BlobPublisher, error) {
	if accountURL == "" {
		return nil, errors.New("publish: account URL is required")
	}
	if container == "" {
		return nil, errors.New("publish: container is required")
	}

	cred, err := defaultCredential()
	if err != nil {
		return nil, fmt.Errorf("creating azure credential: %w", err)
	}

	client, err := newBlobUploader(accountURL, cred)
	if err != nil {
		return nil, fmt.Errorf("creating blob client for %s: %w", accountURL, err)
	}

	return newBlobPublisher(client, accountURL, container), nil
}

func newBlobPublisher(client uploader, accountURL, container string) *BlobPublisher {
	return &BlobPublisher{
		client:     client,
		accountURL: accountURL,
		container:  container,
	}
}

// WithPrefix stores reports under prefix inside the container, for example a
// build number.
func (p *BlobPublisher) WithPrefix(prefix string) *BlobPublisher {
	p.prefix = strings.Trim(prefix, "/")
	return p
}

// Publish uploads the file at filePath under its base name and returns the
// blob URL.
func (p *BlobPublisher) Publish(ctx context.Context, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filePath, err)
	}

	blobName := filepath.Base(filePath)
	if p.prefix != "" {
		blobName = path.Join(p.prefix, blobName)
	}

	slog.Debug("Uploading report", "container", p.container, "blob", blobName, "bytes", len(data))
	if err := p.client.UploadBuffer(ctx, p.container, blobName, data); err != nil {
		return "", fmt.Errorf("uploading %s to container %s: %w", blobName, p.container, err)
	}

	return strings.TrimRight(p.accountURL, "/") + "/" + p.container + "/" + blobName, nil
}
