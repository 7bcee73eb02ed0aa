package publish

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

//go:generate go tool mockgen -source=blob_client_wrappers.go -destination=mock_uploader_test.go -package=publish

// uploader is just an interface over [*azblob.Client]
type uploader interface {
	// UploadBuffer maps to [azblob.Client.UploadBuffer]
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte) error
}

func newBlobUploader(accountURL string, cred azcore.TokenCredential) (uploader, error) {
	client, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, err
	}
	return &blobClientWrapper{inner: client}, nil
}

func defaultCredential() (azcore.TokenCredential, error) {
	return azidentity.NewDefaultAzureCredential(nil)
}

// blobClientWrapper forwards to [azblob.Client], dropping the upload response
// which nothing here needs.
type blobClientWrapper struct {
	inner *azblob.Client
}

func (w *blobClientWrapper) UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte) error {
	_, err := w.inner.UploadBuffer(ctx, containerName, blobName, buffer, nil)
	return err
}
