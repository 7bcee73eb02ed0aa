package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func writeReport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alice_build01 2025-06-15 12_00_00.trx")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPublish(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockuploader(ctrl)

	path := writeReport(t, "<TestRun/>")
	client.EXPECT().
		UploadBuffer(gomock.Any(), "reports", "alice_build01 2025-06-15 12_00_00.trx", []byte("<TestRun/>")).
		Return(nil)

	p := newBlobPublisher(client, "https://acct.blob.core.windows.net/", "reports")
	url, err := p.Publish(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "https://acct.blob.core.windows.net/reports/alice_build01 2025-06-15 12_00_00.trx", url)
}

func TestPublishWithPrefix(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockuploader(ctrl)

	path := writeReport(t, "x")
	client.EXPECT().
		UploadBuffer(gomock.Any(), "reports", "builds/42/alice_build01 2025-06-15 12_00_00.trx", gomock.Any()).
		Return(nil)

	p := newBlobPublisher(client, "https://acct.blob.core.windows.net", "reports").WithPrefix("/builds/42/")
	url, err := p.Publish(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "https://acct.blob.core.windows.net/reports/builds/42/alice_build01 2025-06-15 12_00_00.trx", url)
}

func TestPublishUploadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockuploader(ctrl)

	uploadErr := errors.New("403 AuthorizationFailure")
	client.EXPECT().UploadBuffer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(uploadErr)

	p := newBlobPublisher(client, "https://acct.blob.core.windows.net", "reports")
	_, err := p.Publish(context.Background(), writeReport(t, "x"))
	require.ErrorIs(t, err, uploadErr)
}

func TestPublishMissingFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockuploader(ctrl)

	p := newBlobPublisher(client, "https://acct.blob.core.windows.net", "reports")
	_, err := p.Publish(context.Background(), filepath.Join(t.TempDir(), "missing.trx"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewBlobPublisherValidation(t *testing.T) {
	_, err := NewBlobPublisher("", "reports")
	require.Error(t, err)

	_, err = NewBlobPublisher("https://acct.blob.core.windows.net", "")
	require.Error(t, err)
}
