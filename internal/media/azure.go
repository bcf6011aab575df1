package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureStore stores blobs in an Azure Blob Storage container.
type AzureStore struct {
	client    *azblob.Client
	container string
}

var _ Store = (*AzureStore)(nil)

// NewAzureStore authenticates with the default credential chain and targets
// one container under the given account URL.
func NewAzureStore(accountURL, container string) (*AzureStore, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	client, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azure blob client: %w", err)
	}
	return &AzureStore{client: client, container: container}, nil
}

func (s *AzureStore) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	}
	if _, err := s.client.UploadStream(ctx, s.container, key, body, opts); err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}
	return nil
}

func (s *AzureStore) Get(ctx context.Context, key string) (Object, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		if isBlobNotFound(err) {
			return Object{}, sql.ErrNoRows
		}
		return Object{}, fmt.Errorf("download blob %s: %w", key, err)
	}

	obj := Object{Key: key, Body: resp.Body}
	if resp.ContentType != nil {
		obj.ContentType = *resp.ContentType
	}
	if resp.ContentLength != nil {
		obj.Size = *resp.ContentLength
	}
	return obj, nil
}

func (s *AzureStore) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteBlob(ctx, s.container, key, nil); err != nil {
		if isBlobNotFound(err) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

func isBlobNotFound(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.ErrorCode == string(bloberror.BlobNotFound)
	}
	return false
}
