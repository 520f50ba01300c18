package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"doubloon-tracker/core/storage"
	"doubloon-tracker/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNewClient(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			Bucket:    "leaderboard",
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTPS", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "https://s3.amazonaws.com",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    true,
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("Exists", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "leaderboard").Return(true, nil)

		assert.NoError(t, storage.EnsureBucket(ctx, client, "leaderboard", ""))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Creates", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "leaderboard").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "leaderboard", minio.MakeBucketOptions{Region: "eu"}).Return(nil)

		assert.NoError(t, storage.EnsureBucket(ctx, client, "leaderboard", "eu"))
		client.AssertExpectations(t)
	})

	t.Run("CheckFails", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "leaderboard").Return(false, errors.New("dial tcp: refused"))

		err := storage.EnsureBucket(ctx, client, "leaderboard", "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "refused")
	})
}

func TestConfig(t *testing.T) {
	assert.Equal(t, storage.DefaultTimeout, storage.Config{}.Timeout())
	assert.Equal(t, 5*time.Second, storage.Config{TimeoutSeconds: 5}.Timeout())

	err := storage.Config{Endpoint: "localhost:9000"}.Validate()
	assert.ErrorContains(t, err, "bucket is empty")
	assert.ErrorContains(t, err, "access_key")

	assert.NoError(t, storage.Config{Endpoint: "localhost:9000", Bucket: "leaderboard", AccessKey: "k", SecretKey: "s"}.Validate())
}
