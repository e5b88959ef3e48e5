package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/blobvault"
)

type MockS3API struct {
	mock.Mock
}

func (m *MockS3API) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *MockS3API) UploadPart(ctx context.Context, in *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.UploadPartOutput), args.Error(1)
}

func (m *MockS3API) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.CreateMultipartUploadOutput), args.Error(1)
}

func (m *MockS3API) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.CompleteMultipartUploadOutput), args.Error(1)
}

func (m *MockS3API) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.AbortMultipartUploadOutput), args.Error(1)
}

func (m *MockS3API) HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.HeadObjectOutput), args.Error(1)
}

func (m *MockS3API) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func (m *MockS3API) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

func TestClient_Put(t *testing.T) {
	t.Run("ConditionalWrite", func(t *testing.T) {
		api := new(MockS3API)
		client := NewClient(api, "test-bucket", "prefix")

		api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return *in.Bucket == "test-bucket" &&
				*in.Key == "prefix/foo" &&
				in.IfNoneMatch != nil && *in.IfNoneMatch == "*"
		})).Return(&s3.PutObjectOutput{}, nil).Once()

		err := client.Put(context.Background(), "foo", strings.NewReader("payload"))
		assert.NoError(t, err)
		api.AssertExpectations(t)
	})

	t.Run("PreconditionFailed", func(t *testing.T) {
		api := new(MockS3API)
		client := NewClient(api, "test-bucket", "prefix")

		api.On("PutObject", mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}).Once()

		err := client.Put(context.Background(), "taken", strings.NewReader("payload"))
		assert.ErrorIs(t, err, blobvault.ErrExists)
	})
}

func TestClient_Get(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		api := new(MockS3API)
		client := NewClient(api, "test-bucket", "prefix")

		api.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return *in.Bucket == "test-bucket" && *in.Key == "prefix/missing"
		})).Return(nil, &types.NoSuchKey{}).Once()

		_, err := client.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, blobvault.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		api := new(MockS3API)
		client := NewClient(api, "test-bucket", "prefix")

		api.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return *in.Key == "prefix/bar"
		})).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader("content")),
		}, nil).Once()

		rc, err := client.Get(context.Background(), "bar")
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		assert.Equal(t, "content", string(data))
	})
}

func TestClient_Del(t *testing.T) {
	t.Run("Existing", func(t *testing.T) {
		api := new(MockS3API)
		client := NewClient(api, "test-bucket", "prefix")

		api.On("HeadObject", mock.Anything, mock.MatchedBy(func(in *s3.HeadObjectInput) bool {
			return *in.Key == "prefix/del"
		})).Return(&s3.HeadObjectOutput{ContentLength: aws.Int64(3)}, nil).Once()
		api.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
			return *in.Key == "prefix/del"
		})).Return(&s3.DeleteObjectOutput{}, nil).Once()

		existed, err := client.Del(context.Background(), "del")
		require.NoError(t, err)
		assert.True(t, existed)
		api.AssertExpectations(t)
	})

	t.Run("Missing", func(t *testing.T) {
		api := new(MockS3API)
		client := NewClient(api, "test-bucket", "prefix")

		api.On("HeadObject", mock.Anything, mock.Anything).
			Return(nil, &types.NotFound{}).Once()

		existed, err := client.Del(context.Background(), "gone")
		require.NoError(t, err)
		assert.False(t, existed)
		api.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
	})
}
