package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"managerconsole/internal/errdefs"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	bucketErr error
	putErr    error

	put  *s3.PutObjectInput
	body []byte
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.put = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) CreateBucket(context.Context, *s3.CreateBucketInput, ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	return &s3.CreateBucketOutput{}, f.bucketErr
}

type fakePresigner struct {
	in *s3.GetObjectInput
}

func (f *fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.in = in
	return &v4.PresignedHTTPRequest{URL: "http://minio/exports/" + *in.Key + "?X-Amz-Signature=abc", Method: http.MethodGet}, nil
}

func statusErr(code int) error {
	return &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: code}},
			Err:      errors.New("bucket error"),
		},
	}
}

func TestStore(t *testing.T) {
	objects := &fakeObjects{}
	presigner := &fakePresigner{}
	a := newArchive(objects, presigner, "exports", time.Minute)
	issued := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return issued }

	link, err := a.Store(context.Background(), "M1/report.xlsx", "application/test", []byte("data"))
	require.NoError(t, err)

	assert.Equal(t, "M1/report.xlsx", link.Key)
	assert.Contains(t, link.URL, "M1/report.xlsx")
	assert.Equal(t, issued.Add(time.Minute), link.ExpiresAt)

	require.NotNil(t, objects.put)
	assert.Equal(t, "exports", *objects.put.Bucket)
	assert.Equal(t, "application/test", *objects.put.ContentType)
	assert.Equal(t, int64(4), *objects.put.ContentLength)
	assert.Equal(t, []byte("data"), objects.body)
	assert.Equal(t, "exports", *presigner.in.Bucket)
}

func TestStore_PutFailure(t *testing.T) {
	a := newArchive(&fakeObjects{putErr: errors.New("denied")}, &fakePresigner{}, "exports", 0)

	_, err := a.Store(context.Background(), "k", "text/plain", nil)
	assert.ErrorContains(t, err, "put object k")
	assert.Equal(t, DefaultURLTTL, a.ttl)
}

func TestEnsureBucket(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "Created", err: nil},
		{name: "Already exists", err: statusErr(http.StatusConflict)},
		{name: "Forbidden", err: statusErr(http.StatusForbidden), wantErr: true},
		{name: "Network", err: errors.New("dial tcp"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newArchive(&fakeObjects{bucketErr: tt.err}, &fakePresigner{}, "exports", 0)
			err := a.ensureBucket(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Store(context.Background(), "k", "text/plain", nil)
	assert.ErrorIs(t, err, errdefs.ErrUnavailable)
}
