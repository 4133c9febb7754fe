package s3store

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (c *recordingClient) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	c.input = in
	data, _ := io.ReadAll(in.Body)
	c.body = string(data)
	return &s3.PutObjectOutput{}, c.err
}

// onlyReader hides the Seek method of strings.Reader.
type onlyReader struct{ io.Reader }

func TestStore_Put(t *testing.T) {
	client := &recordingClient{}
	store := New(client, "lab-files")

	url, err := store.Put(context.Background(), "orders/1/a.stl", "model/stl", 11, strings.NewReader("solid model"))

	require.NoError(t, err)
	assert.Equal(t, "/uploads/orders/1/a.stl", url)
	assert.Equal(t, "lab-files", aws.ToString(client.input.Bucket))
	assert.Equal(t, "orders/1/a.stl", aws.ToString(client.input.Key))
	assert.Equal(t, "model/stl", aws.ToString(client.input.ContentType))
	assert.Equal(t, int64(11), aws.ToInt64(client.input.ContentLength))
	assert.Equal(t, "solid model", client.body)
}

func TestStore_Put_BuffersStreams(t *testing.T) {
	client := &recordingClient{}
	store := New(client, "lab-files")

	_, err := store.Put(context.Background(), "k", "text/plain", -1, onlyReader{strings.NewReader("abc")})

	require.NoError(t, err)
	assert.Equal(t, int64(3), aws.ToInt64(client.input.ContentLength))
	assert.Equal(t, "abc", client.body)
}

func TestStore_Put_WrapsErrors(t *testing.T) {
	denied := errors.New("access denied")
	store := New(&recordingClient{err: denied}, "lab-files")

	_, err := store.Put(context.Background(), "k", "text/plain", 1, strings.NewReader("a"))

	assert.ErrorIs(t, err, denied)
}
