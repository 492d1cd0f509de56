package objectstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		uri     string
		want    Location
		wantErr bool
	}{
		{
			name: "BucketAndKey",
			uri:  "s3://history-bucket/athena/state.json",
			want: Location{Scheme: "s3", Bucket: "history-bucket", Key: "athena/state.json"},
		},
		{
			name: "TrailingSlashKept",
			uri:  "s3://history-bucket/some/prefix/",
			want: Location{Scheme: "s3", Bucket: "history-bucket", Key: "some/prefix/"},
		},
		{
			name: "BucketOnly",
			uri:  "s3://history-bucket",
			want: Location{Scheme: "s3", Bucket: "history-bucket"},
		},
		{name: "MissingScheme", uri: "history-bucket/key", wantErr: true},
		{name: "EmptyScheme", uri: "://bucket/key", wantErr: true},
		{name: "MissingBucket", uri: "s3:///key", wantErr: true},
		{name: "Empty", uri: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseURI(tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocation_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "s3://b/k", Location{Scheme: "s3", Bucket: "b", Key: "k"}.String())
}
