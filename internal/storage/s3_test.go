package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri     string
		want    Location
		wantErr bool
	}{
		{uri: "s3://bucket/dir/file.pdf", want: Location{Bucket: "bucket", Key: "dir/file.pdf"}},
		{uri: "s3://bucket", want: Location{Bucket: "bucket"}},
		{uri: "s3://bucket/", want: Location{Bucket: "bucket"}},
		{uri: "s3:///key", wantErr: true},
		{uri: "https://bucket/key", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := ParseURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocationJoin(t *testing.T) {
	assert.Equal(t, "s3://b/out/a.pdf", Location{Bucket: "b", Key: "out/"}.Join("a.pdf").String())
	assert.Equal(t, "s3://b/out/a.pdf", Location{Bucket: "b", Key: "out"}.Join("a.pdf").String())
	assert.Equal(t, "s3://b/a.pdf", Location{Bucket: "b"}.Join("a.pdf").String())
}
