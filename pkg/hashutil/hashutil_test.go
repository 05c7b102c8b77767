package hashutil_test

import (
	"encoding/hex"
	"testing"

	"github.com/rohmanhakim/aoc-fetch/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/blake3"
)

func TestHashBytes_SHA256(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{
			name:     "empty data",
			data:     []byte{},
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:     "simple string",
			data:     []byte("hello world"),
			expected: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
		{
			name:     "longer text",
			data:     []byte("The quick brown fox jumps over the lazy dog"),
			expected: "d7a8fbb307d7809469ca9abcb0082e4f8d5651e46d3cdb762d02d0bf37c9e592",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := hashutil.HashBytes(tt.data, hashutil.HashAlgoSHA256)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestHashBytes_BLAKE3(t *testing.T) {
	inputs := [][]byte{
		{},
		[]byte("hello world"),
		[]byte("123\n456"),
		{0x00, 0x01, 0x02, 0x03, 0xff, 0xfe, 0xfd, 0xfc},
	}

	for _, data := range inputs {
		result, err := hashutil.HashBytes(data, hashutil.HashAlgoBLAKE3)
		require.NoError(t, err)

		expectedHash := blake3.Sum256(data)
		assert.Equal(t, hex.EncodeToString(expectedHash[:]), result)
		assert.Len(t, result, 64)
	}
}

func TestHashBytes_UnsupportedAlgorithm(t *testing.T) {
	_, err := hashutil.HashBytes([]byte("data"), hashutil.HashAlgo("md5"))
	assert.Error(t, err)
}

func TestParseHashAlgo(t *testing.T) {
	algo, err := hashutil.ParseHashAlgo("blake3")
	require.NoError(t, err)
	assert.Equal(t, hashutil.HashAlgoBLAKE3, algo)

	algo, err = hashutil.ParseHashAlgo("sha256")
	require.NoError(t, err)
	assert.Equal(t, hashutil.HashAlgoSHA256, algo)

	_, err = hashutil.ParseHashAlgo("crc32")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	data := []byte("123\n456")
	digest, err := hashutil.HashBytes(data, hashutil.HashAlgoBLAKE3)
	require.NoError(t, err)

	assert.True(t, hashutil.Verify(data, hashutil.HashAlgoBLAKE3, digest))
	assert.False(t, hashutil.Verify([]byte("123\n45"), hashutil.HashAlgoBLAKE3, digest))
	assert.False(t, hashutil.Verify(data, hashutil.HashAlgoSHA256, digest))
	assert.False(t, hashutil.Verify(data, hashutil.HashAlgo("md5"), digest))
	assert.False(t, hashutil.Verify(data, hashutil.HashAlgoBLAKE3, ""))
}
