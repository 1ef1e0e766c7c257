package blobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashBytes(t *testing.T) {
	// known keccak-256 vectors
	assert.Equal(t,
		"0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		HashBytes(nil))
	assert.Equal(t,
		"0x4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45",
		HashBytes([]byte("abc")))
}

func TestHashBytesIsDeterministic(t *testing.T) {
	data := []byte("memorandum of understanding, final draft")
	assert.Equal(t, HashBytes(data), HashBytes(data))
	assert.NotEqual(t, HashBytes(data), HashBytes(append(data, '.')))
}
