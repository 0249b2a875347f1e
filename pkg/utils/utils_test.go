package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	items := make([]int, 250)
	chunks := Chunk(items, 100)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[2], 50)

	assert.Empty(t, Chunk([]int{}, 100))
	assert.Len(t, Chunk([]int{1, 2, 3}, 0), 1)
}

func TestTruncateToDate(t *testing.T) {
	got := TruncateToDate(time.Date(2024, 5, 10, 13, 45, 0, 0, time.UTC))
	assert.Equal(t, "2024-05-10", got.Format(DateLayout))
	assert.Zero(t, got.Hour())
}
