package gcs

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestTmpObjectName(t *testing.T) {
	c := clockwork.NewFakeClockAt(time.Date(2024, 6, 2, 10, 4, 5, 0, time.UTC))

	assert.Equal(t, "2024-06-02/top_10_songs.png.tmp-20240602-100405", tmpObjectName("2024-06-02/top_10_songs.png", c))
}

func TestNew(t *testing.T) {
	s := New("charts-bucket")

	assert.Equal(t, "charts-bucket", s.bucket)
	assert.NotNil(t, s.clock)
}
