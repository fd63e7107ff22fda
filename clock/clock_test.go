package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFakeClock_Advance(t *testing.T) {
	req := require.New(t)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := Fake(start)

	req.Equal(start, c.Now())
	req.Equal(start.Add(5*time.Second), c.Advance(5*time.Second))
	req.Equal(start.Add(5*time.Second), c.Now())

	c.Set(start)
	req.Equal(start, c.Now())
}
