package mathutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAbsDuration(t *testing.T) {
	assert.Equal(t, time.Second, AbsDuration(time.Second))
	assert.Equal(t, time.Second, AbsDuration(-time.Second))
	assert.Equal(t, time.Duration(0), AbsDuration(0))
}

func TestMinDuration(t *testing.T) {
	assert.Equal(t, time.Second, MinDuration(time.Second, time.Minute))
	assert.Equal(t, time.Second, MinDuration(time.Minute, time.Second))
	assert.Equal(t, -time.Second, MinDuration(-time.Second, 0))
}

func TestMaxDuration(t *testing.T) {
	assert.Equal(t, time.Minute, MaxDuration(time.Second, time.Minute))
	assert.Equal(t, time.Minute, MaxDuration(time.Minute, time.Second))
	assert.Equal(t, time.Duration(0), MaxDuration(-time.Second, 0))
}
