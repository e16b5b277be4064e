package gigcache

import (
	"testing"
	"time"

	"github.com/orgball2608/gigcache/internal/payload"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	now := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	young := payload.New("v", now.Add(-10*time.Second))
	old := payload.New("v", now.Add(-90*time.Second))

	assert.Equal(t, Fresh, Classify(&young, now, time.Minute))
	assert.Equal(t, StaleOrAbsent, Classify(&old, now, time.Minute))
	assert.Equal(t, StaleOrAbsent, Classify[string](nil, now, time.Minute))
	assert.Equal(t, "fresh", Fresh.String())
	assert.Equal(t, "stale_or_absent", StaleOrAbsent.String())
}

func TestWindow_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		window Window
		errMsg string
	}{
		{"valid", Window{Fresh: time.Minute, Keep: time.Hour}, ""},
		{"fresh equals keep", Window{Fresh: time.Hour, Keep: time.Hour}, ""},
		{"zero fresh", Window{Fresh: 0, Keep: time.Hour}, "fresh duration must be positive"},
		{"zero keep", Window{Fresh: time.Minute, Keep: 0}, "keep duration must be positive"},
		{"fresh exceeds keep", Window{Fresh: time.Hour, Keep: time.Minute}, "must not exceed keep"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.window.Validate()
			if tc.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.errMsg)
		})
	}
}
