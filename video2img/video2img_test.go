package video2img

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramesFromProbeNbFrames(t *testing.T) {
	n, err := framesFromProbe(`{"streams":[
		{"codec_type":"audio","nb_frames":"999"},
		{"codec_type":"video","nb_frames":"240"}
	]}`)
	require.NoError(t, err)
	assert.Equal(t, 240, n)
}

func TestFramesFromProbeRateFallback(t *testing.T) {
	// No nb_frames: total = avg_frame_rate * duration, not the
	// bare frame rate.
	n, err := framesFromProbe(`{"streams":[
		{"codec_type":"video","avg_frame_rate":"30000/1001","duration":"10.0"}
	]}`)
	require.NoError(t, err)
	assert.Equal(t, 299, n)
}

func TestFramesFromProbeNoEstimate(t *testing.T) {
	tests := []struct {
		name  string
		probe string
	}{
		{"no video stream", `{"streams":[{"codec_type":"audio"}]}`},
		{"rate without duration", `{"streams":[{"codec_type":"video","avg_frame_rate":"25/1"}]}`},
		{"zero rate", `{"streams":[{"codec_type":"video","avg_frame_rate":"0/0","duration":"5"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := framesFromProbe(tt.probe)
			assert.Error(t, err)
		})
	}
}

func TestFramesFromProbeBadJSON(t *testing.T) {
	_, err := framesFromProbe("not json")
	assert.Error(t, err)
}
