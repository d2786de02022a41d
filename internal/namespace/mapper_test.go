package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_AllTargets(t *testing.T) {
	m, err := Map(Path{Vertical: "Video", Field: "Streaming", Object: "H264Delta"})
	require.NoError(t, err)

	assert.Equal(t, "h264_delta", m.Snake)
	assert.Equal(t, "video", m.LowerVertical)
	assert.Equal(t, "streaming", m.LowerField)
	require.Len(t, m.Targets, len(Targets()))

	tests := []struct {
		target     string
		identifier string
		imp        string
		source     string
	}{
		{
			Python,
			"atomik.Video.Streaming.H264Delta",
			"from atomik.Video.Streaming import H264Delta",
			"atomik/Video/Streaming/h264_delta.py",
		},
		{
			Rust,
			"atomik::video::streaming::H264Delta",
			"use atomik::video::streaming::H264Delta;",
			"src/video/streaming/h264_delta.rs",
		},
		{
			C,
			"atomik_h264_delta_t",
			"#include <atomik/video/streaming/h264_delta.h>",
			"atomik/video/streaming/h264_delta.c",
		},
		{
			JavaScript,
			"@atomik/video-streaming.H264Delta",
			"import { H264Delta } from '@atomik/video-streaming';",
			"src/h264_delta.js",
		},
		{
			Go,
			"atomik/video/streaming.H264Delta",
			`import "atomik/video/streaming"`,
			"video/streaming/h264_delta.go",
		},
		{
			Verilog,
			"atomik_video_streaming_h264_delta",
			"`include \"rtl/atomik_video_streaming_h264_delta.v\"",
			"rtl/atomik_video_streaming_h264_delta.v",
		},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			target, ok := m.Target(tt.target)
			require.True(t, ok)
			assert.Equal(t, tt.target, target.Name)
			assert.Equal(t, tt.identifier, target.Identifier)
			assert.Equal(t, tt.imp, target.Import)
			assert.Equal(t, tt.source, target.Source)
			assert.Equal(t, tt.target+"/video/streaming/h264_delta", target.Root)
		})
	}

	assert.Equal(t, "atomik_video_streaming_h264_delta", m.VerilogModule())
	assert.Equal(t, Path{Vertical: "Video", Field: "Streaming", Object: "H264Delta"}, m.Path())
}

func TestMap_Deterministic(t *testing.T) {
	p := Path{Vertical: "Finance", Field: "Trading", Object: "PriceTick"}

	a, err := Map(p)
	require.NoError(t, err)

	b, err := Map(p)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestMap_RejectsIllegalSegments(t *testing.T) {
	_, err := Map(Path{Vertical: "Video", Field: "stream", Object: "H264Delta"})
	require.ErrorIs(t, err, ErrIllegalIdentifier)

	_, err = Map(Path{Vertical: "Video", Field: "Streaming", Object: "Class"})
	require.ErrorIs(t, err, ErrIllegalIdentifier)
}

func TestPathKey(t *testing.T) {
	assert.Equal(t, "edge/sensor/imu_fusion", Path{Vertical: "Edge", Field: "Sensor", Object: "IMUFusion"}.Key())
	assert.Equal(t, "Edge.Sensor.IMUFusion", Path{Vertical: "Edge", Field: "Sensor", Object: "IMUFusion"}.String())
}

func TestDirectories(t *testing.T) {
	m, err := Map(Path{Vertical: "Edge", Field: "Sensor", Object: "IMUFusion"})
	require.NoError(t, err)

	dirs := m.Directories()
	assert.Equal(t, "atomik/Edge/Sensor", dirs[Python])
	assert.Equal(t, "src/edge/sensor", dirs[Rust])
	assert.Equal(t, "atomik/edge/sensor", dirs[C])
	assert.Equal(t, "src", dirs[JavaScript])
	assert.Equal(t, "edge/sensor", dirs[Go])
	assert.Equal(t, "rtl", dirs[Verilog])
}

func TestTargets(t *testing.T) {
	assert.Equal(t, []string{"python", "rust", "c", "javascript", "go", "verilog"}, Targets())
	assert.True(t, IsTarget("go"))
	assert.False(t, IsTarget("java"))
}
