// Package video2img pulls frames out of a video so each one can run
// through the image pipeline independently.
package video2img

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	i2stypes "img2svg/type"
)

// ExtractFrames decodes fps frames per second from the video, scaled
// down to maxWidth, as an ordered frame list.
func ExtractFrames(ctx context.Context, videoPath string, fps, maxWidth int) ([]i2stypes.Frame, error) {
	if fps <= 0 {
		fps = 1
	}

	r, w := io.Pipe()

	cmd := ffmpeg.Input(videoPath).
		Output("pipe:1", ffmpeg.KwArgs{
			"format": "image2pipe",
			"vcodec": "png",
			"r":      strconv.Itoa(fps),
			"vf":     fmt.Sprintf("scale=%d:-1", maxWidth),
		}).
		WithOutput(w).
		WithErrorOutput(os.Stderr)
	cmd.Context = ctx

	// ffmpeg 写管道，解码端同时读，结束后关闭写端
	go func() {
		err := cmd.Run()
		w.CloseWithError(err)
	}()

	var frames []i2stypes.Frame
	reader := bufio.NewReader(r)
	index := 0
	for {
		img, _, err := image.Decode(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode frame %d failed: %w", index, err)
		}
		frames = append(frames, i2stypes.Frame{Index: index, Image: img})
		index++
	}

	if len(frames) == 0 {
		return nil, errors.New("no frames extracted")
	}
	return frames, nil
}

// videoProbe 只关心视频流
type videoProbe struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		NbFrames     string `json:"nb_frames"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// CountFrames 从 probe 数据解析总帧数
func CountFrames(videoPath string) (int, error) {
	probeStr, err := ffmpeg.Probe(videoPath)
	if err != nil {
		return 0, fmt.Errorf("ffprobe error: %w", err)
	}
	return framesFromProbe(probeStr)
}

func framesFromProbe(probeStr string) (int, error) {
	var probe videoProbe
	if err := json.Unmarshal([]byte(probeStr), &probe); err != nil {
		return 0, fmt.Errorf("json unmarshal error: %w", err)
	}

	for _, stream := range probe.Streams {
		if stream.CodecType == "video" {
			if stream.NbFrames != "" && stream.NbFrames != "0" {
				if n, err := strconv.Atoi(stream.NbFrames); err == nil {
					return n, nil
				}
			}
			// nb_frames 不存在时用 avg_frame_rate * duration 估算
			if rate, ok := parseRate(stream.AvgFrameRate); ok {
				if dur, err := strconv.ParseFloat(stream.Duration, 64); err == nil && dur > 0 {
					return int(rate * dur), nil
				}
			}
		}
	}

	return 0, errors.New("no video stream found or cannot determine frame count")
}

func parseRate(s string) (float64, bool) {
	if s == "" || s == "0/0" {
		return 0, false
	}
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, false
	}
	num, _ := strconv.ParseFloat(parts[0], 64)
	den, _ := strconv.ParseFloat(parts[1], 64)
	if den == 0 || num == 0 {
		return 0, false
	}
	return num / den, true
}
