// Package ffmpeg locates the ffmpeg and ffprobe executables.
package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// BinaryPaths holds resolved executable locations.
type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

var (
	ensureOnce sync.Once
	ensureErr  error
	ensurePath BinaryPaths
)

// Ensure resolves both binaries once per process. Environment overrides
// (VLINGO_FFMPEG_PATH, VLINGO_FFPROBE_PATH) win over PATH lookup.
func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		ensurePath, ensureErr = resolve()
	})
	return ensurePath, ensureErr
}

// FFmpegPath returns the resolved ffmpeg executable.
func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

// FFprobePath returns the resolved ffprobe executable.
func FFprobePath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

func resolve() (BinaryPaths, error) {
	ffmpegPath := os.Getenv("VLINGO_FFMPEG_PATH")
	ffprobePath := os.Getenv("VLINGO_FFPROBE_PATH")

	if ffmpegPath == "" {
		if found, err := exec.LookPath("ffmpeg"); err == nil {
			ffmpegPath = found
		}
	}
	if ffprobePath == "" {
		if found, err := exec.LookPath("ffprobe"); err == nil {
			ffprobePath = found
		}
	}

	if ffmpegPath == "" || ffprobePath == "" {
		return BinaryPaths{}, fmt.Errorf(
			"ffmpeg/ffprobe not found: install them or set VLINGO_FFMPEG_PATH and VLINGO_FFPROBE_PATH",
		)
	}

	return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}
