package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"

	"github.com/ivlev/tinydisplay/internal/config"
)

// ErrStopped is returned by a sink whose user asked to stop.
var ErrStopped = errors.New("video: sink stopped")

// FrameSink consumes rendered frames in tick order.
type FrameSink interface {
	Open(ctx context.Context, params config.FrameParams) error
	WriteFrame(tick int, img *image.RGBA) error
	Close() error
}

// FFmpegEncoder streams frames to ffmpeg as rawvideo over stdin.
type FFmpegEncoder struct {
	OutputPath string
	Encoder    string
	Quality    int

	cmd   *exec.Cmd
	stdin io.WriteCloser
	out   bytes.Buffer
}

func NewFFmpegEncoder(outputPath, encoder string, quality int) *FFmpegEncoder {
	return &FFmpegEncoder{OutputPath: outputPath, Encoder: encoder, Quality: quality}
}

func (e *FFmpegEncoder) Open(ctx context.Context, params config.FrameParams) error {
	w, h := params.OutputSize()
	e.cmd = exec.CommandContext(ctx, "ffmpeg", e.buildFFmpegArgs(w, h, params.FPS)...)
	e.cmd.Stdout = &e.out
	e.cmd.Stderr = &e.out

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}
	e.stdin = stdin
	return nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(w, h, fps int) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", w, h),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		// yuv420p требует четных размеров
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-pix_fmt", "yuv420p",
		"-c:v", e.Encoder,
	}

	// Качество в зависимости от энкодера
	switch e.Encoder {
	case "h264_videotoolbox":
		bitrate := e.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", e.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", e.Quality), "-preset", "medium")
	}

	args = append(args, e.OutputPath)
	return args
}

func (e *FFmpegEncoder) WriteFrame(tick int, img *image.RGBA) error {
	if e.stdin == nil {
		return fmt.Errorf("ffmpeg: frame %d written before Open", tick)
	}
	if err := writeRawRGBA(e.stdin, img); err != nil {
		return fmt.Errorf("write raw error at tick %d: %w", tick, err)
	}
	return nil
}

func (e *FFmpegEncoder) Close() error {
	if e.cmd == nil {
		return nil
	}
	e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w\nLog: %s", err, e.out.String())
	}
	return nil
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rectangle{Max: bounds.Size()})
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
