package media

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/anoixa/photo-bed/internal/worker"
	"github.com/davidbyttow/govips/v2/vips"
	log "github.com/sirupsen/logrus"
)

var vipsOnce sync.Once

// StartupVips 初始化 libvips，日志转发到 logrus
func StartupVips() {
	vipsOnce.Do(func() {
		vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
			entry := log.WithField("domain", domain)
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				entry.Error(msg)
			case vips.LogLevelWarning:
				entry.Warn(msg)
			default:
				entry.Debug(msg)
			}
		}, vips.LogLevelWarning)
		vips.Startup(&vips.Config{ConcurrencyLevel: 1})
	})
}

// ShutdownVips 释放 libvips
func ShutdownVips() {
	vips.Shutdown()
}

// VipsTransformer 基于 libvips 的变换引擎
type VipsTransformer struct {
	sem *worker.Semaphore
}

// NewVipsTransformer 创建变换引擎，sem 为空时使用全局信号量
func NewVipsTransformer(sem *worker.Semaphore) *VipsTransformer {
	StartupVips()
	if sem == nil {
		sem = worker.GetGlobalSemaphore()
	}
	return &VipsTransformer{sem: sem}
}

// Apply 按参数变换图片并导出
func (t *VipsTransformer) Apply(ctx context.Context, data []byte, params TransformParams) ([]byte, error) {
	if err := t.sem.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("acquire semaphore: %w", err)
	}
	defer t.sem.Release()

	img, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	defer img.Close()

	if err := resize(img, params); err != nil {
		return nil, err
	}
	if err := applyEffect(img, params.Effect); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := params.FetchFormat
	if format == "" {
		format = formatOf(img.Format())
	}
	return export(img, format, params.QualityValue())
}

func resize(img *vips.ImageRef, p TransformParams) error {
	if p.Width == 0 && p.Height == 0 {
		return nil
	}
	srcW, srcH := img.Width(), img.Height()
	w, h := p.Width, p.Height

	switch p.Crop {
	case "fit":
		scale := fitScale(srcW, srcH, w, h)
		return img.Resize(scale, vips.KernelAuto)
	case "fill", "thumb":
		if p.Gravity == "auto" {
			return img.Thumbnail(w, h, vips.InterestingAttention)
		}
		if p.Crop == "thumb" && p.Gravity == "" {
			return img.Thumbnail(w, h, vips.InterestingCentre)
		}
		scale := math.Max(float64(w)/float64(srcW), float64(h)/float64(srcH))
		if err := img.Resize(scale, vips.KernelAuto); err != nil {
			return err
		}
		left, top := gravityOffset(img.Width(), img.Height(), w, h, p.Gravity)
		return img.ExtractArea(left, top, min(w, img.Width()), min(h, img.Height()))
	case "crop":
		if p.Gravity == "auto" {
			return img.SmartCrop(min(w, srcW), min(h, srcH), vips.InterestingAttention)
		}
		left, top := gravityOffset(srcW, srcH, w, h, p.Gravity)
		return img.ExtractArea(left, top, min(w, srcW), min(h, srcH))
	default:
		hs, vs := scaleFactors(srcW, srcH, w, h)
		return img.ResizeWithVScale(hs, vs, vips.KernelAuto)
	}
}

// scaleFactors scale 模式：两个边都给定时拉伸，只给一边时等比
func scaleFactors(srcW, srcH, w, h int) (float64, float64) {
	switch {
	case w > 0 && h > 0:
		return float64(w) / float64(srcW), float64(h) / float64(srcH)
	case w > 0:
		s := float64(w) / float64(srcW)
		return s, s
	default:
		s := float64(h) / float64(srcH)
		return s, s
	}
}

// fitScale 等比缩放到不超过目标框
func fitScale(srcW, srcH, w, h int) float64 {
	hs, vs := scaleFactors(srcW, srcH, w, h)
	if w > 0 && h > 0 {
		return math.Min(hs, vs)
	}
	return hs
}

// gravityOffset 计算裁剪区域左上角
func gravityOffset(srcW, srcH, w, h int, gravity string) (int, int) {
	w, h = min(w, srcW), min(h, srcH)
	left, top := (srcW-w)/2, (srcH-h)/2
	switch gravity {
	case "north":
		top = 0
	case "south":
		top = srcH - h
	case "west":
		left = 0
	case "east":
		left = srcW - w
	}
	return left, top
}

func applyEffect(img *vips.ImageRef, effect string) error {
	switch effect {
	case "grayscale":
		return img.ToColorSpace(vips.InterpretationBW)
	case "blur":
		return img.GaussianBlur(5)
	case "negate":
		return img.Invert()
	case "flip":
		return img.Flip(vips.DirectionVertical)
	case "flop":
		return img.Flip(vips.DirectionHorizontal)
	}
	return nil
}

func formatOf(t vips.ImageType) string {
	switch t {
	case vips.ImageTypePNG:
		return "png"
	case vips.ImageTypeWEBP:
		return "webp"
	default:
		return "jpg"
	}
}

func export(img *vips.ImageRef, format string, quality int) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch format {
	case "png":
		out, _, err = img.ExportPng(vips.NewPngExportParams())
	case "webp":
		params := vips.NewWebpExportParams()
		params.Quality = quality
		out, _, err = img.ExportWebp(params)
	default:
		params := vips.NewJpegExportParams()
		params.Quality = quality
		out, _, err = img.ExportJpeg(params)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", format, err)
	}
	return out, nil
}
