package media

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/colornames"
)

// DefaultQRSize 二维码边长（像素）
const DefaultQRSize = 256

// QRColors 二维码前景色与背景色，支持颜色名或 #rrggbb
type QRColors struct {
	FillColor string `json:"fill_color"`
	BackColor string `json:"back_color"`
}

// QRCodeRenderer 基于 go-qrcode 的渲染器
type QRCodeRenderer struct {
	Size  int
	Level qrcode.RecoveryLevel
}

// NewQRCodeRenderer 创建渲染器
func NewQRCodeRenderer() *QRCodeRenderer {
	return &QRCodeRenderer{Size: DefaultQRSize, Level: qrcode.Medium}
}

// Render 渲染 PNG
func (r *QRCodeRenderer) Render(data string, colors QRColors) ([]byte, error) {
	fill, err := ParseColor(colors.FillColor, color.Black)
	if err != nil {
		return nil, err
	}
	back, err := ParseColor(colors.BackColor, color.White)
	if err != nil {
		return nil, err
	}

	q, err := qrcode.New(data, r.Level)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	q.ForegroundColor = fill
	q.BackgroundColor = back

	size := r.Size
	if size <= 0 {
		size = DefaultQRSize
	}
	return q.PNG(size)
}

// ParseColor 解析颜色名（如 red、darkblue）或 #rgb/#rrggbb，空字符串返回 def
func ParseColor(s string, def color.Color) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}

	if !strings.HasPrefix(s, "#") {
		return nil, fmt.Errorf("%w: unknown color %q", ErrInvalidParams, s)
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		v, err := strconv.ParseUint(hex, 16, 32)
		if err == nil {
			return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown color %q", ErrInvalidParams, s)
}
