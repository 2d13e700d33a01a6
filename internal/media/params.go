package media

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// MaxDimension 变换后的最大边长
const MaxDimension = 4096

// DefaultQuality quality=auto 时使用的质量
const DefaultQuality = 80

var (
	cropModes    = []string{"fill", "fit", "scale", "thumb", "crop"}
	gravities    = []string{"center", "north", "south", "east", "west", "auto"}
	effects      = []string{"grayscale", "blur", "negate", "flip", "flop"}
	fetchFormats = []string{"jpg", "png", "webp"}
)

// TransformParams 派生变换参数
type TransformParams struct {
	Width       int    `mapstructure:"width" json:"width,omitempty"`
	Height      int    `mapstructure:"height" json:"height,omitempty"`
	Crop        string `mapstructure:"crop" json:"crop,omitempty"`
	Gravity     string `mapstructure:"gravity" json:"gravity,omitempty"`
	Effect      string `mapstructure:"effect" json:"effect,omitempty"`
	Quality     string `mapstructure:"quality" json:"quality,omitempty"`
	FetchFormat string `mapstructure:"fetch_format" json:"fetch_format,omitempty"`
}

// DecodeTransformParams 从松散的键值表解析参数，数字字符串会被转换，未知字段报错
// 只做解析与 Normalize，取值校验由调用方在权限检查之后执行
func DecodeTransformParams(raw map[string]interface{}) (TransformParams, error) {
	var p TransformParams
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &p,
	})
	if err != nil {
		return p, err
	}
	if err := decoder.Decode(raw); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	return p.Normalize(), nil
}

// Normalize 统一大小写与默认值
func (p TransformParams) Normalize() TransformParams {
	p.Crop = strings.ToLower(strings.TrimSpace(p.Crop))
	p.Gravity = strings.ToLower(strings.TrimSpace(p.Gravity))
	p.Effect = strings.ToLower(strings.TrimSpace(p.Effect))
	p.Quality = strings.ToLower(strings.TrimSpace(p.Quality))
	p.FetchFormat = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(p.FetchFormat)), ".")
	if p.FetchFormat == "jpeg" {
		p.FetchFormat = "jpg"
	}
	if p.Crop == "" && (p.Width > 0 || p.Height > 0) {
		p.Crop = "scale"
	}
	if p.Gravity == "center" {
		p.Gravity = ""
	}
	return p
}

// Validate 校验参数，p 应已 Normalize
func (p TransformParams) Validate() error {
	if p.Width < 0 || p.Width > MaxDimension || p.Height < 0 || p.Height > MaxDimension {
		return fmt.Errorf("%w: width and height must be between 0 and %d", ErrInvalidParams, MaxDimension)
	}
	if p.Crop != "" && !slices.Contains(cropModes, p.Crop) {
		return fmt.Errorf("%w: unsupported crop %q", ErrInvalidParams, p.Crop)
	}
	if p.Crop != "" && p.Width == 0 && p.Height == 0 {
		return fmt.Errorf("%w: crop requires width or height", ErrInvalidParams)
	}
	if (p.Crop == "fill" || p.Crop == "thumb" || p.Crop == "crop") && (p.Width == 0 || p.Height == 0) {
		return fmt.Errorf("%w: crop %q requires both width and height", ErrInvalidParams, p.Crop)
	}
	if p.Gravity != "" && !slices.Contains(gravities, p.Gravity) {
		return fmt.Errorf("%w: unsupported gravity %q", ErrInvalidParams, p.Gravity)
	}
	if p.Effect != "" && !slices.Contains(effects, p.Effect) {
		return fmt.Errorf("%w: unsupported effect %q", ErrInvalidParams, p.Effect)
	}
	if p.Quality != "" && p.Quality != "auto" {
		q, err := strconv.Atoi(p.Quality)
		if err != nil || q < 1 || q > 100 {
			return fmt.Errorf("%w: quality must be auto or 1..100", ErrInvalidParams)
		}
	}
	if p.FetchFormat != "" && !slices.Contains(fetchFormats, p.FetchFormat) {
		return fmt.Errorf("%w: unsupported fetch_format %q", ErrInvalidParams, p.FetchFormat)
	}
	if p.IsEmpty() {
		return fmt.Errorf("%w: no transformation requested", ErrInvalidParams)
	}
	return nil
}

// IsEmpty 没有任何变换
func (p TransformParams) IsEmpty() bool {
	return p.Width == 0 && p.Height == 0 && p.Effect == "" && p.Quality == "" && p.FetchFormat == ""
}

// QualityValue 返回导出质量
func (p TransformParams) QualityValue() int {
	if q, err := strconv.Atoi(p.Quality); err == nil {
		return q
	}
	return DefaultQuality
}

// Segment 规范化的参数段，相同参数总是得到相同结果，如 w_100-h_100-c_fill
func (p TransformParams) Segment() string {
	parts := make([]string, 0, 7)
	if p.Width > 0 {
		parts = append(parts, "w_"+strconv.Itoa(p.Width))
	}
	if p.Height > 0 {
		parts = append(parts, "h_"+strconv.Itoa(p.Height))
	}
	if p.Crop != "" {
		parts = append(parts, "c_"+p.Crop)
	}
	if p.Gravity != "" {
		parts = append(parts, "g_"+p.Gravity)
	}
	if p.Effect != "" {
		parts = append(parts, "e_"+p.Effect)
	}
	if p.Quality != "" {
		parts = append(parts, "q_"+p.Quality)
	}
	if p.FetchFormat != "" {
		parts = append(parts, "f_"+p.FetchFormat)
	}
	return strings.Join(parts, "-")
}
