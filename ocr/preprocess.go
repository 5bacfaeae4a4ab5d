package ocr

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ByLCY/factzy/errors"
)

// contrastBoost 为二值化前的对比度增强百分比。
const contrastBoost = 20

// Preprocess 灰度化、增强对比度后按 Otsu 阈值二值化。
func Preprocess(src image.Image) *image.Gray {
	gray := imaging.AdjustContrast(imaging.Grayscale(src), contrastBoost)
	b := gray.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	var hist [256]int
	for y := 0; y < b.Dy(); y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()*4]
		for x := 0; x < b.Dx(); x++ {
			v := row[x*4] // 灰度图 RGB 三通道相同
			out.Pix[y*out.Stride+x] = v
			hist[v]++
		}
	}
	threshold := otsu(hist, b.Dx()*b.Dy())
	for i, v := range out.Pix {
		if v > threshold {
			out.Pix[i] = 255
		} else {
			out.Pix[i] = 0
		}
	}
	return out
}

// otsu 返回使类间方差最大的阈值。
func otsu(hist [256]int, total int) uint8 {
	if total == 0 {
		return 127
	}
	var sum float64
	for i, c := range hist {
		sum += float64(i * c)
	}
	var (
		sumB, best float64
		weightB    int
		threshold  uint8
	)
	for t := 0; t < 256; t++ {
		weightB += hist[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		meanB := sumB / float64(weightB)
		meanF := (sum - sumB) / float64(weightF)
		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// PreprocessFile 读取图片、预处理并写入 dir 下的临时 PNG，返回其路径。调用方负责删除。
func PreprocessFile(path, dir string) (string, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "读取图片 %s 失败", path)
	}
	if dir == "" {
		dir = os.TempDir()
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	f, err := os.CreateTemp(dir, base+"-*_preprocessed.png")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "创建临时文件失败")
	}
	tmp := f.Name()
	if err := imaging.Encode(f, Preprocess(src), imaging.PNG); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", errors.Wrap(errors.ErrCodeIO, err, "写入预处理图片失败")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("关闭临时文件失败: %w", err)
	}
	return tmp, nil
}
