package decode

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// WriteAttentionTSV writes an attention matrix (one row per decoded
// token, one column per source position) as tab-separated values.
func WriteAttentionTSV(w io.Writer, attention [][]float32) error {
	bw := bufio.NewWriter(w)
	for _, row := range attention {
		for i, v := range row {
			if i > 0 {
				if err := bw.WriteByte('\t'); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(bw, "%.6f", v); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Heatmap renders the attention matrix as a grayscale image, one
// pixel per cell, normalized so the largest weight maps to white.
func Heatmap(attention [][]float32) *image.Gray {
	rows := len(attention)
	cols := 0
	if rows > 0 {
		cols = len(attention[0])
	}
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	if rows == 0 || cols == 0 {
		return img
	}

	var maxVal float32
	for _, row := range attention {
		for _, v := range row {
			if v > maxVal {
				maxVal = v
			}
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	for y, row := range attention {
		for x, v := range row {
			img.SetGray(x, y, color.Gray{Y: uint8(255 * v / maxVal)})
		}
	}
	return img
}

// WriteHeatmapPNG writes the attention matrix as a PNG, upscaled by
// the given integer factor with nearest-neighbor interpolation so
// each cell stays a crisp block.
func WriteHeatmapPNG(w io.Writer, attention [][]float32, scale int) error {
	if scale < 1 {
		return fmt.Errorf("scale must be at least 1, got %d", scale)
	}

	src := Heatmap(attention)
	bounds := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, bounds.Dx()*scale, bounds.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	return png.Encode(w, dst)
}
