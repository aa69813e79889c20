package analyzer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
)

// uniformGray 构造单一灰度值的测试图
func uniformGray(value uint8, w, h int) *grayImage {
	pixels := make([]uint8, w*h)
	for i := range pixels {
		pixels[i] = value
	}
	return &grayImage{pixels: pixels, rows: h, cols: w}
}

func TestAssessQuality(t *testing.T) {
	tests := []struct {
		name string
		gray *grayImage
		want float64
	}{
		// 均匀图无边缘: 清晰度0, 质量 = 亮度/2
		{"全黑图", uniformGray(0, 16, 16), 0.0},
		{"全白图", uniformGray(255, 16, 16), 0.5},
		{"中灰图", uniformGray(128, 16, 16), (128.0 / 255.0) / 2},
		{"空图", &grayImage{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := assessQuality(tt.gray); !almostEqual(got, tt.want) {
				t.Errorf("assessQuality() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssessQuality_SharpnessBounded(t *testing.T) {
	// 棋盘格是最强边缘模式, 清晰度分应封顶1.0
	gray := &grayImage{rows: 16, cols: 16, pixels: make([]uint8, 256)}
	for row := 0; row < 16; row++ {
		for col := 0; col < 16; col++ {
			if (row+col)%2 == 0 {
				gray.pixels[row*16+col] = 255
			}
		}
	}

	got := assessQuality(gray)
	if got <= 0.5 {
		t.Errorf("棋盘格图应有高清晰度分, 实际 %v", got)
	}
	if got > 1.0 {
		t.Errorf("质量分不应超过1.0, 实际 %v", got)
	}
}

func TestLaplacianVariance(t *testing.T) {
	if got := laplacianVariance(uniformGray(200, 8, 8)); got != 0 {
		t.Errorf("均匀图的Laplacian方差应为0, 实际 %v", got)
	}
	if got := laplacianVariance(uniformGray(200, 2, 2)); got != 0 {
		t.Errorf("小于3x3的图应返回0, 实际 %v", got)
	}
}

func TestGrayscale(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 255})

	gray := grayscale(img)
	if gray.rows != 1 || gray.cols != 2 {
		t.Fatalf("尺寸 = %dx%d, want 2x1", gray.cols, gray.rows)
	}
	if gray.at(0, 0) < 250 {
		t.Errorf("白色像素灰度 = %d, 应接近255", gray.at(0, 0))
	}
	if gray.at(0, 1) != 0 {
		t.Errorf("黑色像素灰度 = %d, want 0", gray.at(0, 1))
	}
}

func TestImageAnalyzer_DetectFaceWithoutCascade(t *testing.T) {
	ia := NewImageAnalyzer("", nil)
	if _, found := ia.detectFace(uniformGray(128, 64, 64)); found {
		t.Error("未加载级联文件时不应检出人脸")
	}
}

func TestImageAnalyzer_AnalyzeImages(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("构造测试图片失败: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/good.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(buf.Bytes())
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	ia := NewImageAnalyzer("", nil)
	analysis := ia.AnalyzeImages(context.Background(), []string{
		server.URL + "/good.png",
		server.URL + "/missing.png",
	})

	// 失败的图片被跳过, 不产生质量分
	if len(analysis.ImageQuality) != 1 {
		t.Fatalf("质量分数量 = %d, want 1", len(analysis.ImageQuality))
	}
	want := (200.0 / 255.0) / 2
	if !almostEqual(analysis.ImageQuality[0], want) {
		t.Errorf("质量分 = %v, want %v", analysis.ImageQuality[0], want)
	}
	if analysis.FaceDetected {
		t.Error("无级联文件时FaceDetected应为false")
	}
}

func TestImageAnalyzer_AnalyzeImagesEmpty(t *testing.T) {
	ia := NewImageAnalyzer("", nil)
	analysis := ia.AnalyzeImages(context.Background(), nil)

	if analysis == nil {
		t.Fatal("空图片列表应返回空分析结果而非nil")
	}
	if analysis.AverageQuality() != 0 {
		t.Errorf("无图片时平均质量 = %v, want 0", analysis.AverageQuality())
	}
}
