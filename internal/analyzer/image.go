package analyzer

import (
	"context"
	"crypto/tls"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	// 注册常见图片格式的解码器
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	pigo "github.com/esimov/pigo/core"

	"github.com/ihsaland/datasnatch/internal/models"
	"github.com/ihsaland/datasnatch/internal/utils"
)

// 图片下载限制
const (
	imageDownloadTimeout = 30 * time.Second
	maxImageBytes        = 20 * 1024 * 1024 // 20MB
)

// 人脸特征向量的网格边长 (8x8 = 64维)
const encodingGridSize = 8

// ImageError 单张图片分析错误
// 只影响当前图片,同档案的其余图片照常分析
type ImageError struct {
	URL string
	Err error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("图片分析失败 [%s]: %v", e.URL, e.Err)
}

func (e *ImageError) Unwrap() error {
	return e.Err
}

// ImageAnalyzer 图片分析器
// 职责: 下载档案图片,执行人脸检测和质量评估
// 人脸检测基于pigo级联分类器;级联文件缺失时检测能力降级为"未检出",不报错
type ImageAnalyzer struct {
	httpClient *http.Client
	classifier *pigo.Pigo

	// 反向图搜提供者 (useAPIs=false时为nil)
	reverseImage ReverseImageProvider
}

// NewImageAnalyzer 创建图片分析器
// cascadeFile为pigo级联分类器文件路径;加载失败记录警告并继续(人脸检测降级)
func NewImageAnalyzer(cascadeFile string, reverseImage ReverseImageProvider) *ImageAnalyzer {
	ia := &ImageAnalyzer{
		httpClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true,
				},
			},
			Timeout: imageDownloadTimeout,
		},
		reverseImage: reverseImage,
	}

	if cascadeFile == "" {
		utils.Warnf("未配置人脸级联文件,人脸检测已禁用")
		return ia
	}

	cascade, err := os.ReadFile(cascadeFile)
	if err != nil {
		utils.Warnf("读取人脸级联文件失败 [%s]: %v,人脸检测已禁用", cascadeFile, err)
		return ia
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		utils.Warnf("解析人脸级联文件失败 [%s]: %v,人脸检测已禁用", cascadeFile, err)
		return ia
	}

	ia.classifier = classifier
	utils.Infof("✅ 人脸检测器已加载: %s", cascadeFile)
	return ia
}

// AnalyzeImages 按输入顺序依次分析档案图片
// 单张图片失败只记录日志并跳过,对应的质量分不会出现在结果中
func (ia *ImageAnalyzer) AnalyzeImages(ctx context.Context, imageURLs []string) *models.ImageAnalysis {
	analysis := models.NewImageAnalysis()

	for _, imageURL := range imageURLs {
		img, err := ia.downloadImage(ctx, imageURL)
		if err != nil {
			utils.Errorf("%v", &ImageError{URL: imageURL, Err: err})
			continue
		}

		gray := grayscale(img)

		if encoding, found := ia.detectFace(gray); found {
			analysis.FaceDetected = true
			analysis.FaceEncodings = append(analysis.FaceEncodings, encoding)
		}

		analysis.ImageQuality = append(analysis.ImageQuality, assessQuality(gray))

		if ia.reverseImage != nil {
			results, err := ia.reverseImage.Search(ctx, imageURL)
			if err != nil {
				utils.Warnf("反向图搜失败 [%s]: %v", imageURL, err)
			} else {
				analysis.ReverseImageResults = append(analysis.ReverseImageResults, results...)
			}
		}
	}

	return analysis
}

// downloadImage 下载并解码图片
func (ia *ImageAnalyzer) downloadImage(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}

	resp, err := ia.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("下载失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("下载失败: HTTP %d", resp.StatusCode)
	}

	img, format, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("解码失败: %w", err)
	}

	utils.Debugf("图片下载完成 [%s]: %s, %dx%d", imageURL, format, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

// grayImage 行优先存储的灰度图
type grayImage struct {
	pixels []uint8
	rows   int
	cols   int
}

func (g *grayImage) at(row, col int) uint8 {
	return g.pixels[row*g.cols+col]
}

// grayscale 将图片转换为灰度 (ITU-R BT.601亮度权重)
func grayscale(img image.Image) *grayImage {
	bounds := img.Bounds()
	cols := bounds.Dx()
	rows := bounds.Dy()

	pixels := make([]uint8, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			pixels[y*cols+x] = uint8(luma)
		}
	}

	return &grayImage{pixels: pixels, rows: rows, cols: cols}
}

// detectFace 在灰度图中检测人脸
// 返回首个检出(按自上而下、自左而右排序)的特征向量;未检出或检测器未加载时返回false
func (ia *ImageAnalyzer) detectFace(gray *grayImage) ([]float64, bool) {
	if ia.classifier == nil || gray.rows < 20 || gray.cols < 20 {
		return nil, false
	}

	maxSize := gray.rows
	if gray.cols < maxSize {
		maxSize = gray.cols
	}

	params := pigo.CascadeParams{
		MinSize:     20,
		MaxSize:     maxSize,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: gray.pixels,
			Rows:   gray.rows,
			Cols:   gray.cols,
			Dim:    gray.cols,
		},
	}

	detections := ia.classifier.RunCascade(params, 0.0)
	detections = ia.classifier.ClusterDetections(detections, 0.2)

	faces := make([]pigo.Detection, 0, len(detections))
	for _, det := range detections {
		if det.Q >= 5.0 {
			faces = append(faces, det)
		}
	}
	if len(faces) == 0 {
		return nil, false
	}

	// 多个检出时取位置最靠前的,保证结果与检测内部顺序无关
	sort.Slice(faces, func(i, j int) bool {
		if faces[i].Row != faces[j].Row {
			return faces[i].Row < faces[j].Row
		}
		return faces[i].Col < faces[j].Col
	})

	return faceEncoding(gray, faces[0]), true
}

// faceEncoding 计算人脸区域的64维灰度网格特征向量
// 将检出区域划分为8x8网格,每格取归一化的平均灰度值
func faceEncoding(gray *grayImage, det pigo.Detection) []float64 {
	half := det.Scale / 2
	top := clamp(det.Row-half, 0, gray.rows-1)
	bottom := clamp(det.Row+half, 0, gray.rows-1)
	left := clamp(det.Col-half, 0, gray.cols-1)
	right := clamp(det.Col+half, 0, gray.cols-1)

	height := bottom - top + 1
	width := right - left + 1

	encoding := make([]float64, 0, encodingGridSize*encodingGridSize)
	for gy := 0; gy < encodingGridSize; gy++ {
		for gx := 0; gx < encodingGridSize; gx++ {
			rowStart := top + gy*height/encodingGridSize
			rowEnd := top + (gy+1)*height/encodingGridSize
			colStart := left + gx*width/encodingGridSize
			colEnd := left + (gx+1)*width/encodingGridSize
			if rowEnd <= rowStart {
				rowEnd = rowStart + 1
			}
			if colEnd <= colStart {
				colEnd = colStart + 1
			}

			var sum float64
			count := 0
			for row := rowStart; row < rowEnd && row <= bottom; row++ {
				for col := colStart; col < colEnd && col <= right; col++ {
					sum += float64(gray.at(row, col))
					count++
				}
			}
			if count == 0 {
				encoding = append(encoding, 0)
				continue
			}
			encoding = append(encoding, sum/float64(count)/255.0)
		}
	}

	return encoding
}

// assessQuality 评估图片质量,返回[0,1]区间的分数
// 清晰度(Laplacian方差/500)和亮度(平均灰度/255)各占一半,均封顶1.0
func assessQuality(gray *grayImage) float64 {
	if gray.rows == 0 || gray.cols == 0 {
		return 0.0
	}

	sharpness := minFloat(1.0, laplacianVariance(gray)/500.0)
	brightness := minFloat(1.0, meanGray(gray)/255.0)

	return (sharpness + brightness) / 2
}

// laplacianVariance 计算4邻域Laplacian响应的方差 (清晰度度量)
func laplacianVariance(gray *grayImage) float64 {
	if gray.rows < 3 || gray.cols < 3 {
		return 0.0
	}

	count := (gray.rows - 2) * (gray.cols - 2)
	responses := make([]float64, 0, count)
	var sum float64

	for row := 1; row < gray.rows-1; row++ {
		for col := 1; col < gray.cols-1; col++ {
			lap := 4*float64(gray.at(row, col)) -
				float64(gray.at(row-1, col)) -
				float64(gray.at(row+1, col)) -
				float64(gray.at(row, col-1)) -
				float64(gray.at(row, col+1))
			responses = append(responses, lap)
			sum += lap
		}
	}

	mean := sum / float64(count)
	var variance float64
	for _, lap := range responses {
		diff := lap - mean
		variance += diff * diff
	}
	return variance / float64(count)
}

// meanGray 计算平均灰度 (亮度度量)
func meanGray(gray *grayImage) float64 {
	var sum float64
	for _, p := range gray.pixels {
		sum += float64(p)
	}
	return sum / float64(len(gray.pixels))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
