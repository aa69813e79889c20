package utils

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadRegionsFromFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "regions.txt")

	content := `# 测试地区列表
nevada
Texas

# 注释行
california
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}

	regions, err := ReadRegionsFromFile(path)
	if err != nil {
		t.Fatalf("ReadRegionsFromFile() error = %v", err)
	}

	want := []string{"nevada", "texas", "california"}
	if !reflect.DeepEqual(regions, want) {
		t.Errorf("regions = %v, want %v", regions, want)
	}
}

func TestReadRegionsFromFile_Errors(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("文件不存在", func(t *testing.T) {
		if _, err := ReadRegionsFromFile(filepath.Join(tempDir, "missing.txt")); err == nil {
			t.Error("不存在的文件应返回错误")
		}
	})

	t.Run("全是注释", func(t *testing.T) {
		path := filepath.Join(tempDir, "empty.txt")
		if err := os.WriteFile(path, []byte("# only comments\n\n"), 0644); err != nil {
			t.Fatalf("写入测试文件失败: %v", err)
		}
		if _, err := ReadRegionsFromFile(path); err == nil {
			t.Error("没有有效地区时应返回错误")
		}
	})
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"有效HTTPS", "https://example.com/listings", false},
		{"有效HTTP", "http://example.com", false},
		{"缺少协议", "example.com", true},
		{"非HTTP协议", "ftp://example.com", true},
		{"缺少主机", "https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
