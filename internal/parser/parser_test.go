package parser

import (
	"reflect"
	"testing"
)

const sampleProfileHTML = `
<html>
<body>
	<h1 class="profile-name">  Jane Doe  </h1>
	<div class="phone-number">Call me: +1 702 555-0123 anytime</div>
	<div class="location">Las Vegas, NV</div>
	<div class="age">Age: 25 years</div>
	<div class="date-posted">2024-03-15</div>
	<div class="message">Hello there!</div>
	<img class="profile-image" src="/images/photo1.jpg">
	<img class="profile-image" src="https://cdn.example.com/photo2.jpg">
	<img class="profile-image" src="">
	<img src="/images/not-profile.jpg">
</body>
</html>`

func TestListingParser_ParseProfile(t *testing.T) {
	p := NewListingParser()
	record := p.ParseProfile(sampleProfileHTML, "https://example.com/profile/123")

	if record.Name != "Jane Doe" {
		t.Errorf("Name = %q, want %q", record.Name, "Jane Doe")
	}
	if record.Phone != "1 702 555-0123" && record.Phone != "+1 702 555-0123" {
		t.Errorf("Phone = %q, 应提取出号码串", record.Phone)
	}
	if record.Location != "Las Vegas, NV" {
		t.Errorf("Location = %q, want %q", record.Location, "Las Vegas, NV")
	}
	if record.Age != 25 {
		t.Errorf("Age = %d, want 25", record.Age)
	}
	if record.PostedDate != "2024-03-15" {
		t.Errorf("PostedDate = %q, want %q", record.PostedDate, "2024-03-15")
	}
	if record.Message != "Hello there!" {
		t.Errorf("Message = %q, want %q", record.Message, "Hello there!")
	}

	wantImages := []string{
		"https://example.com/images/photo1.jpg",
		"https://cdn.example.com/photo2.jpg",
	}
	if !reflect.DeepEqual(record.Images, wantImages) {
		t.Errorf("Images = %v, want %v", record.Images, wantImages)
	}

	if record.Metadata.SourceURL != "https://example.com/profile/123" {
		t.Errorf("SourceURL = %q", record.Metadata.SourceURL)
	}
	if record.Metadata.ScrapedAt.IsZero() {
		t.Error("ScrapedAt不应为零值")
	}
}

func TestListingParser_MissingFields(t *testing.T) {
	p := NewListingParser()

	tests := []struct {
		name string
		html string
	}{
		{"空文档", ""},
		{"无任何档案字段", "<html><body><p>nothing here</p></body></html>"},
		{"畸形HTML", "<div class='phone-number'>no digits at all<span>"},
		{"年龄非数字", `<div class="age">unknown</div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := p.ParseProfile(tt.html, "https://example.com/profile/1")
			if record == nil {
				t.Fatal("解析不应返回nil,缺失字段以零值表示")
			}
			if record.ID == "" {
				t.Error("记录应携带生成的ID")
			}
			if record.Age != 0 {
				t.Errorf("缺失年龄应为0, 实际 %d", record.Age)
			}
		})
	}
}

func TestListingParser_ExtractLinks(t *testing.T) {
	p := NewListingParser()

	htmlContent := `
<html><body>
	<a href="/profile/1">first</a>
	<a href="https://example.com/profile/2">second</a>
	<a href="mailto:someone@example.com">mail</a>
	<a href="javascript:void(0)">js</a>
	<a>no href</a>
	<a href="../listings">relative up</a>
</body></html>`

	links := p.ExtractLinks(htmlContent, "https://example.com/nevada/")

	want := []string{
		"https://example.com/profile/1",
		"https://example.com/profile/2",
		"https://example.com/listings",
	}
	if !reflect.DeepEqual(links, want) {
		t.Errorf("ExtractLinks() = %v, want %v", links, want)
	}
}

func TestListingParser_ExtractLinksDocumentOrder(t *testing.T) {
	p := NewListingParser()

	htmlContent := `<a href="/c">c</a><a href="/a">a</a><a href="/b">b</a>`
	links := p.ExtractLinks(htmlContent, "https://example.com")

	want := []string{
		"https://example.com/c",
		"https://example.com/a",
		"https://example.com/b",
	}
	if !reflect.DeepEqual(links, want) {
		t.Errorf("链接应保持文档顺序: %v, want %v", links, want)
	}
}
