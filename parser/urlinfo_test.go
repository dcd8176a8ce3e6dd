package parser

import (
	"testing"

	"talabat-menusync/models"
)

func TestParseURLInfo(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want models.URLInfo
	}{
		{
			name: "full restaurant url with aid",
			url:  "https://www.talabat.com/egypt/restaurant/771378/balbaa-village?aid=7137",
			want: models.URLInfo{
				CountrySlug: "egypt",
				BranchID:    "771378",
				BranchSlug:  "balbaa-village",
				AreaID:      "7137",
				Host:        "www.talabat.com",
				Path:        "/egypt/restaurant/771378/balbaa-village",
			},
		},
		{
			name: "no query parameters",
			url:  "https://www.talabat.com/uae/restaurant/12345/some-place",
			want: models.URLInfo{
				CountrySlug: "uae",
				BranchID:    "12345",
				BranchSlug:  "some-place",
				Host:        "www.talabat.com",
				Path:        "/uae/restaurant/12345/some-place",
			},
		},
		{
			name: "trailing slash",
			url:  "https://www.talabat.com/egypt/restaurant/771378/balbaa/",
			want: models.URLInfo{
				CountrySlug: "egypt",
				BranchID:    "771378",
				BranchSlug:  "balbaa",
				Host:        "www.talabat.com",
				Path:        "/egypt/restaurant/771378/balbaa/",
			},
		},
		{
			name: "country only",
			url:  "https://www.talabat.com/egypt",
			want: models.URLInfo{
				CountrySlug: "egypt",
				Host:        "www.talabat.com",
				Path:        "/egypt",
			},
		},
		{
			name: "non-restaurant path keeps country but no branch",
			url:  "https://www.talabat.com/egypt/grocery/999/store",
			want: models.URLInfo{
				CountrySlug: "egypt",
				Host:        "www.talabat.com",
				Path:        "/egypt/grocery/999/store",
			},
		},
		{
			name: "restaurant path missing slug segment",
			url:  "https://www.talabat.com/egypt/restaurant/771378",
			want: models.URLInfo{
				CountrySlug: "egypt",
				Host:        "www.talabat.com",
				Path:        "/egypt/restaurant/771378",
			},
		},
		{
			name: "surrounding whitespace trimmed",
			url:  "  https://www.talabat.com/egypt/restaurant/1/a?aid=2  ",
			want: models.URLInfo{
				CountrySlug: "egypt",
				BranchID:    "1",
				BranchSlug:  "a",
				AreaID:      "2",
				Host:        "www.talabat.com",
				Path:        "/egypt/restaurant/1/a",
			},
		},
		{
			name: "empty input",
			url:  "",
			want: models.URLInfo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseURLInfo(tt.url)
			if got != tt.want {
				t.Errorf("ParseURLInfo(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}
