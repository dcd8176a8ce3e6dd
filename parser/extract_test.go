package parser

import (
	"errors"
	"fmt"
	"testing"
)

func wrapInPage(script string) string {
	return "<html><head><title>menu</title></head><body>" +
		"<script src=\"/static/app.js\"></script>" +
		script +
		"<div>content</div></body></html>"
}

func TestExtractNextData(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		wantErr bool
	}{
		{
			name: "exact marker id",
			html: wrapInPage(`<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{}}}</script>`),
		},
		{
			name: "case-insensitive marker id",
			html: wrapInPage(`<script id="__next_data__" type="application/json">{"props":{}}</script>`),
		},
		{
			name: "multi-line json contents",
			html: wrapInPage("<script id=\"__NEXT_DATA__\">\n{\n  \"props\": {\n    \"pageProps\": {\"query\": {}}\n  }\n}\n</script>"),
		},
		{
			name:    "marker absent",
			html:    wrapInPage(`<script id="other">{"props":{}}</script>`),
			wantErr: true,
		},
		{
			name:    "marker present with invalid json",
			html:    wrapInPage(`<script id="__NEXT_DATA__">{not json at all</script>`),
			wantErr: true,
		},
		{
			name:    "empty document",
			html:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ExtractNextData(tt.html)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExtractNextData() error = nil, want error")
				}
				var extraction *ExtractionError
				if !errors.As(err, &extraction) {
					t.Errorf("error type = %T, want *ExtractionError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractNextData() error = %v", err)
			}
			if data.Doc == nil {
				t.Errorf("Doc is nil")
			}
			if len(data.Raw) == 0 {
				t.Errorf("Raw is empty")
			}
		})
	}
}

func TestExtractNextDataPicksMarkedScript(t *testing.T) {
	html := wrapInPage(
		`<script id="other">{"decoy":1}</script>` +
			`<script id="__NEXT_DATA__">{"props":{"pageProps":{"buildId":"abc"}}}</script>`,
	)
	data, err := ExtractNextData(html)
	if err != nil {
		t.Fatalf("ExtractNextData() error = %v", err)
	}
	props := data.PageProps()
	if props["buildId"] != "abc" {
		t.Errorf("pageProps buildId = %v, want abc", props["buildId"])
	}
}

func TestPagePropsMissingPath(t *testing.T) {
	data := &NextData{Doc: map[string]any{"props": "not-a-map"}}
	props := data.PageProps()
	if props == nil {
		t.Fatalf("PageProps() = nil, want empty map")
	}
	if len(props) != 0 {
		t.Errorf("PageProps() = %v, want empty", props)
	}
}

func TestMapAtAndListAt(t *testing.T) {
	m := map[string]any{
		"a": map[string]any{
			"b": map[string]any{
				"items": []any{1.0, 2.0},
			},
		},
	}
	inner := mapAt(m, "a", "b")
	if got := listAt(inner, "items"); len(got) != 2 {
		t.Errorf("listAt(items) length = %d, want 2", len(got))
	}
	if got := mapAt(m, "a", "missing", "b"); len(got) != 0 {
		t.Errorf("mapAt on missing path = %v, want empty map", got)
	}
	if got := listAt(inner, "missing"); got != nil {
		t.Errorf("listAt on missing key = %v, want nil", got)
	}
}

func TestExtractionErrorMessage(t *testing.T) {
	err := &ExtractionError{Reason: "script tag not found in html"}
	if msg := err.Error(); msg == "" {
		t.Fatalf("empty error message")
	}
	cause := fmt.Errorf("boom")
	wrapped := &ExtractionError{Reason: "bad json", Err: cause}
	if !errors.Is(wrapped, cause) {
		t.Errorf("wrapped cause should be reachable via errors.Is")
	}
}
