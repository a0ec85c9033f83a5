package httpapi

import (
	"errors"
	"net/http"
	"testing"

	"keai-site/internal/generate"
	"keai-site/pkg/keai"
)

func TestGeneratePost(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.generator.result = generate.Result{
		Post:    generate.GeneratedPost{Title: "A Question?", Content: "Body", Summary: "Short"},
		Saved:   true,
		SavedID: "rec-gen",
	}
	body := `{"category":"funding-basics","topic":"first loan","autoSave":true}`

	recorder, decoded := f.do(t, http.MethodPost, "/api/generate-post", body, nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
	}
	post, _ := decoded["post"].(map[string]any)
	if post["title"] != "A Question?" {
		t.Errorf("title = %v, want A Question?", post["title"])
	}
	if saved, _ := decoded["saved"].(bool); !saved {
		t.Error("saved = false, want true")
	}
	if decoded["savedId"] != "rec-gen" {
		t.Errorf("savedId = %v, want rec-gen", decoded["savedId"])
	}

	params := f.generator.lastParams
	if params.Category != "funding-basics" || params.Topic != "first loan" || !params.AutoSave {
		t.Errorf("params = %+v, want request fields carried", params)
	}
}

func TestGeneratePostCategoryRequired(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "missing", body: `{}`},
		{name: "unknown", body: `{"category":"nope"}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			recorder, decoded := f.do(t, http.MethodPost, "/api/generate-post", test.body, nil)

			if recorder.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", recorder.Code)
			}
			available, _ := decoded["availableCategories"].([]any)
			if len(available) != len(generate.Categories()) {
				t.Errorf("availableCategories = %v, want full category list", available)
			}
			if f.generator.lastParams.Category != "" {
				t.Error("generator reached despite invalid category")
			}
		})
	}
}

func TestGeneratePostUpstreamFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.generator.err = &keai.UpstreamError{Service: "gemini", Status: 500, Body: "boom"}

	recorder, _ := f.do(t, http.MethodPost, "/api/generate-post",
		`{"category":"funding-basics"}`, nil)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", recorder.Code)
	}
}

func TestGeneratePostSaveFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.generator.err = errors.New("save draft: store down")

	recorder, decoded := f.do(t, http.MethodPost, "/api/generate-post",
		`{"category":"funding-basics","autoSave":true}`, nil)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", recorder.Code)
	}
	if success, _ := decoded["success"].(bool); success {
		t.Error("success = true, want false")
	}
}
