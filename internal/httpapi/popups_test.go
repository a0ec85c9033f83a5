package httpapi

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"keai-site/pkg/keai"
)

func TestPopupsActiveListing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.popups.active = []keai.Popup{{ID: "pop1", Title: "Spring"}}
	f.popups.all = []keai.Popup{{ID: "pop1"}, {ID: "pop2"}}

	recorder, decoded := f.do(t, http.MethodGet, "/api/popups", "", nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	popups, _ := decoded["popups"].([]any)
	if len(popups) != 1 {
		t.Fatalf("popups = %d, want 1 active", len(popups))
	}
	if f.popups.lastToday != "2025-03-10" {
		t.Errorf("today = %q, want 2025-03-10", f.popups.lastToday)
	}
}

func TestPopupsAdminListing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.popups.all = []keai.Popup{{ID: "pop1"}, {ID: "pop2"}}

	_, decoded := f.do(t, http.MethodGet, "/api/popups?all=true", "", nil)

	popups, _ := decoded["popups"].([]any)
	if len(popups) != 2 {
		t.Fatalf("popups = %d, want 2", len(popups))
	}
}

func TestPopupsUpload(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payload := base64.StdEncoding.EncodeToString([]byte("RIFF....WEBP"))
	body := fmt.Sprintf(`{"imageData":"%s","fileName":"banner.webp"}`, payload)

	recorder, decoded := f.do(t, http.MethodPost, "/api/popups?action=upload", body, nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
	}
	if !strings.HasPrefix(f.uploader.lastKey, "popups/popup-") {
		t.Errorf("key = %q, want popups/popup- prefix", f.uploader.lastKey)
	}
	url, _ := decoded["url"].(string)
	if !strings.HasPrefix(url, "https://cdn.example.com/popups/") {
		t.Errorf("url = %q, want cdn popups prefix", url)
	}
	if size, _ := decoded["size"].(float64); int(size) != f.uploader.lastSize {
		t.Errorf("size = %v, want %d", size, f.uploader.lastSize)
	}
}

func TestPopupsUploadRejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	recorder, _ := f.do(t, http.MethodPost, "/api/popups?action=upload", `{"imageData":""}`, nil)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}

func TestPopupsCreate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	recorder, decoded := f.do(t, http.MethodPost, "/api/popups",
		`{"title":"Spring","imageUrl":"https://cdn/x.webp","isActive":true}`, nil)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", recorder.Code)
	}
	popup, _ := decoded["popup"].(map[string]any)
	if popup["title"] != "Spring" {
		t.Errorf("title = %v, want Spring", popup["title"])
	}
	if len(f.popups.created) != 1 {
		t.Fatalf("created = %d drafts, want 1", len(f.popups.created))
	}
	draft := f.popups.created[0]
	if draft.Active == nil || !*draft.Active {
		t.Error("active not carried as explicit true")
	}
	if draft.StartDate != nil {
		t.Error("absent start date decoded as provided")
	}
}

func TestPopupsMutationsRequireID(t *testing.T) {
	t.Parallel()

	for _, method := range []string{http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			recorder, _ := f.do(t, method, "/api/popups", `{}`, nil)

			if recorder.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", recorder.Code)
			}
		})
	}
}

func TestPopupsDelete(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	recorder, _ := f.do(t, http.MethodDelete, "/api/popups?id=pop1", "", nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if got := f.popups.deleted; len(got) != 1 || got[0] != "pop1" {
		t.Errorf("deleted = %v, want [pop1]", got)
	}
}
