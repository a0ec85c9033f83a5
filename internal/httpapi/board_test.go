package httpapi

import (
	"net/http"
	"testing"

	"keai-site/pkg/keai"
)

func TestBoardListing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.listing.records = []keai.Post{{ID: "rec1", Title: "First", Slug: "first"}}
	f.listing.cached = true

	recorder, decoded := f.do(t, http.MethodGet, "/api/board", "", nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if cached, _ := decoded["cached"].(bool); !cached {
		t.Error("cached = false, want true")
	}
	posts, _ := decoded["posts"].([]any)
	if len(posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(posts))
	}
	if got := f.listing.forceCalls; len(got) != 1 || got[0] {
		t.Errorf("force calls = %v, want [false]", got)
	}
}

func TestBoardListingForcedRefresh(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.do(t, http.MethodGet, "/api/board?refresh=true", "", nil)

	if got := f.listing.forceCalls; len(got) != 1 || !got[0] {
		t.Errorf("force calls = %v, want [true]", got)
	}
}

func TestBoardDetailByID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.posts.posts = map[string]keai.Post{"rec1": {ID: "rec1", Title: "First", Views: 4}}

	recorder, decoded := f.do(t, http.MethodGet, "/api/board?id=rec1", "", nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	post, _ := decoded["post"].(map[string]any)
	if post["title"] != "First" {
		t.Errorf("title = %v, want First", post["title"])
	}
	if got := f.posts.incremented; len(got) != 1 || got[0] != "rec1" {
		t.Errorf("incremented = %v, want [rec1]", got)
	}
}

func TestBoardDetailBySlug(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.listing.records = []keai.Post{{ID: "rec2", Title: "Second", Slug: "second"}}

	recorder, decoded := f.do(t, http.MethodGet, "/api/board?slug=second", "", nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	post, _ := decoded["post"].(map[string]any)
	if post["id"] != "rec2" {
		t.Errorf("id = %v, want rec2", post["id"])
	}
	if got := f.posts.incremented; len(got) != 1 || got[0] != "rec2" {
		t.Errorf("incremented = %v, want [rec2]", got)
	}
}

func TestBoardDetailNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	recorder, decoded := f.do(t, http.MethodGet, "/api/board?id=missing", "", nil)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
	if success, _ := decoded["success"].(bool); success {
		t.Error("success = true, want false")
	}
	if len(f.posts.incremented) != 0 {
		t.Errorf("incremented = %v, want none", f.posts.incremented)
	}
}

func TestBoardCreate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	body := `{"title":"New post","content":"Body","published":false}`

	recorder, decoded := f.do(t, http.MethodPost, "/api/board", body, nil)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", recorder.Code)
	}
	post, _ := decoded["post"].(map[string]any)
	if post["title"] != "New post" {
		t.Errorf("title = %v, want New post", post["title"])
	}
	if len(f.posts.created) != 1 {
		t.Fatalf("created = %d drafts, want 1", len(f.posts.created))
	}
	draft := f.posts.created[0]
	if draft.Published == nil || *draft.Published {
		t.Error("published not carried as explicit false")
	}
	if draft.ThumbnailURL != nil {
		t.Error("absent thumbnail decoded as provided")
	}
	if got := f.listing.invalidations.Load(); got != 1 {
		t.Errorf("invalidations = %d, want 1", got)
	}
}

func TestBoardUpdateRequiresID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	recorder, _ := f.do(t, http.MethodPut, "/api/board", `{"title":"x"}`, nil)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
	if got := f.listing.invalidations.Load(); got != 0 {
		t.Errorf("invalidations = %d, want 0", got)
	}
}

func TestBoardUpdate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	recorder, _ := f.do(t, http.MethodPut, "/api/board?id=rec1", `{"summary":"Short"}`, nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	draft, ok := f.posts.updated["rec1"]
	if !ok {
		t.Fatal("update never reached the store")
	}
	if draft.Summary == nil || *draft.Summary != "Short" {
		t.Errorf("summary draft = %v, want Short", draft.Summary)
	}
	if draft.Title != nil {
		t.Error("absent title decoded as provided")
	}
	if got := f.listing.invalidations.Load(); got != 1 {
		t.Errorf("invalidations = %d, want 1", got)
	}
}

func TestBoardDelete(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	recorder, _ := f.do(t, http.MethodDelete, "/api/board?id=rec9", "", nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if got := f.posts.deleted; len(got) != 1 || got[0] != "rec9" {
		t.Errorf("deleted = %v, want [rec9]", got)
	}
	if got := f.listing.invalidations.Load(); got != 1 {
		t.Errorf("invalidations = %d, want 1", got)
	}
}

func TestBoardInvalidJSON(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	recorder, _ := f.do(t, http.MethodPost, "/api/board", "{not json", nil)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}
