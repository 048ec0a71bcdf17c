package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"tomato_backend/internal/config"
	"tomato_backend/internal/database"
	"tomato_backend/internal/model"
)

// =============================================================================
// WHERE CLAUSE TESTS
// =============================================================================

func TestBuildPostWhere(t *testing.T) {
	bbox := &model.BoundingBox{StartLat: 40, EndLat: 41, StartLong: -75, EndLong: -74}

	tests := []struct {
		name      string
		filter    model.PostFilter
		wantWhere string
		wantArgs  int
	}{
		{
			name:      "public only",
			filter:    model.PostFilter{Visibility: model.VisibilityPublic},
			wantWhere: "is_private = FALSE",
			wantArgs:  0,
		},
		{
			name:      "public in box",
			filter:    model.PostFilter{Visibility: model.VisibilityPublic, BBox: bbox},
			wantWhere: "is_private = FALSE AND latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4",
			wantArgs:  4,
		},
		{
			name:      "owner only in box",
			filter:    model.PostFilter{Visibility: model.VisibilityOwner, OwnerID: "u1", BBox: bbox},
			wantWhere: "user_id = $1 AND latitude BETWEEN $2 AND $3 AND longitude BETWEEN $4 AND $5",
			wantArgs:  5,
		},
		{
			name:      "public or owner",
			filter:    model.PostFilter{Visibility: model.VisibilityPublicOrOwner, OwnerID: "u1"},
			wantWhere: "(is_private = FALSE OR user_id = $1)",
			wantArgs:  1,
		},
		{
			name:      "exact location",
			filter:    model.PostFilter{Visibility: model.VisibilityPublic, At: &model.Location{Latitude: 1, Longitude: 2}},
			wantWhere: "is_private = FALSE AND latitude = $1 AND longitude = $2",
			wantArgs:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildPostWhere(tt.filter)
			if where != tt.wantWhere {
				t.Errorf("where = %q, want %q", where, tt.wantWhere)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("len(args) = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

// =============================================================================
// POSTGRES INTEGRATION TESTS
// =============================================================================

func setupTestDB(t *testing.T) *sqlx.DB {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping test")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("Postgres not available, skipping test: %v", err)
	}

	if err := database.MigrateUp(&config.Config{DatabaseURL: dsn}); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}

	db.MustExec(`TRUNCATE posts, users`)
	t.Cleanup(func() {
		db.MustExec(`TRUNCATE posts, users`)
		db.Close()
	})
	return db
}

func seedUser(t *testing.T, repo UserRepository, id string) {
	t.Helper()
	if err := repo.Create(context.Background(), &model.User{ID: id, DisplayName: id}); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func TestUserRepository_DuplicateUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	seedUser(t, repo, "1234")

	err := repo.Create(ctx, &model.User{ID: "1234", DisplayName: "again"})
	if !errors.Is(err, model.ErrDuplicateUser) {
		t.Errorf("error = %v, want %v", err, model.ErrDuplicateUser)
	}
}

func TestUserRepository_AppendDeviceToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	seedUser(t, repo, "1234")
	for _, tok := range []string{"a", "b", "a"} {
		if err := repo.AppendDeviceToken(ctx, "1234", tok); err != nil {
			t.Fatalf("append %s: %v", tok, err)
		}
	}

	user, err := repo.GetByID(ctx, "1234")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	want := []string{"a", "b", "a"}
	if len(user.DeviceTokens) != len(want) {
		t.Fatalf("device tokens = %v, want %v", user.DeviceTokens, want)
	}
	for i := range want {
		if user.DeviceTokens[i] != want[i] {
			t.Errorf("device token[%d] = %q, want %q", i, user.DeviceTokens[i], want[i])
		}
	}

	if err := repo.AppendDeviceToken(ctx, "missing", "x"); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrUserNotFound)
	}
}

func TestPostRepository_FindCombinesFilters(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	seedUser(t, users, "user123")
	seedUser(t, users, "other")

	create := func(owner string, lat, long float64, private bool) *model.Post {
		p := &model.Post{OwnerID: owner, Latitude: lat, Longitude: long, IsPrivate: private, CapturedAt: time.Now()}
		if err := posts.Create(ctx, p); err != nil {
			t.Fatalf("create post: %v", err)
		}
		return p
	}

	privateMine := create("user123", 40.7128, -74.0060, true)
	publicMine := create("user123", 40.7180, -74.0060, false)
	privateOther := create("other", 40.7128, -74.0060, true)
	publicFar := create("other", 10, 10, false)

	bbox := &model.BoundingBox{StartLat: 40, EndLat: 41, StartLong: -75, EndLong: -74}

	assertIDs := func(t *testing.T, got []model.Post, want ...*model.Post) {
		t.Helper()
		if len(got) != len(want) {
			t.Fatalf("got %d posts, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i].ID != want[i].ID {
				t.Errorf("post[%d] = %s, want %s", i, got[i].ID, want[i].ID)
			}
		}
	}

	got, err := posts.Find(ctx, model.PostFilter{Visibility: model.VisibilityPublic, BBox: bbox})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	assertIDs(t, got, publicMine)

	got, err = posts.Find(ctx, model.PostFilter{Visibility: model.VisibilityPublic})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	assertIDs(t, got, publicMine, publicFar)

	got, err = posts.Find(ctx, model.PostFilter{Visibility: model.VisibilityPublicOrOwner, OwnerID: "user123"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	assertIDs(t, got, privateMine, publicMine, publicFar)

	got, err = posts.Find(ctx, model.PostFilter{Visibility: model.VisibilityOwner, OwnerID: "other", BBox: bbox})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	assertIDs(t, got, privateOther)
}

// Find must select exactly the posts PostFilter.Matches accepts, since the
// service checks single-post visibility with Matches.
func TestPostRepository_FindAgreesWithMatches(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	seedUser(t, users, "user123")
	seedUser(t, users, "other")

	var all []*model.Post
	for _, p := range []*model.Post{
		{OwnerID: "user123", Latitude: 40.7128, Longitude: -74.0060, IsPrivate: true},
		{OwnerID: "user123", Latitude: 40.7180, Longitude: -74.0060},
		{OwnerID: "other", Latitude: 40.7128, Longitude: -74.0060, IsPrivate: true},
		{OwnerID: "other", Latitude: 41, Longitude: -75},
		{OwnerID: "other", Latitude: 10, Longitude: 10},
	} {
		p.CapturedAt = time.Now()
		if err := posts.Create(ctx, p); err != nil {
			t.Fatalf("create post: %v", err)
		}
		all = append(all, p)
	}

	bbox := &model.BoundingBox{StartLat: 40, EndLat: 41, StartLong: -75, EndLong: -74}
	at := &model.Location{Latitude: 40.7128, Longitude: -74.0060}
	filters := []model.PostFilter{
		{Visibility: model.VisibilityPublic},
		{Visibility: model.VisibilityPublic, BBox: bbox},
		{Visibility: model.VisibilityOwner, OwnerID: "user123"},
		{Visibility: model.VisibilityOwner, OwnerID: "other", BBox: bbox},
		{Visibility: model.VisibilityPublicOrOwner, OwnerID: "user123"},
		{Visibility: model.VisibilityPublicOrOwner, OwnerID: "user123", BBox: bbox},
		{Visibility: model.VisibilityPublicOrOwner, OwnerID: "other", At: at},
		{Visibility: model.VisibilityPublic, BBox: &model.BoundingBox{StartLat: 41, EndLat: 40, StartLong: -75, EndLong: -74}},
	}

	for i, filter := range filters {
		got, err := posts.Find(ctx, filter)
		if err != nil {
			t.Fatalf("filter %d: find: %v", i, err)
		}

		var want []string
		for _, p := range all {
			if filter.Matches(p) {
				want = append(want, p.ID)
			}
		}

		if len(got) != len(want) {
			t.Errorf("filter %d (%+v): got %d posts, Matches accepts %d", i, filter, len(got), len(want))
			continue
		}
		for j := range want {
			if got[j].ID != want[j] {
				t.Errorf("filter %d: post[%d] = %s, want %s", i, j, got[j].ID, want[j])
			}
		}
	}
}

func TestPostRepository_UpdateOwnership(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	seedUser(t, users, "user123")
	p := &model.Post{OwnerID: "user123", Latitude: 1, Longitude: 2, Note: "before", CapturedAt: time.Now()}
	if err := posts.Create(ctx, p); err != nil {
		t.Fatalf("create post: %v", err)
	}

	note := "after"
	if _, err := posts.Update(ctx, p.ID, "other", model.UpdatePostRequest{Note: &note}); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("error = %v, want %v", err, model.ErrForbidden)
	}
	stored, err := posts.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if stored.Note != "before" {
		t.Errorf("note = %q, want unchanged", stored.Note)
	}

	updated, err := posts.Update(ctx, p.ID, "user123", model.UpdatePostRequest{Note: &note})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Note != "after" || updated.Latitude != 1 || updated.Longitude != 2 {
		t.Errorf("unexpected post after patch: %+v", updated)
	}

	if err := posts.Delete(ctx, p.ID, "other"); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("error = %v, want %v", err, model.ErrForbidden)
	}
	if err := posts.Delete(ctx, p.ID, "user123"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := posts.GetByID(ctx, p.ID); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrPostNotFound)
	}
}
