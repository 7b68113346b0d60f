package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-test/deep"

	"yt/internal/backends/git"
	"yt/internal/config"
	"yt/internal/errors"
	"yt/internal/identity"
	"yt/internal/index"
	"yt/internal/record"
	"yt/internal/slogutil"
	"yt/internal/testutil"
)

type fixture struct {
	repo    *testutil.GitRepo
	cfg     *config.Config
	backend *git.GitAdapter
	store   *Store
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	repo := testutil.NewGitRepo(t)
	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = false
	logger := slogutil.NewDiscardLogger()

	backend, err := git.NewGitAdapter(repo.Root, cfg, logger)
	if err != nil {
		t.Fatalf("NewGitAdapter() error = %v", err)
	}
	s, err := Init(context.Background(), repo.Root, cfg, backend, logger,
		record.DefaultSchema(), record.DefaultCreationSchema(), record.DefaultIndexSchema(), opts...)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return &fixture{repo: repo, cfg: cfg, backend: backend, store: s}
}

func (f *fixture) create(t *testing.T, title string, extra map[string]interface{}) string {
	t.Helper()
	fields := map[string]interface{}{
		"title":       title,
		"description": "about " + title,
		"estimate":    "2 days",
	}
	for k, v := range extra {
		fields[k] = v
	}
	id, err := f.store.Create(context.Background(), fields)
	if err != nil {
		t.Fatalf("Create(%q) error = %v", title, err)
	}
	return id
}

func (f *fixture) index(t *testing.T) index.Index {
	t.Helper()
	idx, err := index.Load(f.repo.Path("issues/issues.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestInit(t *testing.T) {
	f := newFixture(t)

	staged := f.repo.Git("diff", "--cached", "--name-only")
	for _, want := range []string{"issues/issues.yaml", "issues/skeleton", "issues/skeleton_add"} {
		if !strings.Contains(staged, want) {
			t.Errorf("%s should be staged, got:\n%s", want, staged)
		}
	}

	schema := f.repo.ReadFile("issues/skeleton")
	if !strings.HasPrefix(schema, "title: ") {
		t.Errorf("skeleton should keep field order, got:\n%s", schema)
	}

	idx := f.index(t)
	if got := idx.Schema(nil).Has("comment"); got {
		t.Error("index skeleton should not carry comment")
	}

	exclude := f.repo.ReadFile(".git/info/exclude")
	if !strings.Contains(exclude, "/.yt/") {
		t.Errorf("state dir not excluded:\n%s", exclude)
	}

	_, err := Init(context.Background(), f.repo.Root, f.cfg, f.backend, slogutil.NewDiscardLogger(),
		record.DefaultSchema(), record.DefaultCreationSchema(), record.DefaultIndexSchema())
	if !errors.Is(err, errors.InvalidInput) {
		t.Errorf("second Init: got %v, want INVALID_INPUT", err)
	}
}

func TestOpen_Uninitialized(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	cfg := config.DefaultConfig()
	logger := slogutil.NewDiscardLogger()
	backend, err := git.NewGitAdapter(repo.Root, cfg, logger)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Open(repo.Root, cfg, backend, logger)
	if !errors.Is(err, errors.NoRecordSchema) {
		t.Errorf("got %v, want NO_RECORD_SCHEMA", err)
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "Fix login", nil)

	if len(id) != 40 || !identity.IsID(id) {
		t.Errorf("id %q should be 40 lowercase hex digits", id)
	}
	if tagged := f.repo.Git("rev-parse", "YAMLTrak-new-ticket"); tagged != id {
		t.Errorf("tag points at %s, want %s", tagged, id)
	}
	if msg := f.repo.Git("log", "-1", "--format=%s", id); msg != "TICKETPREP: Fix login" {
		t.Errorf("id commit message = %q", msg)
	}
	if staged := f.repo.Git("diff", "--cached", "--name-only"); !strings.Contains(staged, "issues/"+id) {
		t.Errorf("record file should be staged:\n%s", staged)
	}

	rec, err := f.store.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	want := record.Record{
		"title":       "Fix login",
		"description": "about Fix login",
		"estimate":    "2 days",
		"status":      "open",
		"group":       "unfiled",
		"priority":    "high, normal, low",
		"comment":     "Opening ticket",
	}
	if diff := deep.Equal(rec, want); diff != nil {
		t.Error(diff)
	}

	entry := f.index(t)[id]
	schema := f.index(t).Schema(nil)
	for k, v := range entry {
		if !schema.Has(k) {
			t.Errorf("index entry has non-schema field %q", k)
		}
		if rec[k] != v {
			t.Errorf("index[%s][%s] = %v, record has %v", id, k, v, rec[k])
		}
	}
	if _, ok := entry["comment"]; ok {
		t.Error("comment is not an index field")
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Create(context.Background(), map[string]interface{}{"title": "only a title", "estimate": " "})
	if !errors.Is(err, errors.InvalidInput) {
		t.Fatalf("got %v, want INVALID_INPUT", err)
	}
	if !strings.Contains(err.Error(), "description") || !strings.Contains(err.Error(), "estimate") {
		t.Errorf("error should name the missing fields: %v", err)
	}

	id := f.create(t, "Explicit", map[string]interface{}{"status": "in progress", "bogus": "dropped"})
	rec, _ := f.store.Get(context.Background(), id)
	if rec["status"] != "in progress" {
		t.Errorf("explicit status overwritten: %v", rec["status"])
	}
	if _, ok := rec["bogus"]; ok {
		t.Error("non-schema field should not be stored")
	}
}

func TestCreate_UUIDIdentity(t *testing.T) {
	f := newFixture(t, WithIdentity(&identity.UUIDProvider{}))
	id := f.create(t, "No marker commit", nil)
	if len(id) != 32 {
		t.Errorf("uuid id %q should be 32 hex digits", id)
	}
	if tags := f.repo.Git("tag", "-l"); tags != "" {
		t.Errorf("uuid identity should not tag anything, got %q", tags)
	}
	if _, err := os.Stat(f.repo.Path("issues/" + id)); err != nil {
		t.Errorf("record file missing: %v", err)
	}
}

func TestUpdateAndClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "Fix login", nil)

	err := f.store.Update(ctx, id, map[string]interface{}{
		"comment":  "halfway",
		"estimate": nil,
		"group":    "alpha",
	})
	if err != nil {
		t.Fatal(err)
	}
	rec, _ := f.store.Get(ctx, id)
	if rec["comment"] != "halfway" || rec["group"] != "alpha" {
		t.Errorf("update not applied: %v", rec)
	}
	if rec["estimate"] != "2 days" {
		t.Errorf("nil field should keep the stored value, got %v", rec["estimate"])
	}

	if err := f.store.Close(ctx, id); err != nil {
		t.Fatal(err)
	}
	rec, _ = f.store.Get(ctx, id)
	if rec["status"] != "closed" || rec["comment"] != "halfway" {
		t.Errorf("close should only change status: %v", rec)
	}
	if f.index(t)[id]["status"] != "closed" {
		t.Error("index not updated on close")
	}

	if err := f.store.Update(ctx, "0000", nil); !errors.Is(err, errors.RecordNotFound) {
		t.Errorf("unknown id: got %v, want RECORD_NOT_FOUND", err)
	}
}

func TestUpdate_FillsSchemaGaps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "Sparse", nil)

	f.repo.WriteFile("issues/"+id, "title: Sparse\ncomment:\n")
	if err := f.store.Update(ctx, id, nil); err != nil {
		t.Fatal(err)
	}
	rec, _ := f.store.Get(ctx, id)
	if rec["comment"] != "" {
		t.Errorf("null comment should become empty string, got %#v", rec["comment"])
	}
	if rec["group"] != "unfiled" {
		t.Errorf("missing group should take the default, got %v", rec["group"])
	}
}

func TestUpdate_IndexStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "Locked out", nil)

	f.cfg.Index.LockTimeoutMs = 0
	held, err := index.AcquireLock(ctx, filepath.Join(f.repo.Root, config.Dir), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	err = f.store.Close(ctx, id)
	if !errors.Is(err, errors.IndexStale) || !errors.IsSoft(err) {
		t.Fatalf("got %v, want soft INDEX_STALE", err)
	}
	rec, _ := f.store.Get(ctx, id)
	if rec["status"] != "closed" {
		t.Error("canonical record should be written even when the index is not")
	}
	if f.index(t)[id]["status"] != "open" {
		t.Error("index should still hold the old projection")
	}

	held.Release()
	res, err := f.store.Freshness(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Fresh || len(res.Stale) != 1 {
		t.Errorf("Freshness() = %+v, want one stale entry", res)
	}
	if err := f.store.Reindex(ctx, id); err != nil {
		t.Fatal(err)
	}
	if res, _ := f.store.Freshness(ctx); !res.Fresh {
		t.Errorf("index should be fresh after reindex: %+v", res)
	}
}

func TestRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "Fix login", nil)
	f.repo.Commit("add ticket")
	if err := f.store.Close(ctx, id); err != nil {
		t.Fatal(err)
	}
	f.repo.Commit("close ticket")

	current, err := f.store.Read(ctx, id, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(current) != 1 || !current[0].Working || current[0].Data["status"] != "closed" {
		t.Errorf("Read(false) = %+v", current)
	}

	snaps, err := f.store.Read(ctx, id, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 3 {
		t.Fatalf("got %d snapshots, want working copy plus two commits", len(snaps))
	}
	if snaps[0].Changed() {
		t.Errorf("working copy matches the last commit, diff = %+v", snaps[0].Diff)
	}
	if !snaps[1].Changed() || snaps[1].Diff.Changed["status"].Old != "open" || snaps[1].Diff.Changed["status"].New != "closed" {
		t.Errorf("close commit diff = %+v", snaps[1].Diff)
	}
	if snaps[1].Committer != "Test <test@test.com>" {
		t.Errorf("committer = %q", snaps[1].Committer)
	}
	if snaps[2].Compared {
		t.Error("oldest snapshot has nothing to compare against")
	}

	if _, err := f.store.Read(ctx, "ffff", true); !errors.Is(err, errors.RecordNotFound) {
		t.Errorf("got %v, want RECORD_NOT_FOUND", err)
	}
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open := f.create(t, "Open one", map[string]interface{}{"priority": "low", "estimate": "3 hours"})
	closed := f.create(t, "Closed one", nil)
	if err := f.store.Close(ctx, closed); err != nil {
		t.Fatal(err)
	}

	entries, err := f.store.List(ctx, "OPEN")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != open {
		t.Fatalf("List(open) = %+v", entries)
	}
	want := record.Classification{Scale: record.ScaleShort, Priority: record.PriorityLow, Estimate: "3 hours"}
	if diff := deep.Equal(entries[0].Classification, want); diff != nil {
		t.Error(diff)
	}

	all, _ := f.store.List(ctx, "")
	if len(all) != 2 {
		t.Errorf("List(\"\") returned %d entries, want 2", len(all))
	}
}

func TestReindexAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "A", nil)
	b := f.create(t, "B", nil)

	if err := index.Write(f.repo.Path("issues/issues.yaml"), index.New(record.DefaultIndexSchema())); err != nil {
		t.Fatal(err)
	}
	f.repo.WriteFile("issues/badc0de0", "- not\n- a record\n")
	f.repo.WriteFile("issues/README", "title: not a record either\n")

	n, err := f.store.ReindexAll(ctx)
	if n != 2 {
		t.Errorf("reindexed %d records, want 2", n)
	}
	if err == nil || !strings.Contains(err.Error(), "badc0de0") {
		t.Errorf("unreadable record should be reported, got %v", err)
	}
	if diff := deep.Equal(f.index(t).IDs(), sorted(a, b)); diff != nil {
		t.Error(diff)
	}
}

func TestRecordIDs_SkipsNonRecordFiles(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "Real", nil)
	f.repo.WriteFile("issues/README", "title: notes\n")
	f.repo.WriteFile("issues/.hidden", "title: hidden\n")
	f.repo.WriteFile("issues/ABCD", "title: uppercase\n")

	ids, err := f.store.RecordIDs()
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(ids, []string{id}); diff != nil {
		t.Error(diff)
	}

	fresh, err := f.store.Freshness(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !fresh.Fresh {
		t.Errorf("stray files should not make the index stale: %+v", fresh)
	}
}

func TestRecordID_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "Real", nil)
	f.repo.WriteFile("outside.yaml", "title: outside\n")
	before := f.repo.ReadFile("issues/issues.yaml")

	for _, bad := range []string{
		"issues.yaml",
		"skeleton",
		"skeleton_add",
		"newticket",
		"../outside.yaml",
		"../" + id,
		"sub/" + id,
		"README",
		"",
	} {
		if err := f.store.Close(ctx, bad); !errors.Is(err, errors.InvalidInput) {
			t.Errorf("Close(%q) = %v, want INVALID_INPUT", bad, err)
		}
		if err := f.store.Update(ctx, bad, map[string]interface{}{"title": "x"}); !errors.Is(err, errors.InvalidInput) {
			t.Errorf("Update(%q) = %v, want INVALID_INPUT", bad, err)
		}
		if _, err := f.store.Read(ctx, bad, true); !errors.Is(err, errors.InvalidInput) {
			t.Errorf("Read(%q) = %v, want INVALID_INPUT", bad, err)
		}
		if err := f.store.Reindex(ctx, bad); !errors.Is(err, errors.InvalidInput) {
			t.Errorf("Reindex(%q) = %v, want INVALID_INPUT", bad, err)
		}
	}

	if got := f.repo.ReadFile("issues/issues.yaml"); got != before {
		t.Errorf("index changed by rejected ids:\n%s", got)
	}
	if got := f.repo.ReadFile("outside.yaml"); got != "title: outside\n" {
		t.Errorf("file outside the folder rewritten:\n%s", got)
	}
	idx := f.index(t)
	if _, ok := idx[id]; !ok {
		t.Errorf("record %s dropped from index", id)
	}
	if _, ok := idx[record.SchemaID]; !ok {
		t.Error("skeleton entry dropped from index")
	}
}

func TestCreationSchema_LegacyName(t *testing.T) {
	f := newFixture(t)
	if err := os.Remove(f.repo.Path("issues/skeleton_add")); err != nil {
		t.Fatal(err)
	}
	f.repo.WriteFile("issues/newticket", "title: A title\n")

	s, err := Open(f.repo.Root, f.cfg, f.backend, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	creation, err := s.CreationSchema()
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(creation.Names(), []string{"title"}); diff != nil {
		t.Error(diff)
	}

	ids, _ := s.RecordIDs()
	if len(ids) != 0 {
		t.Errorf("schema files listed as records: %v", ids)
	}
}

func TestPurgeIsNoop(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "Keep me", nil)
	if err := f.store.Purge(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.Get(context.Background(), id); err != nil {
		t.Errorf("record should survive purge: %v", err)
	}
}

func sorted(ids ...string) []string {
	if ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}
	return ids
}
