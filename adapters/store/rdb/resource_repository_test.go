package rdb

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yaegashi/botpressops/domain/model"
)

func newRepo(t *testing.T) *ResourceRepository {
	t.Helper()
	db, err := OpenFromURL("sqlite::memory:")
	if err != nil {
		t.Fatalf("OpenFromURL() error = %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}
	return NewResourceRepository(db)
}

func TestResourceRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	if _, err := repo.Get(ctx, "bp", "Cluster::c"); !errors.Is(err, model.ErrResourceStateNotFound) {
		t.Fatalf("Get() on empty store error = %v", err)
	}

	states := []*model.ResourceState{
		{Stack: "bp", URN: "Namespace::apps", Kind: model.KindNamespace, ID: "apps", Seq: 2},
		{Stack: "bp", URN: "Cluster::c", Kind: model.KindCluster, ID: "/subscriptions/x/c", Seq: 1, Outputs: map[string]string{"id": "/subscriptions/x/c"}},
		{Stack: "other", URN: "Cluster::c", Kind: model.KindCluster, Seq: 1},
	}
	for _, s := range states {
		if err := repo.Put(ctx, s); err != nil {
			t.Fatalf("Put(%s) error = %v", s.URN, err)
		}
	}

	list, err := repo.List(ctx, "bp")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var got []string
	for _, s := range list {
		got = append(got, s.URN)
	}
	if diff := cmp.Diff([]string{"Cluster::c", "Namespace::apps"}, got); diff != "" {
		t.Errorf("List order mismatch (-want +got):\n%s", diff)
	}

	// Put replaces an existing record in place.
	if err := repo.Put(ctx, &model.ResourceState{Stack: "bp", URN: "Cluster::c", Kind: model.KindCluster, ID: "new", Seq: 1, Outputs: map[string]string{"id": "new"}}); err != nil {
		t.Fatalf("Put(update) error = %v", err)
	}
	c, err := repo.Get(ctx, "bp", "Cluster::c")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if c.ID != "new" || c.Outputs["id"] != "new" {
		t.Errorf("updated record = %+v", c)
	}
	if c.CreatedAt.IsZero() {
		t.Error("CreatedAt must be preserved")
	}

	if err := repo.Delete(ctx, "bp", "Cluster::c"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "bp", "Cluster::c"); !errors.Is(err, model.ErrResourceStateNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, "other", "Cluster::c"); err != nil {
		t.Errorf("other stack must be untouched: %v", err)
	}
}

func TestOpenFromURLRejectsUnknownScheme(t *testing.T) {
	if _, err := OpenFromURL("postgres://localhost/db"); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}
