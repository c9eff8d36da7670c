package catalog_test

import (
	"context"
	"testing"

	"github.com/aevoninc/horizonfit/core/catalog"
	inmemdb "github.com/aevoninc/horizonfit/storage/database/inmem"
	testutil "github.com/aevoninc/horizonfit/tests"
)

var ctx = context.Background()

func setup(t *testing.T) (catalog.Service, catalog.Repository) {
	db := testutil.OpenDB(t)
	repo := inmemdb.NewCatalogRepository(db)
	return catalog.NewService(repo), repo
}

func bptr(v bool) *bool { return &v }

func TestZones(t *testing.T) {
	zones := catalog.Zones()
	if len(zones) != 5 {
		t.Fatalf("len(Zones()) = %d, want 5", len(zones))
	}
	for i, z := range zones {
		if z.Number != i+1 {
			t.Errorf("Zones()[%d].Number = %d, want %d", i, z.Number, i+1)
		}
		if z.Name == "" {
			t.Errorf("Zones()[%d].Name is empty", i)
		}
		if z.MinWeeks < 1 {
			t.Errorf("Zones()[%d].MinWeeks = %d, want >= 1", i, z.MinWeeks)
		}
	}
	if catalog.MaxZone() != 5 {
		t.Errorf("MaxZone() = %d, want 5", catalog.MaxZone())
	}

	if _, ok := catalog.ZoneByNumber(0); ok {
		t.Error("ZoneByNumber(0) found, want not found")
	}
	if _, ok := catalog.ZoneByNumber(6); ok {
		t.Error("ZoneByNumber(6) found, want not found")
	}
	if z, ok := catalog.ZoneByNumber(1); !ok || z.Name != "Foundation" {
		t.Errorf("ZoneByNumber(1) = (%+v, %v), want Foundation", z, ok)
	}
}

func Test_service_videos(t *testing.T) {
	svc, _ := setup(t)

	nv := catalog.NewZoneVideo{
		ZoneNumber: 1,
		Title:      "Welcome to Foundation",
		URL:        "https://videos.horizonfit.app/welcome.mp4",
		IsRequired: true,
	}
	if err := nv.Validate(); err != nil {
		t.Fatalf("Validate() failed, %v", err)
	}
	vid, err := svc.CreateVideo(ctx, nv)
	if err != nil {
		t.Fatalf("CreateVideo() failed, %v", err)
	}
	if vid.ID == "" {
		t.Error("CreateVideo() did not assign an ID")
	}
	if !vid.IsActive {
		t.Error("CreateVideo() IsActive = false, want true (published active)")
	}

	bad := catalog.NewZoneVideo{ZoneNumber: 9, Title: "Nope", URL: "https://videos.horizonfit.app/nope.mp4"}
	if err = bad.Validate(); err == nil {
		t.Error("Validate() expected an error for an unknown zone")
	}

	got, err := svc.GetVideo(ctx, vid.ID)
	if err != nil {
		t.Fatalf("GetVideo() failed, %v", err)
	}
	if got != vid {
		t.Errorf("GetVideo() = %+v, want %+v", got, vid)
	}

	// demote to optional and retire
	updated, err := svc.UpdateVideo(ctx, vid.ID, catalog.UpdateZoneVideo{IsRequired: bptr(false), IsActive: bptr(false)})
	if err != nil {
		t.Fatalf("UpdateVideo() failed, %v", err)
	}
	if updated.IsRequired || updated.IsActive {
		t.Errorf("UpdateVideo() = %+v, want optional and inactive", updated)
	}
	if updated.Title != vid.Title {
		t.Errorf("UpdateVideo() Title = %q, want untouched %q", updated.Title, vid.Title)
	}

	if _, err = svc.UpdateVideo(ctx, vid.ID, catalog.UpdateZoneVideo{URL: "not a url"}); err == nil {
		t.Error("UpdateVideo() expected an error for a malformed URL")
	}
	if got, err = svc.GetVideo(ctx, vid.ID); err != nil || got.URL != vid.URL {
		t.Errorf("GetVideo() after rejected update = (%+v, %v), want URL untouched %q", got, err, vid.URL)
	}

	required, err := svc.QueryRequiredActiveVideos(ctx, 1)
	if err != nil {
		t.Fatalf("QueryRequiredActiveVideos() failed, %v", err)
	}
	if len(required) != 0 {
		t.Errorf("len(required) = %d, want 0", len(required))
	}

	if err = svc.DeleteVideos(ctx, vid.ID); err != nil {
		t.Fatalf("DeleteVideos() failed, %v", err)
	}
	if _, err = svc.GetVideo(ctx, vid.ID); err != catalog.ErrVideoNotFound {
		t.Errorf("GetVideo() error = %v, wantErr %v", err, catalog.ErrVideoNotFound)
	}
	if _, err = svc.UpdateVideo(ctx, vid.ID, catalog.UpdateZoneVideo{Title: "Gone"}); err != catalog.ErrVideoNotFound {
		t.Errorf("UpdateVideo() error = %v, wantErr %v", err, catalog.ErrVideoNotFound)
	}
}

func Test_service_QueryRequiredActiveVideos(t *testing.T) {
	svc, repo := setup(t)

	req1 := testutil.CreateVideo(t, repo, 1, "a-intro", true, true)
	req2 := testutil.CreateVideo(t, repo, 1, "b-nutrition", true, true)
	testutil.CreateVideo(t, repo, 1, "c-bonus", false, true)    // optional
	testutil.CreateVideo(t, repo, 1, "d-retired", true, false)  // inactive
	testutil.CreateVideo(t, repo, 2, "e-kickstart", true, true) // other zone

	required, err := svc.QueryRequiredActiveVideos(ctx, 1)
	if err != nil {
		t.Fatalf("QueryRequiredActiveVideos() failed, %v", err)
	}
	if len(required) != 2 {
		t.Fatalf("len(required) = %d, want 2", len(required))
	}
	if required[0].ID != req1.ID || required[1].ID != req2.ID {
		t.Errorf("required = %+v, want [%s %s]", required, req1.ID, req2.ID)
	}

	all, err := svc.QueryVideos(ctx, 0)
	if err != nil {
		t.Fatalf("QueryVideos() failed, %v", err)
	}
	if len(all) != 5 {
		t.Errorf("len(all) = %d, want 5", len(all))
	}
}

func Test_service_tasks(t *testing.T) {
	svc, repo := setup(t)

	task, err := svc.CreateTask(ctx, catalog.NewDIYTask{ZoneNumber: 1, Title: "Walk 20 minutes"})
	if err != nil {
		t.Fatalf("CreateTask() failed, %v", err)
	}
	if !task.IsActive {
		t.Error("CreateTask() IsActive = false, want true")
	}
	testutil.CreateTask(t, repo, 1, "Old habit", false)
	testutil.CreateTask(t, repo, 2, "Meal prep", true)

	tasks, err := svc.QueryActiveTasks(ctx, 1)
	if err != nil {
		t.Fatalf("QueryActiveTasks() failed, %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Errorf("QueryActiveTasks() = %+v, want only %q", tasks, task.Title)
	}

	if err = svc.DeleteTasks(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTasks() failed, %v", err)
	}
	tasks, err = svc.QueryActiveTasks(ctx, 1)
	if err != nil {
		t.Fatalf("QueryActiveTasks() failed, %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("len(tasks) = %d, want 0", len(tasks))
	}
}
