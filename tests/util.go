package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/aevoninc/horizonfit/core/catalog"
	"github.com/aevoninc/horizonfit/core/user"
	inmemdb "github.com/aevoninc/horizonfit/storage/database/inmem"
)

// OpenDB returns a fresh in-memory database.
func OpenDB(t *testing.T) *inmemdb.DB {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("OpenDB(): %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  &isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

// CreatePatient creates an active patient account enrolled in zone 1.
func CreatePatient(t *testing.T, repo user.Repository, name, uname, email string, createdAt ...time.Time) user.User {
	usr := CreateUser(t, repo, name, uname, email, "", user.PatientRoles, true, createdAt...)
	if err := repo.SetPatientZone(context.Background(), usr.ID, 1); err != nil {
		t.Fatalf("CreatePatient(): %v", err)
	}
	usr.CurrentZone = 1
	return usr
}

func CreateDoctor(t *testing.T, repo user.Repository, name, uname, email string) user.User {
	return CreateUser(t, repo, name, uname, email, "", user.DoctorRoles, true)
}

func CreateAdmin(t *testing.T, repo user.Repository, name, uname, email string) user.User {
	return CreateUser(t, repo, name, uname, email, "", user.AdminRoles, true)
}

func CreateVideo(t *testing.T, repo catalog.Repository, zone int, title string, required, active bool) catalog.ZoneVideo {
	now := time.Now().UTC()
	vid, err := repo.CreateVideo(context.Background(), catalog.ZoneVideo{
		ZoneNumber: zone,
		Title:      title,
		URL:        "https://videos.horizonfit.app/" + title + ".mp4",
		IsRequired: required,
		IsActive:   active,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateVideo(): %v", err)
	}
	return vid
}

func CreateTask(t *testing.T, repo catalog.Repository, zone int, title string, active bool) catalog.DIYTask {
	task, err := repo.CreateTask(context.Background(), catalog.DIYTask{
		ZoneNumber: zone,
		Title:      title,
		IsActive:   active,
	})
	if err != nil {
		t.Fatalf("CreateTask(): %v", err)
	}
	return task
}
