package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aevoninc/horizonfit/core/metrics"
	"github.com/aevoninc/horizonfit/core/progress"
	emailsvc "github.com/aevoninc/horizonfit/services/email"
	testutil "github.com/aevoninc/horizonfit/tests"
)

func Test_progressApi_auth(t *testing.T) {
	app := setup(t)

	patient := testutil.CreatePatient(t, usrRepo, "Patient", "patient1", "pat@test.cd")
	doctor := testutil.CreateDoctor(t, usrRepo, "Doctor", "doctor1", "doc@test.cd")

	tests := []httpTest{
		{name: "Auth required", path: "/v1/progress", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Patient portal is for patients", path: "/v1/progress", token: getToken(t, doctor),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Doctor portal is not for patients", path: "/v1/patients/" + patient.ID + "/progress", token: getToken(t, patient),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_progressApi_videoGateAndMetrics(t *testing.T) {
	app := setup(t)

	patient := testutil.CreatePatient(t, usrRepo, "Patient", "patient1", "pat@test.cd")
	vid := testutil.CreateVideo(t, catRepo, 1, "intro", true, true)
	token := getToken(t, patient)

	// fresh patients cannot submit metrics yet
	req, rec := newAuthRequest(http.MethodGet, "/v1/progress", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /progress code = %v; want %v", rec.Code, http.StatusOK)
	}
	var view progress.ProgressView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("json.Unmarshal() failed, %v", err)
	}
	if view.CurrentZone != 1 {
		t.Errorf("CurrentZone = %d, want 1", view.CurrentZone)
	}
	if view.CanEnterMetrics || view.MetricsReason != progress.ReasonVideosIncomplete {
		t.Errorf("metrics gate = (%v, %s), want shut with %s", view.CanEnterMetrics, view.MetricsReason, progress.ReasonVideosIncomplete)
	}

	tests := []httpTest{
		{
			name: "watch unknown video", method: http.MethodPost, path: "/v1/progress/videos/lol/watch", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "metrics blocked before videos", method: http.MethodPost, path: "/v1/progress/metrics", token: token,
			body:     marchallObj(t, metrics.NewMetrics{Weight: fptr(80), BodyFatPct: fptr(25), VisceralFat: fptr(8)}),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "metrics submission not allowed yet"}),
		},
		{
			name: "watch the required video", method: http.MethodPost, path: "/v1/progress/videos/" + vid.ID + "/watch", token: token,
			wantData: marchallObj(t, progress.WatchResult{VideosCompleted: true, WatchedCount: 1, TotalRequired: 1}),
		},
		{
			name: "eligibility opens", path: "/v1/progress/metrics/eligibility", token: token,
			wantData: marchallObj(t, progress.MetricsEligibility{Allowed: true}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// accepted submission computes recommendations
	body := marchallObj(t, metrics.NewMetrics{Weight: fptr(80), BodyFatPct: fptr(25), VisceralFat: fptr(8)})
	req, rec = newAuthRequest(http.MethodPost, "/v1/progress/metrics", token, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /progress/metrics code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var res progress.MetricsResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("json.Unmarshal() failed, %v", err)
	}
	if want := metrics.Calculate(80, 25, 8); res.Recommendations != want {
		t.Errorf("Recommendations = %+v, want %+v", res.Recommendations, want)
	}

	// three entries were recorded
	req, rec = newAuthRequest(http.MethodGet, "/v1/progress/metrics", token)
	app.ServeHTTP(rec, req)
	var entries []metrics.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("json.Unmarshal() failed, %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("len(entries) = %d, want 3", len(entries))
	}

	// the weekly limit now applies
	req, rec = newAuthRequest(http.MethodPost, "/v1/progress/metrics", token, body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: "metrics submission not allowed yet"}),
	}, rec)

	// recommendations are readable
	req, rec = newAuthRequest(http.MethodGet, "/v1/progress/recommendations", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /progress/recommendations code = %v; want %v", rec.Code, http.StatusOK)
	}
	var recView metrics.RecommendationsView
	if err := json.Unmarshal(rec.Body.Bytes(), &recView); err != nil {
		t.Fatalf("json.Unmarshal() failed, %v", err)
	}
	if recView.HasOverrides {
		t.Error("HasOverrides = true, want false")
	}
	if recView.Effective != recView.Computed {
		t.Errorf("Effective = %+v, want Computed %+v", recView.Effective, recView.Computed)
	}
}

func Test_progressApi_weeklyLogs(t *testing.T) {
	app := setup(t)
	emailsvc.ClearSentMessages()

	patient := testutil.CreatePatient(t, usrRepo, "Patient", "patient1", "pat@test.cd")
	token := getToken(t, patient)
	body := marchallObj(t, progress.NewWeeklyLog{Compliance: progress.ComplianceFull, CompletedTasks: 2, TotalTasks: 2})

	tests := []httpTest{
		{
			name: "unknown zone", method: http.MethodPost, path: "/v1/progress/zones/99/weekly-logs", token: token, body: body,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "week 1", method: http.MethodPost, path: "/v1/progress/zones/1/weekly-logs", token: token, body: body,
			wantCode: http.StatusCreated, wantData: marchallObj(t, progress.LogResult{Action: progress.ActionContinueZone, CurrentWeeks: 1}),
		},
		{
			name: "week 2", method: http.MethodPost, path: "/v1/progress/zones/1/weekly-logs", token: token, body: body,
			wantCode: http.StatusCreated, wantData: marchallObj(t, progress.LogResult{Action: progress.ActionContinueZone, CurrentWeeks: 2}),
		},
		{
			name: "week 3 promotes", method: http.MethodPost, path: "/v1/progress/zones/1/weekly-logs", token: token, body: body,
			wantCode: http.StatusCreated, wantData: marchallObj(t, progress.LogResult{Action: progress.ActionZoneUpgrade, NewZone: 2}),
		},
		{
			name: "completed zone rejects logs", method: http.MethodPost, path: "/v1/progress/zones/1/weekly-logs", token: token, body: body,
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "zone already completed"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the promotion sent a zone-upgrade email
	if n := len(emailsvc.SentMessages); n != 1 {
		t.Fatalf("len(SentMessages) = %d, want 1", n)
	}
	msg := emailsvc.SentMessages[0]
	if msg.TemplateName != "zone-upgrade" {
		t.Errorf("TemplateName = %q, want %q", msg.TemplateName, "zone-upgrade")
	}
	if len(msg.To) != 1 || msg.To[0].Address != patient.Email {
		t.Errorf("To = %v, want [%s]", msg.To, patient.Email)
	}

	// history is in week order; the rejected log was still appended
	req, rec := newAuthRequest(http.MethodGet, "/v1/progress/weekly-logs", token)
	app.ServeHTTP(rec, req)
	var logs []progress.WeeklyLog
	if err := json.Unmarshal(rec.Body.Bytes(), &logs); err != nil {
		t.Fatalf("json.Unmarshal() failed, %v", err)
	}
	if len(logs) != 4 {
		t.Fatalf("len(logs) = %d, want 4", len(logs))
	}
	for i, wl := range logs {
		if wl.WeekNumber != i+1 {
			t.Errorf("logs[%d].WeekNumber = %d, want %d", i, wl.WeekNumber, i+1)
		}
	}
}

func Test_progressApi_programComplete(t *testing.T) {
	app := setup(t)
	emailsvc.ClearSentMessages()

	patient := testutil.CreatePatient(t, usrRepo, "Patient", "patient1", "pat@test.cd")
	if err := usrRepo.SetPatientZone(context.Background(), patient.ID, 5); err != nil {
		t.Fatalf("SetPatientZone() failed, %v", err)
	}
	token := getToken(t, patient)
	body := marchallObj(t, progress.NewWeeklyLog{Compliance: progress.ComplianceFull, CompletedTasks: 1, TotalTasks: 1})

	for week := 1; week <= 2; week++ {
		req, rec := newAuthRequest(http.MethodPost, "/v1/progress/zones/5/weekly-logs", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("week %d code = %v; want %v", week, rec.Code, http.StatusCreated)
		}
	}

	req, rec := newAuthRequest(http.MethodPost, "/v1/progress/zones/5/weekly-logs", token, body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusCreated,
		wantData: marchallObj(t, progress.LogResult{Action: progress.ActionProgramComplete}),
	}, rec)

	if n := len(emailsvc.SentMessages); n != 1 {
		t.Fatalf("len(SentMessages) = %d, want 1", n)
	}
	if tmpl := emailsvc.SentMessages[0].TemplateName; tmpl != "program-complete" {
		t.Errorf("TemplateName = %q, want %q", tmpl, "program-complete")
	}
}

func Test_progressApi_doctorOverrides(t *testing.T) {
	app := setup(t)

	patient := testutil.CreatePatient(t, usrRepo, "Patient", "patient1", "pat@test.cd")
	doctor := testutil.CreateDoctor(t, usrRepo, "Doctor", "doctor1", "doc@test.cd")
	patientToken := getToken(t, patient)
	doctorToken := getToken(t, doctor)

	// no recommendations yet
	req, rec := newAuthRequest(http.MethodPut, "/v1/patients/"+patient.ID+"/recommendations/overrides", doctorToken,
		marchallObj(t, metrics.UpdateOverrides{CaloriesPerDay: iptr(2000)}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)

	// the patient completes the gate and submits metrics
	vid := testutil.CreateVideo(t, catRepo, 1, "intro", true, true)
	req, rec = newAuthRequest(http.MethodPost, "/v1/progress/videos/"+vid.ID+"/watch", patientToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("watch code = %v; want %v", rec.Code, http.StatusOK)
	}
	req, rec = newAuthRequest(http.MethodPost, "/v1/progress/metrics", patientToken,
		marchallObj(t, metrics.NewMetrics{Weight: fptr(80), BodyFatPct: fptr(25), VisceralFat: fptr(8)}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("metrics code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	// the doctor can see the patient's data
	req, rec = newAuthRequest(http.MethodGet, "/v1/patients/"+patient.ID+"/progress", doctorToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /patients/:id/progress code = %v; want %v", rec.Code, http.StatusOK)
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/patients/"+patient.ID+"/metrics", doctorToken)
	app.ServeHTTP(rec, req)
	var entries []metrics.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("json.Unmarshal() failed, %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("len(entries) = %d, want 3", len(entries))
	}

	// overrides layer over the computed values
	req, rec = newAuthRequest(http.MethodPut, "/v1/patients/"+patient.ID+"/recommendations/overrides", doctorToken,
		marchallObj(t, metrics.UpdateOverrides{CaloriesPerDay: iptr(2000), StepsPerDay: iptr(9000)}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT overrides code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var view metrics.RecommendationsView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("json.Unmarshal() failed, %v", err)
	}
	if !view.HasOverrides {
		t.Error("HasOverrides = false, want true")
	}
	if view.Effective.CaloriesPerDay != 2000 || view.Effective.StepsPerDay != 9000 {
		t.Errorf("Effective = %+v, want calories=2000 steps=9000", view.Effective)
	}
	if want := metrics.Calculate(80, 25, 8); view.Computed != want {
		t.Errorf("Computed = %+v, want %+v", view.Computed, want)
	}

	// the patient sees the effective values too
	req, rec = newAuthRequest(http.MethodGet, "/v1/progress/recommendations", patientToken)
	app.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("json.Unmarshal() failed, %v", err)
	}
	if view.Effective.CaloriesPerDay != 2000 {
		t.Errorf("Effective.CaloriesPerDay = %d, want 2000", view.Effective.CaloriesPerDay)
	}
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
