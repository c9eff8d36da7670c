package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aevoninc/horizonfit/core/catalog"
	testutil "github.com/aevoninc/horizonfit/tests"
)

func Test_catalogApi_updateVideo(t *testing.T) {
	app := setup(t)

	doctor := testutil.CreateDoctor(t, usrRepo, "Doctor", "doctor1", "doc@test.cd")
	patient := testutil.CreatePatient(t, usrRepo, "Patient", "patient1", "pat@test.cd")
	token := getToken(t, doctor)

	vid := testutil.CreateVideo(t, catRepo, 1, "intro", true, true)

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPut, path: "/v1/catalog/videos/" + vid.ID,
			body:     marchallObj(t, catalog.UpdateZoneVideo{Title: "Welcome"}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Catalog is managed by the care team", method: http.MethodPut, path: "/v1/catalog/videos/" + vid.ID,
			body: marchallObj(t, catalog.UpdateZoneVideo{Title: "Welcome"}), token: getToken(t, patient),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "unknown video", method: http.MethodPut, path: "/v1/catalog/videos/lol",
			body: marchallObj(t, catalog.UpdateZoneVideo{Title: "Welcome"}), token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// a malformed URL is rejected and the video stays untouched
	req, rec := newAuthRequest(http.MethodPut, "/v1/catalog/videos/"+vid.ID, token,
		marchallObj(t, catalog.UpdateZoneVideo{URL: "not a url"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("PUT with malformed URL code = %v; want %v", rec.Code, http.StatusBadRequest)
	}
	var fldErrs map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &fldErrs); err != nil {
		t.Fatalf("json.Unmarshal() failed, %v", err)
	}
	if _, ok := fldErrs["url"]; !ok {
		t.Errorf("field errors = %v, want an entry for url", fldErrs)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/catalog/videos?zone=1", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /catalog/videos code = %v; want %v", rec.Code, http.StatusOK)
	}
	var vids []catalog.ZoneVideo
	if err := json.Unmarshal(rec.Body.Bytes(), &vids); err != nil {
		t.Fatalf("json.Unmarshal() failed, %v", err)
	}
	if len(vids) != 1 || vids[0].URL != vid.URL {
		t.Errorf("videos = %+v, want the original URL %q", vids, vid.URL)
	}

	// partial update keeps the fields left out
	req, rec = newAuthRequest(http.MethodPut, "/v1/catalog/videos/"+vid.ID, token,
		marchallObj(t, catalog.UpdateZoneVideo{Title: "Welcome to Foundation"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT code = %v; want %v", rec.Code, http.StatusOK)
	}
	var updated catalog.ZoneVideo
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("json.Unmarshal() failed, %v", err)
	}
	if updated.Title != "Welcome to Foundation" {
		t.Errorf("Title = %q, want %q", updated.Title, "Welcome to Foundation")
	}
	if updated.URL != vid.URL {
		t.Errorf("URL = %q, want untouched %q", updated.URL, vid.URL)
	}
	if !updated.IsRequired || !updated.IsActive {
		t.Errorf("flags = (%v, %v), want untouched (true, true)", updated.IsRequired, updated.IsActive)
	}
}
