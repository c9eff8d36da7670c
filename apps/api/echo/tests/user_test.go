package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	. "github.com/aevoninc/horizonfit/apps/api/echo"
	"github.com/aevoninc/horizonfit/core/user"
	testutil "github.com/aevoninc/horizonfit/tests"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awesome", "awe@test.cd", "s3cr3t!pwd", nil, true)
	testutil.CreateUser(t, usrRepo, "Gone", "deactivated", "gone@test.cd", "s3cr3t!pwd", nil, false)

	login := func(uname, pwd string) []byte {
		return marchallObj(t, LoginRequest{Username: uname, Password: pwd})
	}

	tests := []httpTest{
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/users/login", body: login("lol", "lol"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login", body: login(usr.Username, "lol"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "login with email", method: http.MethodPost, path: "/v1/users/login", body: login(usr.Email, "s3cr3t!pwd"),
			wantCode: http.StatusOK,
		},
		{
			name: "deactivated account", method: http.MethodPost, path: "/v1/users/login", body: login("deactivated", "s3cr3t!pwd"),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("json.Unmarshal() failed, %v", err)
				}
				if resp.Token == "" {
					t.Error("LoginResponse.Token is empty")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userQuery(t *testing.T) {
	app := setup(t)

	path := func(v url.Values) string { return "/v1/users?" + v.Encode() }

	now := time.Now()
	t1 := now.Add(1 * time.Hour)
	t2 := now.Add(2 * time.Hour)
	t3 := now.Add(3 * time.Hour)

	patient := testutil.CreateUser(t, usrRepo, "Patient", "patient1", "pat@test.cd", "", user.PatientRoles, true, t1)
	doctor := testutil.CreateUser(t, usrRepo, "Doctor", "doctor1", "doc@test.cd", "", user.DoctorRoles, true, t2)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", user.AdminRoles, true, t3)

	adminToken := getToken(t, admin)
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, patient),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Doctors are not admins", path: "/v1/users", token: getToken(t, doctor),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "Get all", path: "/v1/users", token: adminToken, wantData: marchallList(t, patient, doctor, admin)},
		{name: "search (unknown)", path: path(url.Values{"search": {"lol"}}), token: adminToken, wantData: empty},
		{name: "search=doc", path: path(url.Values{"search": {"doc"}}), token: adminToken, wantData: marchallList(t, doctor)},
		{
			name: "role=patient:", path: path(url.Values{"role": {user.RolePatient}}),
			token: adminToken, wantData: marchallList(t, patient),
		},
		{
			name: "role=doctor:,admin:", path: path(url.Values{"role": {user.RoleDoctor, user.RoleAdmin}}),
			token: adminToken, wantData: marchallList(t, doctor, admin),
		},
		{
			name: "created_from", path: path(url.Values{"created_from": {t2.Format(time.RFC3339)}}),
			token: adminToken, wantData: marchallList(t, doctor, admin),
		},
		{
			name: "order by -created_at", path: path(url.Values{"ordering": {"-created_at"}}),
			token: adminToken, wantData: marchallList(t, admin, doctor, patient),
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

func Test_userApi_userDetail(t *testing.T) {
	app := setup(t)

	patient := testutil.CreatePatient(t, usrRepo, "Patient", "patient1", "pat@test.cd")
	other := testutil.CreatePatient(t, usrRepo, "Other", "patient2", "other@test.cd")
	admin := testutil.CreateAdmin(t, usrRepo, "Admin", "admin1", "admin@test.cd")

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users/" + patient.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Own account", path: "/v1/users/" + patient.ID, token: getToken(t, patient),
			wantData: marchallObj(t, patient),
		},
		{
			name: "Someone else's account", path: "/v1/users/" + other.ID, token: getToken(t, patient),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "Admin can read anyone", path: "/v1/users/" + other.ID, token: getToken(t, admin),
			wantData: marchallObj(t, other),
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
