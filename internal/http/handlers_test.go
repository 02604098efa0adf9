package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/Sebastiano1412/aerosachs-pilot-gallery/internal/config"
	"github.com/Sebastiano1412/aerosachs-pilot-gallery/internal/services"
	"github.com/Sebastiano1412/aerosachs-pilot-gallery/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, http.Handler, *sqlx.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := config.Config{
		DatabaseURL:       "unused",
		JWTSecret:         "test-secret",
		JWTIssuer:         "aerosachs-test",
		AccessTTLSeconds:  3600,
		RefreshTTLSeconds: 86400,
		MediaStoragePath:  t.TempDir(),
		UploadLimit:       3,
		VoteLimit:         3,
		MaxUploadBytes:    5 << 20,
	}
	server := NewServer(db, cfg, services.NewMetricsHub())
	return server, server.Router(), db
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func registerPilot(t *testing.T, handler http.Handler, callsign string) TokenResponse {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email:     callsign + "@aerosachs.test",
		Callsign:  callsign,
		FirstName: "Test",
		LastName:  "Pilot",
		Password:  "secret1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register %s: status %d, body %s", callsign, rec.Code, rec.Body.String())
	}
	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp
}

func staffToken(t *testing.T, server *Server, db *sqlx.DB) string {
	t.Helper()
	staff := testutil.CreateUser(t, db, "ASX001", true)
	token, _, err := server.Tokens.CreateAccessToken(staff.ID, staff.Callsign, services.RolesFor(true))
	if err != nil {
		t.Fatalf("staff token: %v", err)
	}
	return token
}

func TestRegisterNormalizesCallsign(t *testing.T) {
	_, handler, _ := newTestServer(t)
	rec := doJSON(t, handler, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email:     "pilot@aerosachs.test",
		Callsign:  "asx010",
		FirstName: "Mario",
		LastName:  "Rossi",
		Password:  "secret1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Callsign != "ASX010" {
		t.Errorf("callsign = %q, want ASX010", resp.User.Callsign)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("expected tokens in register response")
	}
}

func TestRegisterValidation(t *testing.T) {
	_, handler, _ := newTestServer(t)
	base := RegisterRequest{
		Email:     "pilot@aerosachs.test",
		Callsign:  "ASX010",
		FirstName: "Mario",
		LastName:  "Rossi",
		Password:  "secret1",
	}
	mismatch := "different"
	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{"bad callsign", func(r *RegisterRequest) { r.Callsign = "XYZ123" }},
		{"short password", func(r *RegisterRequest) { r.Password = "abc" }},
		{"password mismatch", func(r *RegisterRequest) { r.ConfirmPassword = &mismatch }},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }},
		{"missing name", func(r *RegisterRequest) { r.FirstName = " " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			rec := doJSON(t, handler, http.MethodPost, "/api/auth/register", "", req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRegisterDuplicates(t *testing.T) {
	_, handler, _ := newTestServer(t)
	registerPilot(t, handler, "ASX010")

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email:     "ASX010@aerosachs.test",
		Callsign:  "ASX011",
		FirstName: "Other",
		LastName:  "Pilot",
		Password:  "secret1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate email status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email:     "other@aerosachs.test",
		Callsign:  "asx010",
		FirstName: "Other",
		LastName:  "Pilot",
		Password:  "secret1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate callsign status = %d, want 400", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	_, handler, _ := newTestServer(t)
	registerPilot(t, handler, "ASX010")

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "ASX010@aerosachs.test",
		Password: "secret1",
	})
	if rec.Code != http.StatusOK {
		t.Errorf("login status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "ASX010@aerosachs.test",
		Password: "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", rec.Code)
	}
}

func uploadRequest(t *testing.T, token, title, description string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("title", title)
	_ = writer.WriteField("description", description)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="approach.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("jpeg-bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	_ = writer.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/photos/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploadVoteAndLeaderboard(t *testing.T) {
	server, handler, db := newTestServer(t)
	uploader := registerPilot(t, handler, "ASX010")
	voter := registerPilot(t, handler, "ASX011")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, uploader.AccessToken, "Final approach", "Short final at sunset"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	var photo PhotoDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &photo); err != nil {
		t.Fatalf("decode photo: %v", err)
	}
	if photo.Approved {
		t.Error("uploaded photo must be pending")
	}

	// Pending photos are invisible to voters.
	rec = doJSON(t, handler, http.MethodPost, "/api/photos/"+photo.ID+"/votes", voter.AccessToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("vote on pending status = %d, want 404", rec.Code)
	}

	staff := staffToken(t, server, db)
	rec = doJSON(t, handler, http.MethodPost, "/api/staff/photos/"+photo.ID+"/approve", staff, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("approve status = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/photos/"+photo.ID+"/votes", voter.AccessToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("vote status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Self vote and duplicate vote both surface as 409 with distinct codes.
	rec = doJSON(t, handler, http.MethodPost, "/api/photos/"+photo.ID+"/votes", uploader.AccessToken, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("self vote status = %d, want 409", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPost, "/api/photos/"+photo.ID+"/votes", voter.AccessToken, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate vote status = %d, want 409", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != services.CodeConflict {
		t.Errorf("duplicate vote code = %q", errResp.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/photos/", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list struct {
		Items []PhotoDTO `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].VoteCount != 1 {
		t.Errorf("leaderboard = %+v, want single photo with one vote", list.Items)
	}
}

func TestUploadQuotaExhaustion(t *testing.T) {
	_, handler, _ := newTestServer(t)
	uploader := registerPilot(t, handler, "ASX010")

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, uploadRequest(t, uploader.AccessToken, fmt.Sprintf("Photo %d", i), "A contest entry"))
		if rec.Code != http.StatusCreated {
			t.Fatalf("upload %d status = %d", i, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, uploader.AccessToken, "One too many", "Over the limit"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("fourth upload status = %d, want 409", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != services.CodeQuotaExceeded {
		t.Errorf("code = %q, want QUOTA_EXCEEDED", errResp.Code)
	}
}

func TestQuotaEndpoint(t *testing.T) {
	_, handler, _ := newTestServer(t)
	pilot := registerPilot(t, handler, "ASX010")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, pilot.AccessToken, "Final approach", "Short final at sunset"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/me/quota", pilot.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("quota status = %d", rec.Code)
	}
	var quota QuotaResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &quota); err != nil {
		t.Fatalf("decode quota: %v", err)
	}
	if quota.UploadCount != 1 || quota.UploadLimit != 3 || quota.UploadsLeft != 2 {
		t.Errorf("upload quota = %+v", quota)
	}
	if quota.VotesUsed != 0 || quota.VoteLimit != 3 || quota.VotesLeft != 3 {
		t.Errorf("vote quota = %+v", quota)
	}
}

func TestStaffRoutesRequireStaff(t *testing.T) {
	_, handler, _ := newTestServer(t)
	pilot := registerPilot(t, handler, "ASX010")

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/staff/photos/pending"},
		{http.MethodPost, "/api/staff/photos/reset"},
		{http.MethodGet, "/api/staff/users/"},
	}
	for _, tt := range paths {
		rec := doJSON(t, handler, tt.method, tt.path, pilot.AccessToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s status = %d, want 403", tt.method, tt.path, rec.Code)
		}
		rec = doJSON(t, handler, tt.method, tt.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s unauthenticated status = %d, want 401", tt.method, tt.path, rec.Code)
		}
	}
}

func TestStaffModerationFlow(t *testing.T) {
	server, handler, db := newTestServer(t)
	uploader := registerPilot(t, handler, "ASX010")
	staff := staffToken(t, server, db)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, uploader.AccessToken, "Final approach", "Short final at sunset"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", rec.Code)
	}
	var photo PhotoDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &photo); err != nil {
		t.Fatalf("decode photo: %v", err)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/staff/photos/pending", staff, nil)
	var pending struct {
		Items []PhotoDTO `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &pending); err != nil {
		t.Fatalf("decode pending: %v", err)
	}
	if len(pending.Items) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending.Items))
	}

	// Reject removes the record entirely.
	rec = doJSON(t, handler, http.MethodDelete, "/api/staff/photos/"+photo.ID, staff, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("reject status = %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/staff/photos/pending", staff, nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &pending); err != nil {
		t.Fatalf("decode pending: %v", err)
	}
	if len(pending.Items) != 0 {
		t.Error("rejected photo still pending")
	}
	rec = doJSON(t, handler, http.MethodDelete, "/api/staff/photos/"+photo.ID, staff, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second reject status = %d, want 404", rec.Code)
	}
}

func TestStaffUserManagement(t *testing.T) {
	server, handler, db := newTestServer(t)
	staff := staffToken(t, server, db)

	rec := doJSON(t, handler, http.MethodPost, "/api/staff/users/", staff, StaffUserCreateRequest{
		Email:     "new@aerosachs.test",
		Callsign:  "asx500",
		FirstName: "Nuovo",
		LastName:  "Pilota",
		Password:  "secret1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created UserDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.Callsign != "ASX500" {
		t.Errorf("callsign = %q, want ASX500", created.Callsign)
	}

	// Partial update: only the last name changes.
	newLast := "Aggiornato"
	rec = doJSON(t, handler, http.MethodPut, "/api/staff/users/"+created.ID, staff, StaffUserUpdateRequest{
		LastName: &newLast,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated UserDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.LastName != "Aggiornato" || updated.FirstName != "Nuovo" || updated.Email != "new@aerosachs.test" {
		t.Errorf("partial update wrong: %+v", updated)
	}

	// Names may be omitted but never blanked.
	blank := "   "
	rec = doJSON(t, handler, http.MethodPut, "/api/staff/users/"+created.ID, staff, StaffUserUpdateRequest{
		FirstName: &blank,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank first name status = %d, want 400", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPut, "/api/staff/users/"+created.ID, staff, StaffUserUpdateRequest{
		LastName: &blank,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank last name status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/staff/users/"+created.ID, staff, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	var count int
	if err := db.Get(&count, `SELECT count(*) FROM users WHERE id = $1`, created.ID); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Error("user still present after delete")
	}
}

func TestStaffResetPhotos(t *testing.T) {
	server, handler, db := newTestServer(t)
	uploader := registerPilot(t, handler, "ASX010")
	staff := staffToken(t, server, db)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, uploadRequest(t, uploader.AccessToken, fmt.Sprintf("Photo %d", i), "A contest entry"))
		if rec.Code != http.StatusCreated {
			t.Fatalf("upload %d status = %d", i, rec.Code)
		}
	}

	rec := doJSON(t, handler, http.MethodPost, "/api/staff/photos/reset", staff, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("reset status = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/me/quota", uploader.AccessToken, nil)
	var quota QuotaResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &quota); err != nil {
		t.Fatalf("decode quota: %v", err)
	}
	if quota.UploadCount != 0 || quota.UploadsLeft != 3 {
		t.Errorf("quota after reset = %+v, want zero consumption", quota)
	}
}
