package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/services"
)

func contactBody(name, email string) string {
	return fmt.Sprintf(`{"name":%q,"email":%q,"phone":"+971500000000","requestedService":"Website","notes":"<b>soon</b> & fast"}`, name, email)
}

func (e *testEnv) submitContact(t *testing.T, name, email string) string {
	t.Helper()
	w := e.doJSON(t, http.MethodPost, "/api/v1/contacts", contactBody(name, email), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}
	var rc ContactReceipt
	decodeData(t, decodeEnvelope(t, w), &rc)
	return rc.ID
}

func TestCreateContact_ReceiptAndDuplicateWindow(t *testing.T) {
	e := newEnv(t)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	e.contacts.Now = func() time.Time { return now }

	w := e.doJSON(t, http.MethodPost, "/api/v1/contacts", contactBody("Sara", "Sara@Example.com"), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Message != "Your request has been submitted successfully. We will contact you soon!" {
		t.Fatalf("message=%q", env.Message)
	}
	var rc ContactReceipt
	decodeData(t, env, &rc)
	if rc.ID == "" || !rc.SubmittedAt.Equal(now) {
		t.Fatalf("receipt = %+v", rc)
	}

	// Same email, different case, inside the window.
	now = now.Add(23 * time.Hour)
	w = e.doJSON(t, http.MethodPost, "/api/v1/contacts", contactBody("Sara", "sara@example.com"), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate status=%d", w.Code)
	}
	if er := decodeError(t, w); er.Message != msgDuplicateContact {
		t.Fatalf("message=%q", er.Message)
	}

	// After the window it is accepted again.
	now = now.Add(2 * time.Hour)
	w = e.doJSON(t, http.MethodPost, "/api/v1/contacts", contactBody("Sara", "sara@example.com"), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("after window status=%d", w.Code)
	}
}

func TestCreateContact_Invalid(t *testing.T) {
	e := newEnv(t)
	cases := []struct {
		name string
		body string
	}{
		{"malformed", `{`},
		{"bad email", `{"name":"A","email":"nope","phone":"1"}`},
		{"missing phone", `{"name":"A","email":"a@b.co"}`},
		{"markup only name", `{"name":"<script>x</script>","email":"a@b.co","phone":"1"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.doJSON(t, http.MethodPost, "/api/v1/contacts", tc.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestListContacts_PagingAndFilter(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 3; i++ {
		e.submitContact(t, fmt.Sprintf("User %d", i), fmt.Sprintf("u%d@example.com", i))
	}

	w := e.do(t, http.MethodGet, "/api/v1/contacts?page=2&limit=2", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var res ContactListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !res.Success || res.Total != 3 || res.Page != 2 || res.Limit != 2 || res.TotalPages != 2 || len(res.Data) != 1 {
		t.Fatalf("page = %+v", res)
	}

	w = e.do(t, http.MethodGet, "/api/v1/contacts?status=completed", nil, nil)
	res = ContactListResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Total != 0 || res.Data == nil || len(res.Data) != 0 {
		t.Fatalf("filtered = %+v", res)
	}

	w = e.do(t, http.MethodGet, "/api/v1/contacts?status=archived", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/v1/contacts?limit=5000", nil, nil)
	res = ContactListResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Limit != services.MaxContactPageSize {
		t.Fatalf("limit = %d", res.Limit)
	}
}

func TestContactInboxLifecycle(t *testing.T) {
	e := newEnv(t)
	id := e.submitContact(t, "Sara", "sara@example.com")
	e.submitContact(t, "Omar", "omar@example.com")

	var unread UnreadContactsResponse
	w := e.do(t, http.MethodGet, "/api/v1/contacts/unread", nil, nil)
	_ = json.Unmarshal(w.Body.Bytes(), &unread)
	if unread.Count != 2 || len(unread.Data) != 2 {
		t.Fatalf("unread = %+v", unread)
	}

	// Reading one marks it read.
	w = e.do(t, http.MethodGet, "/api/v1/contacts/"+id, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}
	var ct domain.Contact
	decodeData(t, decodeEnvelope(t, w), &ct)
	if !ct.IsRead || ct.Notes == nil || *ct.Notes != "soon & fast" {
		t.Fatalf("contact = %+v", ct)
	}

	w = e.doJSON(t, http.MethodPatch, "/api/v1/contacts/"+id+"/status", `{"status":"in-progress"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d %s", w.Code, w.Body.String())
	}
	decodeData(t, decodeEnvelope(t, w), &ct)
	if ct.Status != domain.ContactInProgress {
		t.Fatalf("status = %q", ct.Status)
	}
	w = e.doJSON(t, http.MethodPatch, "/api/v1/contacts/"+id+"/status", `{"status":"done"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid status: %d", w.Code)
	}

	var stats services.ContactStats
	w = e.do(t, http.MethodGet, "/api/v1/contacts/stats", nil, nil)
	decodeData(t, decodeEnvelope(t, w), &stats)
	if stats.Total != 2 || stats.Pending != 1 || stats.InProgress != 1 || stats.Unread != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	var other string
	for _, c := range unread.Data {
		if c.ID != id {
			other = c.ID
		}
	}
	w = e.do(t, http.MethodPatch, "/api/v1/contacts/"+other+"/read", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mark read: %d", w.Code)
	}
	if msg := decodeEnvelope(t, w).Message; msg != "Contact marked as read" {
		t.Fatalf("message=%q", msg)
	}

	w = e.do(t, http.MethodDelete, "/api/v1/contacts/"+id, nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	for _, target := range []string{"/api/v1/contacts/" + id, "/api/v1/contacts/" + id + "/read"} {
		method := http.MethodGet
		if target != "/api/v1/contacts/"+id {
			method = http.MethodPatch
		}
		w = e.do(t, method, target, nil, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s %s: %d", method, target, w.Code)
		}
		if er := decodeError(t, w); er.Message != msgContactNotFound {
			t.Fatalf("message=%q", er.Message)
		}
	}
}
