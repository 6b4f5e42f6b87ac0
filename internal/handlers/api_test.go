package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplaintLifecycle(t *testing.T) {
	a := newAPI(t)
	tokenA, idA := a.signup("Asha", "asha@example.com")
	tokenB, _ := a.signup("Bilal", "bilal@example.com")

	rec := a.json(http.MethodPost, "/complaints", tokenA, map[string]string{
		"title":    "Pothole on Main Road",
		"location": "MG Road",
		"category": "Roads",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	complaint := body["complaint"].(map[string]any)
	id := complaint["_id"].(string)
	assert.Equal(t, "Pending", complaint["status"])
	assert.Equal(t, float64(0), complaint["votes"])
	assert.Equal(t, []any{}, complaint["media"])
	assert.Equal(t, idA, complaint["user"].(map[string]any)["_id"])

	// Citizen B upvotes
	rec = a.json(http.MethodPost, "/complaints/"+id+"/upvote", tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	vote := decode(t, rec)
	assert.Equal(t, id, vote["_id"])
	assert.Equal(t, float64(1), vote["votes"])
	assert.Equal(t, true, vote["userHasUpvoted"])

	get := func(token string) map[string]any {
		rec := a.json(http.MethodGet, "/complaints/"+id, token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode(t, rec)["data"].(map[string]any)
	}
	assert.Equal(t, true, get(tokenB)["userHasUpvoted"])
	assert.Equal(t, false, get(tokenA)["userHasUpvoted"])
	assert.Equal(t, float64(1), get("")["votes"])

	// Government officer moves it forward
	gov := a.officialToken("officer@gov.in")
	rec = a.json(http.MethodPut, "/api/government/complaints/"+id+"/status", gov, map[string]string{"status": "Work in Progress"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, token := range []string{"", tokenA, tokenB} {
		assert.Equal(t, "Work in Progress", get(token)["status"])
	}
}

func TestCreateComplaint_EmptyTitlePersistsNothing(t *testing.T) {
	a := newAPI(t)
	token, _ := a.signup("Asha", "asha@example.com")

	rec := a.multipart(http.MethodPost, "/complaints", token,
		map[string]string{"title": "", "location": "MG Road"},
		filePart{"photo.jpg", "image/jpeg", "jpeg-bytes"},
	)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])

	rec = a.json(http.MethodGet, "/complaints", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["data"])

	entries, err := os.ReadDir(filepath.Join(a.uploadDir, "complaints_media"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateComplaint_MissingCategory(t *testing.T) {
	a := newAPI(t)
	token, _ := a.signup("Asha", "asha@example.com")

	rec := a.json(http.MethodPost, "/complaints", token, map[string]string{"title": "T", "location": "L"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Category is required", decode(t, rec)["message"])

	rec = a.json(http.MethodGet, "/complaints", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["data"])
}

func TestCreateComplaint_MultipartMedia(t *testing.T) {
	a := newAPI(t)
	token, _ := a.signup("Asha", "asha@example.com")

	rec := a.multipart(http.MethodPost, "/complaints", token,
		map[string]string{"title": "Broken streetlight", "location": "Park Lane", "category": "Electricity", "urgency": "High", "contact": "555-0101"},
		filePart{"night.jpg", "image/jpeg", "jpeg-bytes"},
		filePart{"flicker.mp4", "video/mp4", "mp4-bytes"},
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	complaint := decode(t, rec)["complaint"].(map[string]any)
	assert.Equal(t, "High", complaint["urgency"])
	assert.Equal(t, "Electricity", complaint["category"])
	assert.Equal(t, "555-0101", complaint["contactInfo"])

	items := complaint["media"].([]any)
	require.Len(t, items, 2)
	photo := items[0].(map[string]any)
	clip := items[1].(map[string]any)
	assert.Equal(t, "image", photo["type"])
	assert.Equal(t, "video", clip["type"])
	assert.Contains(t, clip["thumbnailUrl"], "/thumbnails/320x240/")

	// Stored files are served back from the upload directory
	url := photo["url"].(string)
	require.True(t, strings.HasPrefix(url, "http://localhost:5000/uploads/"))
	rec = a.serve(httptest.NewRequest(http.MethodGet, strings.TrimPrefix(url, "http://localhost:5000"), nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg-bytes", rec.Body.String())
}

func TestUpdateComplaint(t *testing.T) {
	a := newAPI(t)
	owner, _ := a.signup("Asha", "asha@example.com")
	other, _ := a.signup("Bilal", "bilal@example.com")

	rec := a.multipart(http.MethodPost, "/complaints", owner,
		map[string]string{"title": "Garbage pile", "location": "Market", "category": "Sanitation"},
		filePart{"a.jpg", "image/jpeg", "a"},
		filePart{"b.jpg", "image/jpeg", "b"},
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	complaint := decode(t, rec)["complaint"].(map[string]any)
	id := complaint["_id"].(string)
	first := complaint["media"].([]any)[0].(map[string]any)

	t.Run("status is rejected", func(t *testing.T) {
		rec := a.json(http.MethodPut, "/complaints/"+id, owner, map[string]string{"status": "Resolved"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		rec := a.json(http.MethodPut, "/complaints/"+id, other, map[string]string{"title": "Mine now"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner removes and adds media", func(t *testing.T) {
		rec := a.multipart(http.MethodPut, "/complaints/"+id, owner,
			map[string]string{"title": "Garbage pile (bigger)", "removedMediaIds": `["` + first["_id"].(string) + `"]`},
			filePart{"c.jpg", "image/jpeg", "c"},
		)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		updated := decode(t, rec)["complaint"].(map[string]any)
		assert.Equal(t, "Garbage pile (bigger)", updated["title"])
		assert.Equal(t, "Market", updated["location"])
		assert.Equal(t, "Pending", updated["status"])
		assert.Len(t, updated["media"], 2)

		_, err := os.Stat(filepath.Join(a.uploadDir, filepath.FromSlash(first["filename"].(string))))
		assert.True(t, os.IsNotExist(err), "removed attachment is deleted from disk")
	})

	t.Run("contact info is editable", func(t *testing.T) {
		rec := a.json(http.MethodPut, "/complaints/"+id, owner, map[string]string{"contactInfo": " 555-0199 "})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		updated := decode(t, rec)["complaint"].(map[string]any)
		assert.Equal(t, "555-0199", updated["contactInfo"])
		assert.Equal(t, "Sanitation", updated["category"])
	})

	t.Run("empty category", func(t *testing.T) {
		rec := a.json(http.MethodPut, "/complaints/"+id, owner, map[string]string{"category": ""})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("foreign media id", func(t *testing.T) {
		rec := a.json(http.MethodPut, "/complaints/"+id, owner, map[string]any{"removedMediaIds": []string{uuid.NewString()}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteComplaint(t *testing.T) {
	a := newAPI(t)
	owner, _ := a.signup("Asha", "asha@example.com")
	other, _ := a.signup("Bilal", "bilal@example.com")

	rec := a.json(http.MethodPost, "/complaints", owner, map[string]string{"title": "Leak", "location": "Block C", "category": "Water Supply"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["complaint"].(map[string]any)["_id"].(string)

	rec = a.json(http.MethodPost, "/comments/"+id, other, map[string]string{"text": "Water everywhere"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, a.json(http.MethodDelete, "/complaints/"+id, other, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.json(http.MethodDelete, "/complaints/"+id, "", nil).Code)

	rec = a.json(http.MethodDelete, "/complaints/"+id, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Complaint deleted successfully", decode(t, rec)["message"])

	assert.Equal(t, http.StatusNotFound, a.json(http.MethodGet, "/complaints/"+id, "", nil).Code)
	rec = a.json(http.MethodGet, "/comments/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["count"])
}

func TestMyComplaints(t *testing.T) {
	a := newAPI(t)
	asha, _ := a.signup("Asha", "asha@example.com")
	bilal, _ := a.signup("Bilal", "bilal@example.com")

	for _, tok := range []string{asha, bilal, asha} {
		rec := a.json(http.MethodPost, "/complaints", tok, map[string]string{"title": "Issue", "location": "Here", "category": "Other"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := a.json(http.MethodGet, "/complaints/my", asha, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 2)

	assert.Equal(t, http.StatusUnauthorized, a.json(http.MethodGet, "/complaints/my", "", nil).Code)
}

func TestComments(t *testing.T) {
	a := newAPI(t)
	owner, _ := a.signup("Asha", "asha@example.com")
	other, _ := a.signup("Bilal", "bilal@example.com")

	rec := a.json(http.MethodPost, "/complaints", owner, map[string]string{"title": "Noise", "location": "Sector 4", "category": "Other"})
	require.Equal(t, http.StatusCreated, rec.Code)
	complaintID := decode(t, rec)["complaint"].(map[string]any)["_id"].(string)

	rec = a.json(http.MethodPost, "/comments/"+complaintID, "", map[string]string{"text": "Every night"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	anon := decode(t, rec)["comment"].(map[string]any)
	assert.Equal(t, "Anonymous", anon["author"])

	rec = a.json(http.MethodPost, "/comments/"+complaintID, owner, map[string]string{"text": "Agreed"})
	require.Equal(t, http.StatusCreated, rec.Code)
	mine := decode(t, rec)["comment"].(map[string]any)
	assert.Equal(t, "Asha", mine["author"])
	mineID := mine["_id"].(string)

	rec = a.json(http.MethodGet, "/comments/"+complaintID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)
	assert.Equal(t, float64(2), list["count"])
	assert.Equal(t, "Agreed", list["comments"].([]any)[0].(map[string]any)["text"])

	assert.Equal(t, http.StatusForbidden, a.json(http.MethodPut, "/comments/"+mineID, other, map[string]string{"text": "x"}).Code)
	assert.Equal(t, http.StatusForbidden, a.json(http.MethodPut, "/comments/"+anon["_id"].(string), owner, map[string]string{"text": "x"}).Code)
	assert.Equal(t, http.StatusUnauthorized, a.json(http.MethodPut, "/comments/"+mineID, "", map[string]string{"text": "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, a.json(http.MethodPost, "/comments/"+complaintID, owner, map[string]string{"text": " "}).Code)
	assert.Equal(t, http.StatusNotFound, a.json(http.MethodPost, "/comments/"+uuid.NewString(), owner, map[string]string{"text": "hi"}).Code)

	rec = a.json(http.MethodPut, "/comments/"+mineID, owner, map[string]string{"text": "Strongly agreed"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Strongly agreed", decode(t, rec)["comment"].(map[string]any)["text"])

	assert.Equal(t, http.StatusOK, a.json(http.MethodDelete, "/comments/"+mineID, owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.json(http.MethodDelete, "/comments/"+mineID, owner, nil).Code)
}

func TestGovernmentRoutes(t *testing.T) {
	a := newAPI(t)
	citizen, _ := a.signup("Asha", "asha@example.com")

	rec := a.json(http.MethodPost, "/complaints", citizen, map[string]string{"title": "Dark street", "location": "Lane 2", "category": "Electricity"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["complaint"].(map[string]any)["_id"].(string)

	t.Run("domain gate", func(t *testing.T) {
		rec := a.json(http.MethodPost, "/api/government/request-otp", "", map[string]string{"email": "a@nogov.com"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, a.logs.FilterMessage("OTP generated (dev mode, not emailed)").All())
	})

	t.Run("wrong otp", func(t *testing.T) {
		rec := a.json(http.MethodPost, "/api/government/request-otp", "", map[string]string{"email": "clerk@gov.in"})
		require.Equal(t, http.StatusOK, rec.Code)
		code := a.lastOTP("clerk@gov.in")
		wrong := "000000"
		if code == wrong {
			wrong = "999999"
		}
		rec = a.json(http.MethodPost, "/api/government/verify-otp", "", map[string]string{"email": "clerk@gov.in", "otp": wrong})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	gov := a.officialToken("officer@gov.in")

	t.Run("citizen token is forbidden", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, a.json(http.MethodGet, "/api/government/complaints", citizen, nil).Code)
	})

	t.Run("government token cannot act as citizen", func(t *testing.T) {
		rec := a.json(http.MethodPost, "/complaints", gov, map[string]string{"title": "x", "location": "y"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, a.json(http.MethodGet, "/api/government/complaints", "", nil).Code)
	})

	t.Run("list includes owner email", func(t *testing.T) {
		rec := a.json(http.MethodGet, "/api/government/complaints", gov, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		data := decode(t, rec)["data"].([]any)
		require.Len(t, data, 1)
		assert.Equal(t, "asha@example.com", data[0].(map[string]any)["user"].(map[string]any)["email"])
	})

	t.Run("invalid status", func(t *testing.T) {
		rec := a.json(http.MethodPut, "/api/government/complaints/"+id+"/status", gov, map[string]string{"status": "Closed"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("stats", func(t *testing.T) {
		rec := a.json(http.MethodPut, "/api/government/complaints/"+id+"/status", gov, map[string]string{"status": "Resolved"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = a.json(http.MethodGet, "/api/government/complaints/stats", gov, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		stats := decode(t, rec)["data"].(map[string]any)
		assert.Equal(t, float64(1), stats["total"])
		byStatus := stats["byStatus"].(map[string]any)
		assert.Equal(t, float64(1), byStatus["Resolved"])
		assert.Equal(t, float64(0), byStatus["Pending"])
	})
}

func TestUserRoutes(t *testing.T) {
	a := newAPI(t)
	token, id := a.signup("Asha", "asha@example.com")

	rec := a.json(http.MethodPost, "/user/signup", "", map[string]string{"name": "Asha", "email": "ASHA@example.com", "password": "another password"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.json(http.MethodPost, "/user/login", "", map[string]string{"email": "asha@example.com", "password": "correct horse battery"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode(t, rec)
	assert.NotEmpty(t, login["token"])
	assert.NotContains(t, login["user"], "password")

	rec = a.json(http.MethodPost, "/user/login", "", map[string]string{"email": "asha@example.com", "password": "nope nope nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.json(http.MethodGet, "/user/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode(t, rec)["user"].(map[string]any)["_id"])

	rec = a.json(http.MethodPost, "/user/google-login", "", map[string]string{"code": "abc"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthAndNotFound(t *testing.T) {
	a := newAPI(t)

	rec := a.json(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = a.json(http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "memory: connected", decode(t, rec)["database"])

	rec = a.json(http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decode(t, rec)["message"])
}

func TestMalformedJSON(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/user/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := a.serve(req, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decode(t, rec)["message"])
}
