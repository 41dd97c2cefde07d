package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/buyerleads/api/handler"
	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/internal/infrastructure/monitor"
	"github.com/fastygo/buyerleads/internal/infrastructure/reports"
	"github.com/fastygo/buyerleads/internal/middleware"
	"github.com/fastygo/buyerleads/internal/testutil"
	"github.com/fastygo/buyerleads/pkg/httpcontext"
	authUC "github.com/fastygo/buyerleads/usecase/auth"
	buyerUC "github.com/fastygo/buyerleads/usecase/buyer"
	profileUC "github.com/fastygo/buyerleads/usecase/profile"
	transferUC "github.com/fastygo/buyerleads/usecase/transfer"
)

type staticStatus monitor.Status

func (s staticStatus) GetStatus() monitor.Status { return monitor.Status(s) }

type response struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Meta   struct {
		Details json.RawMessage `json:"details"`
	} `json:"meta"`
}

type api struct {
	t       *testing.T
	handler fasthttp.RequestHandler
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := testutil.NewStore()
	reportStore, err := reports.Open(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = reportStore.Close() })

	auth := authUC.New(store.Users(), testutil.NewSessions(), authUC.Options{
		Secret:     "router-test-secret-router-test-secret",
		Issuer:     "buyerleads",
		SessionTTL: time.Hour,
		DemoLogin:  true,
		IsAdmin:    func(email string) bool { return email == "demo@example.com" },
	}, nil)
	buyers := buyerUC.New(store, store, buyerUC.Options{}, nil)
	adapter := httpcontext.NewAdapter(time.Second)

	r := New(Handlers{
		Auth:     apiHandler.NewAuthHandler(auth, adapter, nil),
		Profile:  apiHandler.NewProfileHandler(profileUC.New(store.Users(), nil), adapter, nil),
		Buyer:    apiHandler.NewBuyerHandler(buyers, adapter, nil),
		Transfer: apiHandler.NewTransferHandler(transferUC.New(buyers, reportStore, nil), adapter, nil, 1<<20),
		Health:   apiHandler.NewHealthHandler(staticStatus{PostgreSQL: true, Redis: true, Reports: true}, adapter, nil),
	}, middleware.Authenticate(auth, time.Second, nil), middleware.NewRateLimiter(60, 1, nil).Limit)

	return &api{t: t, handler: r.Handler}
}

func (a *api) raw(method, uri, token, contentType string, body []byte) *fasthttp.RequestCtx {
	a.t.Helper()
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.SetContentType(contentType)
	}
	req.SetBody(body)

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(req, nil, nil)
	a.handler(ctx)
	return ctx
}

func (a *api) do(method, uri, token string, payload interface{}) (int, response) {
	a.t.Helper()
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(a.t, err)
	}
	ctx := a.raw(method, uri, token, "application/json", body)
	var out response
	require.NoError(a.t, json.Unmarshal(ctx.Response.Body(), &out), string(ctx.Response.Body()))
	return ctx.Response.StatusCode(), out
}

func (a *api) login(email string) string {
	a.t.Helper()
	status, resp := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "name": "Test Agent"})
	require.Equal(a.t, http.StatusOK, status, resp.Error)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(resp.Data, &login))
	return login.Token
}

func newBuyerPayload() map[string]interface{} {
	return map[string]interface{}{
		"fullName":     "Asha Verma",
		"phone":        "9876543210",
		"city":         "Chandigarh",
		"propertyType": "Apartment",
		"bhk":          "3",
		"purpose":      "Buy",
		"budgetMin":    5000000,
		"budgetMax":    6000000,
		"timeline":     "0-3m",
		"source":       "Website",
	}
}

func TestRoutes_RequireAuthentication(t *testing.T) {
	a := newAPI(t)
	for _, uri := range []string{"/api/v1/buyers", "/api/v1/auth/me", "/api/v1/export/buyers"} {
		status, resp := a.do(http.MethodGet, uri, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, uri)
		assert.Equal(t, string(domain.ErrCodeUnauthorized), resp.Code)
	}
	status, _ := a.do(http.MethodGet, "/api/v1/buyers", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestBuyerLifecycle(t *testing.T) {
	a := newAPI(t)
	owner := a.login("agent@example.com")
	peer := a.login("peer@example.com")

	status, resp := a.do(http.MethodPost, "/api/v1/buyers", owner, map[string]interface{}{"fullName": "A", "city": "Nowhere"})
	require.Equal(t, http.StatusBadRequest, status)
	var details []domain.FieldError
	require.NoError(t, json.Unmarshal(resp.Meta.Details, &details))
	assert.NotEmpty(t, details)

	status, resp = a.do(http.MethodPost, "/api/v1/buyers", owner, newBuyerPayload())
	require.Equal(t, http.StatusCreated, status, resp.Error)
	var created struct {
		ID        string `json:"id"`
		UpdatedAt string `json:"updatedAt"`
		CreatedAt string `json:"createdAt"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	path := "/api/v1/buyers/" + created.ID

	status, _ = a.do(http.MethodPut, path, owner, map[string]interface{}{"status": "Contacted"})
	assert.Equal(t, http.StatusBadRequest, status, "updatedAt is mandatory")

	status, resp = a.do(http.MethodPatch, path, peer, map[string]interface{}{"status": "Contacted", "updatedAt": created.UpdatedAt})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You can only edit your own buyers", resp.Error)

	status, resp = a.do(http.MethodPut, path, owner, map[string]interface{}{"status": "Contacted", "updatedAt": created.UpdatedAt})
	require.Equal(t, http.StatusOK, status, resp.Error)

	status, resp = a.do(http.MethodPut, path, owner, map[string]interface{}{"status": "Visited", "updatedAt": created.UpdatedAt})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Record has been modified by another user. Please refresh and try again.", resp.Error)

	status, resp = a.do(http.MethodGet, path+"/history", owner, nil)
	require.Equal(t, http.StatusOK, status)
	var history []domain.HistoryEntry
	require.NoError(t, json.Unmarshal(resp.Data, &history))
	require.Len(t, history, 2)
	assert.Equal(t, domain.ActionUpdated, history[0].Diff.Action)

	status, _ = a.do(http.MethodGet, "/api/v1/buyers?city=Nowhere", owner, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = a.do(http.MethodGet, "/api/v1/buyers?search=asha&status=Contacted", peer, nil)
	require.Equal(t, http.StatusOK, status)
	var page buyerUC.Page
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Equal(t, 1, page.TotalCount)

	status, _ = a.do(http.MethodDelete, path, peer, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = a.do(http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = a.do(http.MethodGet, path, owner, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = a.do(http.MethodGet, "/api/v1/buyers/not-a-uuid", owner, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestImportExport(t *testing.T) {
	a := newAPI(t)
	token := a.login("agent@example.com")

	upload := func() *fasthttp.RequestCtx {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		part, err := w.CreateFormFile("file", "leads.csv")
		require.NoError(t, err)
		_, _ = part.Write([]byte("fullName,phone,city,propertyType,purpose,timeline,source\n" +
			"Ravi Kumar,9876501234,Mohali,Plot,Buy,3-6m,Call\n" +
			"Bad,12,Mohali,Plot,Buy,3-6m,Call\n"))
		require.NoError(t, w.Close())
		return a.raw(http.MethodPost, "/api/v1/import/buyers", token, w.FormDataContentType(), body.Bytes())
	}

	ctx := upload()
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var resp response
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	var result transferUC.ImportResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, 1, result.CreatedCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, 3, result.Errors[0].Row)

	ctx = upload()
	assert.Equal(t, http.StatusTooManyRequests, ctx.Response.StatusCode())

	ctx = a.raw(http.MethodGet, "/api/v1/import/reports/"+result.ReportID+"/errors", token, "", nil)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "3,phone,")

	ctx = a.raw(http.MethodGet, "/api/v1/export/buyers?city=Mohali", token, "", nil)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.True(t, strings.HasPrefix(string(ctx.Response.Header.ContentType()), "text/csv"))
	assert.Contains(t, string(ctx.Response.Header.Peek("Content-Disposition")), "buyers_export_")
	lines := strings.Split(strings.TrimSpace(string(ctx.Response.Body())), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "Ravi Kumar,,9876501234,Mohali,Plot,,Buy"))
}

func TestAuth_MeAndLogout(t *testing.T) {
	a := newAPI(t)
	token := a.login("demo@example.com")

	status, resp := a.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	var me domain.Principal
	require.NoError(t, json.Unmarshal(resp.Data, &me))
	assert.True(t, me.IsAdmin())

	status, _ = a.do(http.MethodPut, "/api/v1/profile", token, map[string]string{"name": "Demo Admin"})
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = a.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
