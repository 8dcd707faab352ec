package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/custodia-labs/specimen/internal/adapters/driven/fileinfo"
	"github.com/custodia-labs/specimen/internal/adapters/driven/storage/filesystem"
	"github.com/custodia-labs/specimen/internal/adapters/driven/storage/workspace"
	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/services"
	"github.com/custodia-labs/specimen/internal/modules/ascii"
)

const (
	helloContent = "hello world\n"
	helloMD5     = "6f5902ac237024bdd0c176cb93063dc4"
	helloSHA256  = "a948904f2f0f479b8f8197694b30184b0d2ed1c1cd2a1ec0fb85d299a192a447"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()

	catalog, err := filesystem.NewCatalog(t.TempDir())
	require.NoError(t, err)
	opener := workspace.NewOpener()
	t.Cleanup(func() { _ = opener.Close() })
	inspector := fileinfo.NewInspector()

	registry, err := services.NewModuleRegistry(ascii.Descriptor())
	require.NoError(t, err)

	srv, err := NewServer(Ports{
		Samples:    services.NewSampleService(catalog, opener, inspector),
		Projects:   services.NewProjectService(catalog),
		Dispatcher: services.NewDispatcher(catalog, opener, inspector, registry),
	}, cfg)
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, srv, req)
}

func upload(t *testing.T, srv *Server, name, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if name != "" {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/file/add", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return do(t, srv, req)
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Message
}

func TestNewServer_MissingPorts(t *testing.T) {
	_, err := NewServer(Ports{}, Config{})
	assert.ErrorIs(t, err, ErrMissingPorts)
}

func TestConfigFromSettings(t *testing.T) {
	cfg := ConfigFromSettings(domain.DefaultAppSettings("/tmp/x").API)

	assert.Equal(t, "localhost:8080", cfg.Addr)
	assert.Equal(t, float64(domain.DefaultAPIRateLimit), cfg.RateLimit)
	assert.Equal(t, domain.DefaultAPIBurst, cfg.Burst)
	assert.Equal(t, int64(domain.DefaultMaxUploadBytes), cfg.MaxUploadBytes)
}

func TestHandleTest(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", message(t, rec))
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestRequestID_Propagated(t *testing.T) {
	srv := newTestServer(t, Config{})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderRequestID, "trace-42")

	rec := do(t, srv, req)

	assert.Equal(t, "trace-42", rec.Header().Get(HeaderRequestID))
}

func TestFileAddAndGet(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := upload(t, srv, "hello.txt", helloContent, map[string]string{"tags": "APT, dropper"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "added", message(t, rec))

	for _, hash := range []string{helloSHA256, helloMD5} {
		rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/file/get/"+hash, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
		assert.Equal(t, helloContent, rec.Body.String())
	}
}

func TestFileAdd_Errors(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := upload(t, srv, "", "", map[string]string{"tags": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing file", message(t, rec))

	rec = upload(t, srv, "x.bin", "data", map[string]string{"project": "../../etc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFileAdd_TooLarge(t *testing.T) {
	srv := newTestServer(t, Config{MaxUploadBytes: 1024})

	rec := upload(t, srv, "big.bin", strings.Repeat("A", 64*1024), nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestFileGet_Errors(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/file/get/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, message(t, rec), "invalid hash format (use md5 or sha256)")

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/file/get/"+helloSHA256, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/file/get/"+helloSHA256+"?project=ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFileDelete(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			srv := newTestServer(t, Config{})
			require.Equal(t, http.StatusOK, upload(t, srv, "hello.txt", helloContent, nil).Code)

			rec := do(t, srv, httptest.NewRequest(method, "/file/delete/"+helloMD5, nil))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "deleted", message(t, rec))

			rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/file/get/"+helloSHA256, nil))
			assert.Equal(t, http.StatusNotFound, rec.Code)

			rec = do(t, srv, httptest.NewRequest(method, "/file/delete/"+helloSHA256, nil))
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestFileFind(t *testing.T) {
	srv := newTestServer(t, Config{})
	require.Equal(t, http.StatusOK, upload(t, srv, "hello.txt", helloContent, map[string]string{"tags": "apt"}).Code)
	require.Equal(t, http.StatusOK, upload(t, srv, "other.txt", "other", map[string]string{"project": "apt28"}).Code)

	rec := postForm(t, srv, "/file/find", url.Values{"tag": {"apt"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var results map[string][]domain.Sample
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results["default"], 1)
	assert.Equal(t, helloSHA256, results["default"][0].SHA256)
	assert.Equal(t, []string{"apt"}, results["default"][0].Tags)

	// md5 outranks name when both are given.
	rec = postForm(t, srv, "/file/find", url.Values{"name": {"other"}, "md5": {helloMD5}, "project": {"all"}})
	require.Equal(t, http.StatusOK, rec.Code)
	results = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Len(t, results["default"], 1)
	assert.NotNil(t, results["apt28"])
	assert.Empty(t, results["apt28"])

	rec = postForm(t, srv, "/file/find", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, message(t, rec), "invalid search term")
}

func TestTags(t *testing.T) {
	srv := newTestServer(t, Config{})
	require.Equal(t, http.StatusOK, upload(t, srv, "hello.txt", helloContent, map[string]string{"tags": "apt"}).Code)

	rec := postForm(t, srv, "/file/tags/add", url.Values{"name": {"hello"}, "tags": {"Dropper, apt"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "added", message(t, rec))

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/tags/list", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var tags []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tags))
	assert.Equal(t, []string{"apt", "dropper"}, tags)

	rec = postForm(t, srv, "/file/tags/add", url.Values{"name": {"missing"}, "tags": {"x"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "File not found in the database", message(t, rec))

	rec = postForm(t, srv, "/file/tags/add", url.Values{"name": {"hello"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModulesRun(t *testing.T) {
	srv := newTestServer(t, Config{})
	require.Equal(t, http.StatusOK, upload(t, srv, "hello.txt", helloContent, nil).Code)

	rec := postForm(t, srv, "/modules/run", url.Values{
		"sha256":  {helloSHA256},
		"cmdline": {"info; strings; bogus"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result domain.ChainResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "default", result.Project)
	assert.Equal(t, helloSHA256, result.Sample)
	require.Len(t, result.Results, 3)
	assert.Equal(t, domain.OutcomeSuccess, result.Results[0].Outcome)
	assert.Equal(t, domain.OutcomeSuccess, result.Results[1].Outcome)
	assert.Equal(t, domain.OutcomeUnknownCommand, result.Results[2].Outcome)
}

func TestModulesRun_Errors(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := postForm(t, srv, "/modules/run", url.Values{"project": {"apt28"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid command line", message(t, rec))

	rec = postForm(t, srv, "/modules/run", url.Values{"project": {"ghost"}, "cmdline": {"help"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = postForm(t, srv, "/modules/run", url.Values{"sha256": {"short"}, "cmdline": {"help"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectsList(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/projects/list", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No projects found", message(t, rec))

	require.Equal(t, http.StatusOK, upload(t, srv, "a.txt", "a", map[string]string{"project": "zeus"}).Code)
	require.Equal(t, http.StatusOK, upload(t, srv, "b.txt", "b", map[string]string{"project": "apt28"}).Code)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/projects/list", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var rows [][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "apt28", rows[0][0])
	assert.Equal(t, "zeus", rows[1][0])
	assert.NotEmpty(t, rows[0][1])
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, Config{RateLimit: 0.001, Burst: 1})

	first := do(t, srv, httptest.NewRequest(http.MethodGet, "/test", nil))
	second := do(t, srv, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get(HeaderRequestID))
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, httptest.NewRequest(http.MethodPut, "/test", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := newTestServer(t, Config{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/test")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.NoError(t, <-errCh)
}
