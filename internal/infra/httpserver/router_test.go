package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/M1CTIAN/potato-doc/internal/application"
	appanalysis "github.com/M1CTIAN/potato-doc/internal/application/analysis"
	"github.com/M1CTIAN/potato-doc/internal/application/files"
	domain "github.com/M1CTIAN/potato-doc/internal/domain/analysis"
	"github.com/M1CTIAN/potato-doc/internal/infra/storage"
	"github.com/M1CTIAN/potato-doc/internal/presenter"
)

// fixedClassifier answers immediately with whatever the test configured.
type fixedClassifier struct {
	mu         sync.Mutex
	prediction string
	err        error
}

func (c *fixedClassifier) set(prediction string, err error) {
	c.mu.Lock()
	c.prediction = prediction
	c.err = err
	c.mu.Unlock()
}

func (c *fixedClassifier) Classify(ctx context.Context, file *domain.SelectedFile) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prediction, c.err
}

type env struct {
	srv   *httptest.Server
	cls   *fixedClassifier
	store *storage.MemoryStore
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cls := &fixedClassifier{prediction: domain.HealthyCondition}
	store := storage.NewMemoryStore()
	svc := appanalysis.NewService(cls, store, application.SystemClock{})
	srv := httptest.NewServer(NewRouter(svc, files.NewAcquirer(0)))
	t.Cleanup(srv.Close)
	return &env{srv: srv, cls: cls, store: store}
}

func (e *env) createSession(t *testing.T) string {
	t.Helper()
	resp, err := http.Post(e.srv.URL+"/v1/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	vm := decodeVM(t, resp.Body)
	require.Equal(t, "idle", vm.Mode)
	require.NotEmpty(t, vm.SessionID)
	return vm.SessionID
}

func (e *env) upload(t *testing.T, path string, uploads ...upload) presenter.ViewModel {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, u := range uploads {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, u.name))
		h.Set("Content-Type", u.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(u.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	resp, err := http.Post(e.srv.URL+path, w.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeVM(t, resp.Body)
}

func (e *env) snapshot(t *testing.T, id string) presenter.ViewModel {
	t.Helper()
	resp, err := http.Get(e.srv.URL + "/v1/sessions/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeVM(t, resp.Body)
}

func (e *env) waitForMode(t *testing.T, id, mode string) presenter.ViewModel {
	t.Helper()
	var vm presenter.ViewModel
	require.Eventually(t, func() bool {
		vm = e.snapshot(t, id)
		return vm.Mode == mode
	}, 2*time.Second, 10*time.Millisecond)
	return vm
}

type upload struct {
	name        string
	contentType string
	data        []byte
}

func decodeVM(t *testing.T, r io.Reader) presenter.ViewModel {
	t.Helper()
	var vm presenter.ViewModel
	require.NoError(t, json.NewDecoder(r).Decode(&vm))
	return vm
}

func TestRouter_FullAnalysisFlow(t *testing.T) {
	e := newEnv(t)
	id := e.createSession(t)

	vm := e.upload(t, "/v1/sessions/"+id+"/files",
		upload{name: "leaf.png", contentType: "image/png", data: []byte("png")})
	require.Equal(t, "analyzing", vm.Mode)
	require.NotEmpty(t, vm.PreviewURL)

	vm = e.waitForMode(t, id, "result")
	require.Equal(t, domain.HealthyCondition, vm.Condition)
	require.Equal(t, domain.FixedConfidence, vm.Confidence)
	require.True(t, vm.Healthy)
}

func TestRouter_DiseaseResult(t *testing.T) {
	e := newEnv(t)
	e.cls.set("Early Blight", nil)
	id := e.createSession(t)

	e.upload(t, "/v1/sessions/"+id+"/files",
		upload{name: "leaf.png", contentType: "image/png", data: []byte("png")})

	vm := e.waitForMode(t, id, "result")
	require.False(t, vm.Healthy)
	require.Equal(t, "Early Blight", vm.Condition)
	require.NotEmpty(t, vm.Guidance)
}

func TestRouter_InferenceFailure(t *testing.T) {
	e := newEnv(t)
	e.cls.set("", fmt.Errorf("connection refused"))
	id := e.createSession(t)

	e.upload(t, "/v1/sessions/"+id+"/files",
		upload{name: "leaf.png", contentType: "image/png", data: []byte("png")})

	vm := e.waitForMode(t, id, "error")
	require.Equal(t, domain.FailureMessage, vm.Message)
}

func TestRouter_NonImageUploadIsSilentlyIgnored(t *testing.T) {
	e := newEnv(t)
	id := e.createSession(t)

	vm := e.upload(t, "/v1/sessions/"+id+"/files",
		upload{name: "doc.pdf", contentType: "application/pdf", data: []byte("pdf")})
	require.Equal(t, "idle", vm.Mode)

	// tidak ada preview yang dibuat
	require.Equal(t, 0, e.store.Len())
}

func TestRouter_DropUsesFirstFile(t *testing.T) {
	e := newEnv(t)
	id := e.createSession(t)

	vm := e.upload(t, "/v1/sessions/"+id+"/files/drop",
		upload{name: "first.png", contentType: "image/png", data: []byte("a")},
		upload{name: "second.png", contentType: "image/png", data: []byte("b")},
	)
	require.Equal(t, "analyzing", vm.Mode)
	require.Equal(t, 1, e.store.Len())
}

func TestRouter_ResetReturnsToIdleAndReleasesPreview(t *testing.T) {
	e := newEnv(t)
	id := e.createSession(t)

	e.upload(t, "/v1/sessions/"+id+"/files",
		upload{name: "leaf.png", contentType: "image/png", data: []byte("png")})
	e.waitForMode(t, id, "result")
	require.Equal(t, 1, e.store.Len())

	resp, err := http.Post(e.srv.URL+"/v1/sessions/"+id+"/reset", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	vm := decodeVM(t, resp.Body)
	require.Equal(t, "idle", vm.Mode)
	require.Empty(t, vm.PreviewURL)
	require.Equal(t, 0, e.store.Len())
}

func TestRouter_DragFlag(t *testing.T) {
	e := newEnv(t)
	id := e.createSession(t)

	resp, err := http.Post(e.srv.URL+"/v1/sessions/"+id+"/drag", "application/json",
		strings.NewReader(`{"active":true}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	vm := decodeVM(t, resp.Body)
	require.True(t, vm.DragActive)
	require.Equal(t, "idle", vm.Mode)
}

func TestRouter_TeardownRemovesSession(t *testing.T) {
	e := newEnv(t)
	id := e.createSession(t)

	e.upload(t, "/v1/sessions/"+id+"/files",
		upload{name: "leaf.png", contentType: "image/png", data: []byte("png")})
	e.waitForMode(t, id, "result")

	req, err := http.NewRequest(http.MethodDelete, e.srv.URL+"/v1/sessions/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, 0, e.store.Len())

	getResp, err := http.Get(e.srv.URL + "/v1/sessions/" + id)
	require.NoError(t, err)
	getResp.Body.Close()
	require.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestRouter_UnknownSessionIs404(t *testing.T) {
	e := newEnv(t)

	resp, err := http.Get(e.srv.URL + "/v1/sessions/does-not-exist")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
