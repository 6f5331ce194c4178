package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/smart-home/internal/domain/home"
	"github.com/oshokin/smart-home/internal/service/controller"
)

var errTestBoom = errors.New("boom")

type fakeService struct {
	state       domain.SystemState
	temperature float64
	err         error
	submits     []domain.Action
	origins     []string
}

func (f *fakeService) Submit(_ context.Context, origin string, action domain.Action) (domain.Snapshot, error) {
	if f.err != nil {
		return domain.Snapshot{}, f.err
	}

	f.state.Toggle(action)
	f.submits = append(f.submits, action)
	f.origins = append(f.origins, origin)

	return f.snapshot(), nil
}

func (f *fakeService) Snapshot(context.Context) (domain.Snapshot, error) {
	if f.err != nil {
		return domain.Snapshot{}, f.err
	}

	return f.snapshot(), nil
}

func (f *fakeService) snapshot() domain.Snapshot {
	snap := f.state.Snapshot()
	snap.TemperatureC = f.temperature

	return snap
}

func serve(t *testing.T, svc Service, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()

	NewHandler(context.Background(), svc).ServeHTTP(rec, req)

	return rec
}

func TestServePage_ToggleLight(t *testing.T) {
	t.Parallel()

	svc := &fakeService{temperature: 41.256}

	rec := serve(t, svc, http.MethodGet, "/"+string(domain.ActionLivingRoom))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []domain.Action{domain.ActionLivingRoom}, svc.submits)
	require.True(t, strings.HasPrefix(svc.origins[0], "http:"))
	require.True(t, svc.state.Lights[domain.LivingRoom])
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	require.Contains(t, body, "41.26")
	require.Contains(t, body, `href="/`+string(domain.ActionLivingRoom)+`"`)
}

func TestServePage_EveryActionHasButton(t *testing.T) {
	t.Parallel()

	rec := serve(t, &fakeService{}, http.MethodGet, "/")

	require.Equal(t, http.StatusOK, rec.Code)

	for _, info := range domain.Actions() {
		require.Contains(t, rec.Body.String(), `href="/`+string(info.Action)+`"`)
	}
}

func TestServePage_UnknownPathRendersPage(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}

	for _, path := range []string{"/", "/favicon.ico", "/nope/deeper"} {
		rec := serve(t, svc, http.MethodGet, path)

		require.Equal(t, http.StatusOK, rec.Code, path)
	}

	require.Empty(t, svc.submits)
}

func TestServePage_ToggleTwiceRestores(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}

	serve(t, svc, http.MethodGet, "/"+string(domain.ActionDisplay))
	serve(t, svc, http.MethodGet, "/"+string(domain.ActionDisplay))

	require.False(t, svc.state.DisplayOn)
}

func TestServePage_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}

	rec := serve(t, svc, http.MethodPost, "/"+string(domain.ActionAlarm))

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Contains(t, rec.Header().Get("Allow"), http.MethodGet)
	require.Empty(t, svc.submits)
}

func TestServePage_HeadDoesNotApplyAction(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}

	rec := serve(t, svc, http.MethodHead, "/"+string(domain.ActionAlarm))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, svc.submits)
	require.False(t, svc.state.Alarm.Armed())
}

func TestServePage_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "stopped", err: controller.ErrStopped, code: http.StatusServiceUnavailable},
		{name: "internal", err: errTestBoom, code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(t, &fakeService{err: tt.err}, http.MethodGet, "/")

			require.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestRender_States(t *testing.T) {
	t.Parallel()

	var state domain.SystemState

	state.Toggle(domain.ActionAlarm)
	state.Toggle(domain.ActionKitchen)

	var body strings.Builder

	require.NoError(t, Render(&body, state.Snapshot()))
	require.Contains(t, body.String(), "<strong>"+state.Snapshot().Phase.String()+"</strong>")
	require.Contains(t, body.String(), `class="button on" href="/`+string(domain.ActionKitchen)+`"`)
	require.Contains(t, body.String(), `class="button" href="/`+string(domain.ActionBedroom)+`"`)
	require.Contains(t, body.String(), "0.00")
}
