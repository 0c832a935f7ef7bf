package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twdrugfinder/drugfinder/internal/verification"
)

func TestStoreCreateGetDelete(t *testing.T) {
	t.Parallel()

	st := NewStore(time.Hour)
	s := st.Create()
	require.NotEmpty(t, s.ID)
	assert.Equal(t, verification.Unverified, s.Gate.State())

	got, ok := st.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, st.Len())

	st.Delete(s.ID)
	_, ok = st.Get(s.ID)
	assert.False(t, ok)
}

func TestStoreRejectsMalformedIDs(t *testing.T) {
	t.Parallel()

	st := NewStore(0)
	assert.Equal(t, DefaultTTL, st.TTL())
	_, ok := st.Get("../../etc/passwd")
	assert.False(t, ok)
	_, ok = st.Get("")
	assert.False(t, ok)
}

func TestStoreSessionsExpire(t *testing.T) {
	t.Parallel()

	st := NewStore(50 * time.Millisecond)
	s := st.Create()
	assert.Eventually(t, func() bool {
		_, ok := st.Get(s.ID)
		return !ok
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSessionState(t *testing.T) {
	t.Parallel()

	st := NewStore(time.Hour, verification.WithCodeGenerator(func() (string, error) { return "123456", nil }))
	s := st.Create()

	s.SetSelectedTab("supply")
	s.SetFeedbackTarget(FeedbackTarget{InstitutionCode: "A123", Drug: "Ritalin"})
	assert.Equal(t, "supply", s.SelectedTab())
	assert.Equal(t, FeedbackTarget{InstitutionCode: "A123", Drug: "Ritalin"}, s.FeedbackTarget())

	_, err := s.Gate.Issue("clinic@example.com")
	require.NoError(t, err)
	assert.Empty(t, s.VerifiedEmail())
	require.NoError(t, s.Gate.Confirm("123456"))
	assert.Equal(t, "clinic@example.com", s.VerifiedEmail())
}

func TestMiddlewareIssuesAndReusesCookie(t *testing.T) {
	t.Parallel()

	st := NewStore(time.Hour)
	e := echo.New()
	e.Use(st.Middleware(false))
	e.GET("/whoami", func(c echo.Context) error {
		s := FromContext(c)
		require.NotNil(t, s)
		return c.String(http.StatusOK, s.ID)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	first := rec.Body.String()

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, first, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/whoami", http.NoBody)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, first, rec.Body.String(), "cookie resumes the session")

	req = httptest.NewRequest(http.MethodGet, "/whoami", http.NoBody)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "stale"})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.NotEqual(t, first, rec.Body.String(), "unknown id starts a new session")
	assert.Equal(t, 2, st.Len())
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	t.Parallel()

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", http.NoBody), httptest.NewRecorder())
	assert.Nil(t, FromContext(c))
}
