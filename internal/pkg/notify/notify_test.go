package notify

import (
	"context"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
)

func sampleWelcome() Welcome {
	return Welcome{
		Email:             "aigerim@school.kz",
		FirstName:         "Aigerim",
		LastName:          "Bekova",
		IIN:               "900101300123",
		TemporaryPassword: "Ab3$efGh9kLm",
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, sampleWelcome().Validate())

	w := sampleWelcome()
	w.IIN = ""
	assert.ErrorIs(t, w.Validate(), ErrMissingFields)

	w = sampleWelcome()
	w.TemporaryPassword = ""
	assert.ErrorIs(t, w.Validate(), ErrMissingFields)

	w.ClaimURL = "https://portfolio.kz/claim?token=abc"
	assert.NoError(t, w.Validate())
}

func TestComposeWithPassword(t *testing.T) {
	c := NewComposer("https://portfolio.kz/", "noreply@teacherportfolio.kz")
	msg, err := c.Compose(sampleWelcome())
	require.NoError(t, err)

	assert.Equal(t, WelcomeSubject, msg.Subject)
	assert.Equal(t, "aigerim@school.kz", msg.To)
	assert.True(t, strings.HasPrefix(msg.Text, "Welcome to Teacher Portfolio Platform\n\nDear Aigerim Bekova,"))
	assert.Contains(t, msg.Text, "- Portfolio Link: https://portfolio.kz/login\n- Login (IIN): 900101300123\n- Temporary Password: Ab3$efGh9kLm\n")
	assert.Contains(t, msg.Text, "IMPORTANT: Please change your password after your first login")
	assert.True(t, strings.HasSuffix(msg.Text, "Best regards,\nTeacher Portfolio Platform Team"))
	assert.Contains(t, msg.HTML, `<a href="https://portfolio.kz/login">`)
	assert.Contains(t, msg.HTML, "Ab3$efGh9kLm")
}

func TestComposeWithClaimLink(t *testing.T) {
	w := sampleWelcome()
	w.TemporaryPassword = ""
	w.ClaimURL = "https://portfolio.kz/claim?token=xyz"

	msg, err := NewComposer("https://portfolio.kz", "noreply@teacherportfolio.kz").Compose(w)
	require.NoError(t, err)
	assert.NotContains(t, msg.Text, "Temporary Password")
	assert.Contains(t, msg.Text, "- Set your password: https://portfolio.kz/claim?token=xyz")
	assert.Contains(t, msg.HTML, "https://portfolio.kz/claim?token=xyz")
}

func TestComposeEscapesHTML(t *testing.T) {
	w := sampleWelcome()
	w.FirstName = "<script>"
	msg, err := NewComposer("https://portfolio.kz", "noreply@teacherportfolio.kz").Compose(w)
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
}

func TestRawMessageIsMultipartAlternative(t *testing.T) {
	msg, err := NewComposer("https://portfolio.kz", "noreply@teacherportfolio.kz").Compose(sampleWelcome())
	require.NoError(t, err)

	head, body, found := strings.Cut(string(msg.Raw), "\r\n\r\n")
	require.True(t, found)
	assert.Contains(t, head, "From: noreply@teacherportfolio.kz")
	assert.Contains(t, head, "Subject: "+WelcomeSubject)

	var contentType string
	for _, line := range strings.Split(head, "\r\n") {
		if strings.HasPrefix(line, "Content-Type: ") {
			contentType = strings.TrimPrefix(line, "Content-Type: ")
		}
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	reader := multipart.NewReader(strings.NewReader(body), params["boundary"])
	var types []string
	for {
		part, err := reader.NextPart()
		if err != nil {
			break
		}
		types = append(types, part.Header.Get("Content-Type"))
	}
	assert.Equal(t, []string{`text/plain; charset="UTF-8"`, `text/html; charset="UTF-8"`}, types)
}

func TestDispatcherPostsPayload(t *testing.T) {
	var got Welcome
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	d := NewDispatcher(DispatcherConfig{FunctionURL: srv.URL, ServiceKey: "svc-key", Timeout: time.Second}, zerolog.Nop())
	defer d.Close()

	require.NoError(t, d.SendWelcome(context.Background(), sampleWelcome()))
	assert.Equal(t, "Bearer svc-key", auth)
	assert.Equal(t, sampleWelcome(), got)
}

func TestDispatcherNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDispatcher(DispatcherConfig{FunctionURL: srv.URL}, zerolog.Nop())
	err := d.SendWelcome(context.Background(), sampleWelcome())
	assert.ErrorIs(t, err, apperrors.ErrDownstream)
}

func TestDispatcherWithoutURLOnlyLogs(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{}, zerolog.Nop())
	assert.NoError(t, d.SendWelcome(context.Background(), sampleWelcome()))
}
