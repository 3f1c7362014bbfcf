package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/barangayconnect/internal/client/models"
	"github.com/dmitrijs2005/barangayconnect/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	tr, err := NewTransport(TransportHTTP, srv.URL+"/", 2*time.Second)
	require.NoError(t, err)
	return NewHTTPClient(tr)
}

func TestNewTransport_UnknownKind(t *testing.T) {
	_, err := NewTransport("carrier-pigeon", "http://x", time.Second)
	require.Error(t, err)
}

func TestRegister_SendsPayloadAndDecodes(t *testing.T) {
	var (
		gotMethod, gotPath, gotReqID string
		gotBody                      map[string]any
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotReqID = r.Header.Get(common.RequestIDHeaderName)
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 77, "firstName": "Jane", "role": "resident", "status": "Pending"}`))
	})

	p := models.NewRegistrationPayload(models.RegistrationForm{
		Profile:  models.Profile{FirstName: "Jane", LastName: "Cruz"},
		Contact:  "+639171234567",
		Password: "pw",
		Photo:    "QUJD",
	})
	u, err := c.Register(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/users/", gotPath)
	_, err = uuid.Parse(gotReqID)
	assert.NoError(t, err, "request id must be a uuid")
	assert.Equal(t, "09171234567", gotBody["contact"])
	assert.Equal(t, "pw", gotBody["password"])

	require.NotNil(t, u.ID)
	assert.Equal(t, int64(77), *u.ID)
	assert.Equal(t, "Jane", *u.FirstName)
}

func TestStatusError_DetailParsing(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		body   string
		detail string
		unauth bool
		unavl  bool
	}{
		{name: "string detail", code: 400, body: `{"detail":"Contact already registered"}`, detail: "Contact already registered"},
		{name: "list detail", code: 422, body: `{"detail":[{"msg":"field required"}]}`, detail: "field required"},
		{name: "no body", code: 404, body: ``, detail: ""},
		{name: "unauthorized", code: 401, body: `{"detail":"Incorrect password"}`, detail: "Incorrect password", unauth: true},
		{name: "server error", code: 503, body: `oops`, detail: "", unavl: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Login(context.Background(), "09171234567", "pw")
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, tt.detail, se.Detail)
			assert.Equal(t, tt.unauth, errors.Is(err, ErrUnauthorized))
			assert.Equal(t, tt.unavl, errors.Is(err, ErrUnavailable))
		})
	}
}

func TestNetworkFailure_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	tr, err := NewTransport(TransportHTTP, url, time.Second)
	require.NoError(t, err)

	err = NewHTTPClient(tr).Ping(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestStaffCalls_CarryBearerToken(t *testing.T) {
	var auth []string
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":1,"firstName":"A"},{"id":2,"firstName":"B"}]`))
		case http.MethodPatch:
			_, _ = w.Write([]byte(`{"id":2,"status":"Approved"}`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	c.SetAccessToken("tok")

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	u, err := c.SetStatus(context.Background(), 2, common.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, "Approved", *u.Status)

	require.NoError(t, c.DeleteUser(context.Background(), 2))

	assert.Equal(t, []string{"Bearer tok", "Bearer tok", "Bearer tok"}, auth)
	assert.Equal(t, []string{"GET /users/", "PATCH /users/2/status", "DELETE /users/2"}, paths)

	require.NoError(t, c.Close())
	assert.Empty(t, c.accessToken())
}

func TestUpdateProfile_UsesPut(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Method + " " + r.URL.Path
		_, _ = w.Write([]byte(`{"id":77,"firstName":"Jane"}`))
	})

	u, err := c.UpdateProfile(context.Background(), 77, models.RegistrationPayload{})
	require.NoError(t, err)
	assert.Equal(t, "PUT /users/77", got)
	assert.Equal(t, int64(77), *u.ID)

	_, err = c.GetUser(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, "GET /users/77", got)
}

func TestUndecodableSuccessBody_IsMalformed(t *testing.T) {
	for name, body := range map[string]string{
		"html":       "<html><body>Sign in to Wi-Fi</body></html>",
		"json array": `[1,2,3]`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = io.WriteString(w, body)
			})

			_, err := c.Login(context.Background(), "09171234567", "pw")
			require.ErrorIs(t, err, ErrMalformedResponse)
			assert.False(t, errors.Is(err, ErrUnavailable))
		})
	}
}
