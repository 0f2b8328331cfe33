package exercises

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/stride/internal/domain"
)

func TestFetchExercises(t *testing.T) {
	var gotPath, gotKey, gotType, gotDifficulty string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		gotType = r.URL.Query().Get("type")
		gotDifficulty = r.URL.Query().Get("difficulty")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"name":"Brisk Walk","type":"cardio","muscle":"quadriceps","difficulty":"beginner","instructions":"Walk briskly."},
			{"name":"","type":"cardio"},
			{"name":"Treadmill Incline","type":"cardio","difficulty":"beginner","instructions":"Set incline to 5%."}
		]`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "secret"})
	got, err := c.FetchExercises(context.Background(), "cardio", "Beginner")
	require.NoError(t, err)

	assert.Equal(t, "/v1/exercises", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "cardio", gotType)
	assert.Equal(t, "beginner", gotDifficulty)
	require.Len(t, got, 2)
	assert.Equal(t, "Brisk Walk", got[0].Name)
	assert.Equal(t, "Set incline to 5%.", got[1].Instructions)
}

func TestFetchExercisesUpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"bad key", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":`))
		}},
		{"slow", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`[]`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond})
			_, err := c.FetchExercises(context.Background(), "cardio", "")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
		})
	}
}

func TestFetchExercisesUnreachable(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1", APIKey: "k", Timeout: time.Second})
	_, err := c.FetchExercises(context.Background(), "cardio", "")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
