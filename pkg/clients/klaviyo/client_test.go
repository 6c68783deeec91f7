package klaviyo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drayishere/lead-capture/pkg/models"
)

func newTestClient(baseURL string) *clientImpl {
	return &clientImpl{
		apiKey:     "pk_test",
		revision:   "2023-12-15",
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func testProfile() models.Profile {
	return models.Profile{
		Email:     "a@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Phone:     "+15551234567",
		Properties: map[string]interface{}{
			"businessType": "bakery",
			"source":       "Build Better Blueprint",
		},
	}
}

func assertAuthHeaders(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, "Klaviyo-API-Key pk_test", r.Header.Get("Authorization"))
	assert.Equal(t, "2023-12-15", r.Header.Get("revision"))
	assert.Equal(t, "application/json", r.Header.Get("Accept"))
}

func TestGetOrCreateProfile_Created(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/profiles/", r.URL.Path)
		assertAuthHeaders(t, r)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"type":"profile","id":"01PROF"}}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).GetOrCreateProfile(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Equal(t, "01PROF", result.ID)
	assert.Equal(t, ProfileCreated, result.Outcome)

	data := gotBody["data"].(map[string]interface{})
	assert.Equal(t, "profile", data["type"])
	attrs := data["attributes"].(map[string]interface{})
	assert.Equal(t, "a@example.com", attrs["email"])
	assert.Equal(t, "Jane", attrs["first_name"])
	assert.Equal(t, "Doe", attrs["last_name"])
	assert.Equal(t, "+15551234567", attrs["phone_number"])
	props := attrs["properties"].(map[string]interface{})
	assert.Equal(t, "bakery", props["businessType"])
}

func TestGetOrCreateProfile_OmitsEmptyAttributes(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"01PROF"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetOrCreateProfile(context.Background(), models.Profile{Email: "a@example.com"})
	require.NoError(t, err)

	attrs := gotBody["data"].(map[string]interface{})["attributes"].(map[string]interface{})
	assert.Contains(t, attrs, "email")
	assert.NotContains(t, attrs, "first_name")
	assert.NotContains(t, attrs, "phone_number")
	assert.NotContains(t, attrs, "properties")
}

func TestGetOrCreateProfile_ConflictUsesDuplicateID(t *testing.T) {
	lookups := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			lookups++
			return
		}
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"errors":[{"code":"duplicate_profile","meta":{"duplicate_profile_id":"01EXIST"}}]}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).GetOrCreateProfile(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Equal(t, "01EXIST", result.ID)
	assert.Equal(t, ProfileFound, result.Outcome)
	assert.Equal(t, 0, lookups)
}

func TestGetOrCreateProfile_ConflictFallsBackToLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			require.Equal(t, "/profiles/", r.URL.Path)
			assert.Equal(t, `equals(email,"a@example.com")`, r.URL.Query().Get("filter"))
			w.Write([]byte(`{"data":[{"type":"profile","id":"01EXIST"}]}`))
			return
		}
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"errors":[{"code":"duplicate_profile"}]}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).GetOrCreateProfile(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Equal(t, "01EXIST", result.ID)
	assert.Equal(t, ProfileFound, result.Outcome)
}

func TestGetOrCreateProfile_ConflictWithNoMatchFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`{"data":[]}`))
			return
		}
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"errors":[{"code":"duplicate_profile"}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetOrCreateProfile(context.Background(), testProfile())
	require.Error(t, err)
}

func TestGetOrCreateProfile_FailurePreservesDiagnostic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":[{"detail":"invalid api key"}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetOrCreateProfile(context.Background(), testProfile())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "invalid api key")
}

func TestUpdateProfile(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/profiles/01PROF/", r.URL.Path)
		assertAuthHeaders(t, r)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"data":{"id":"01PROF"}}`))
	}))
	defer server.Close()

	err := newTestClient(server.URL).UpdateProfile(context.Background(), "01PROF", testProfile())
	require.NoError(t, err)

	data := gotBody["data"].(map[string]interface{})
	assert.Equal(t, "01PROF", data["id"])
}

func TestAddToList(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/lists/LIST123/relationships/profiles/", r.URL.Path)
		assertAuthHeaders(t, r)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := newTestClient(server.URL).AddToList(context.Background(), "LIST123", "01PROF")
	require.NoError(t, err)

	entries := gotBody["data"].([]interface{})
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	assert.Equal(t, "profile", entry["type"])
	assert.Equal(t, "01PROF", entry["id"])
}

func TestSubscribeProfile(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/profile-subscription-bulk-create-jobs/", r.URL.Path)
		assertAuthHeaders(t, r)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	err := newTestClient(server.URL).SubscribeProfile(context.Background(), "LIST123", "01PROF", "a@example.com")
	require.NoError(t, err)

	data := gotBody["data"].(map[string]interface{})
	assert.Equal(t, "profile-subscription-bulk-create-job", data["type"])

	list := data["relationships"].(map[string]interface{})["list"].(map[string]interface{})["data"].(map[string]interface{})
	assert.Equal(t, "LIST123", list["id"])

	profiles := data["attributes"].(map[string]interface{})["profiles"].(map[string]interface{})["data"].([]interface{})
	require.Len(t, profiles, 1)
	entry := profiles[0].(map[string]interface{})
	assert.Equal(t, "01PROF", entry["id"])
	attrs := entry["attributes"].(map[string]interface{})
	assert.Equal(t, "a@example.com", attrs["email"])
	consent := attrs["subscriptions"].(map[string]interface{})["email"].(map[string]interface{})["marketing"].(map[string]interface{})["consent"]
	assert.Equal(t, "SUBSCRIBED", consent)
}

func TestSubscribeProfile_FailureReturnsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"detail":"list does not exist"}]}`))
	}))
	defer server.Close()

	err := newTestClient(server.URL).SubscribeProfile(context.Background(), "LISTX", "01PROF", "a@example.com")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}
