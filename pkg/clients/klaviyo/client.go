package klaviyo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/drayishere/lead-capture/pkg/models"
)

const defaultBaseURL = "https://a.klaviyo.com/api"

// ProfileOutcome distinguishes a freshly created profile from one that
// already existed and was located by conflict fallback.
type ProfileOutcome int

const (
	ProfileCreated ProfileOutcome = iota
	ProfileFound
)

// ProfileResult carries the provider-assigned profile ID together with how
// the profile was obtained.
type ProfileResult struct {
	ID      string
	Outcome ProfileOutcome
}

// APIError is a non-2xx answer from Klaviyo. The raw response body is kept
// verbatim so callers can surface it as an operator diagnostic.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("klaviyo: status %d: %s", e.StatusCode, e.Body)
}

// Client defines the interface for the Klaviyo contact-management API
type Client interface {
	// GetOrCreateProfile creates or updates a contact profile. A duplicate
	// conflict resolves to the existing profile instead of failing.
	GetOrCreateProfile(ctx context.Context, profile models.Profile) (ProfileResult, error)
	// UpdateProfile re-applies the full attribute set to an existing profile.
	UpdateProfile(ctx context.Context, profileID string, profile models.Profile) error
	// AddToList adds a profile to a list without touching consent.
	AddToList(ctx context.Context, listID, profileID string) error
	// SubscribeProfile adds a profile to a list with explicit email-channel
	// marketing consent via a subscription bulk-create job.
	SubscribeProfile(ctx context.Context, listID, profileID, email string) error
}

type clientImpl struct {
	apiKey     string
	revision   string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Klaviyo API client
func NewClient(apiKey, revision string) Client {
	return &clientImpl{
		apiKey:   apiKey,
		revision: revision,
		baseURL:  defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *clientImpl) GetOrCreateProfile(ctx context.Context, profile models.Profile) (ProfileResult, error) {
	status, body, err := c.do(ctx, http.MethodPost, c.baseURL+"/profiles/", profilePayload("", profile))
	if err != nil {
		return ProfileResult{}, err
	}

	if status >= 200 && status < 300 {
		id, err := parseProfileID(body)
		if err != nil {
			return ProfileResult{}, err
		}
		return ProfileResult{ID: id, Outcome: ProfileCreated}, nil
	}

	// A conflict means the profile already exists. Klaviyo usually reports
	// the existing ID in the error meta; fall back to a filter lookup when
	// it does not.
	if status == http.StatusConflict {
		if id := duplicateProfileID(body); id != "" {
			return ProfileResult{ID: id, Outcome: ProfileFound}, nil
		}
		id, err := c.findProfileByEmail(ctx, profile.Email)
		if err != nil {
			return ProfileResult{}, err
		}
		return ProfileResult{ID: id, Outcome: ProfileFound}, nil
	}

	return ProfileResult{}, &APIError{StatusCode: status, Body: string(body)}
}

func (c *clientImpl) UpdateProfile(ctx context.Context, profileID string, profile models.Profile) error {
	updateURL := c.baseURL + "/profiles/" + profileID + "/"
	status, body, err := c.do(ctx, http.MethodPatch, updateURL, profilePayload(profileID, profile))
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &APIError{StatusCode: status, Body: string(body)}
	}
	return nil
}

func (c *clientImpl) AddToList(ctx context.Context, listID, profileID string) error {
	addURL := fmt.Sprintf("%s/lists/%s/relationships/profiles/", c.baseURL, listID)
	payload := map[string]interface{}{
		"data": []interface{}{
			map[string]interface{}{
				"type": "profile",
				"id":   profileID,
			},
		},
	}

	status, body, err := c.do(ctx, http.MethodPost, addURL, payload)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &APIError{StatusCode: status, Body: string(body)}
	}
	return nil
}

func (c *clientImpl) SubscribeProfile(ctx context.Context, listID, profileID, email string) error {
	jobURL := c.baseURL + "/profile-subscription-bulk-create-jobs/"
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"type": "profile-subscription-bulk-create-job",
			"attributes": map[string]interface{}{
				"profiles": map[string]interface{}{
					"data": []interface{}{
						map[string]interface{}{
							"type": "profile",
							"id":   profileID,
							"attributes": map[string]interface{}{
								"email": email,
								"subscriptions": map[string]interface{}{
									"email": map[string]interface{}{
										"marketing": map[string]interface{}{
											"consent": "SUBSCRIBED",
										},
									},
								},
							},
						},
					},
				},
			},
			"relationships": map[string]interface{}{
				"list": map[string]interface{}{
					"data": map[string]interface{}{
						"type": "list",
						"id":   listID,
					},
				},
			},
		},
	}

	status, body, err := c.do(ctx, http.MethodPost, jobURL, payload)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &APIError{StatusCode: status, Body: string(body)}
	}
	return nil
}

// Helper function to find a profile by exact email match
func (c *clientImpl) findProfileByEmail(ctx context.Context, email string) (string, error) {
	filter := fmt.Sprintf(`equals(email,"%s")`, email)
	searchURL := c.baseURL + "/profiles/?filter=" + url.QueryEscape(filter)

	status, body, err := c.do(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", &APIError{StatusCode: status, Body: string(body)}
	}

	var searchResponse struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &searchResponse); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if len(searchResponse.Data) == 0 {
		return "", fmt.Errorf("profile with email %s not found", email)
	}

	return searchResponse.Data[0].ID, nil
}

// do issues one authenticated request and returns the status and raw body.
func (c *clientImpl) do(ctx context.Context, method, requestURL string, payload interface{}) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("error creating payload: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonPayload)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Authorization", "Klaviyo-API-Key "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("revision", c.revision)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("error calling Klaviyo API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("error reading response: %w", err)
	}

	return resp.StatusCode, body, nil
}

func profilePayload(profileID string, profile models.Profile) map[string]interface{} {
	attributes := map[string]interface{}{
		"email": profile.Email,
	}
	if profile.FirstName != "" {
		attributes["first_name"] = profile.FirstName
	}
	if profile.LastName != "" {
		attributes["last_name"] = profile.LastName
	}
	if profile.Phone != "" {
		attributes["phone_number"] = profile.Phone
	}
	if len(profile.Properties) > 0 {
		attributes["properties"] = profile.Properties
	}

	data := map[string]interface{}{
		"type":       "profile",
		"attributes": attributes,
	}
	if profileID != "" {
		data["id"] = profileID
	}

	return map[string]interface{}{"data": data}
}

func parseProfileID(body []byte) (string, error) {
	var createResponse struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &createResponse); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if createResponse.Data.ID == "" {
		return "", fmt.Errorf("response missing profile id")
	}
	return createResponse.Data.ID, nil
}

func duplicateProfileID(body []byte) string {
	var errorResponse struct {
		Errors []struct {
			Code string `json:"code"`
			Meta struct {
				DuplicateProfileID string `json:"duplicate_profile_id"`
			} `json:"meta"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &errorResponse); err != nil {
		return ""
	}
	for _, e := range errorResponse.Errors {
		if e.Meta.DuplicateProfileID != "" {
			return e.Meta.DuplicateProfileID
		}
	}
	return ""
}
