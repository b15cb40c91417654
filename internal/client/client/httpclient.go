package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mealbook/mealbook/internal/common"
	"github.com/mealbook/mealbook/internal/netx"
)

// tokenExpiredMessage is the error body the server sends for an expired
// access token. Seeing it triggers a transparent refresh-and-retry.
const tokenExpiredMessage = "token expired"

// HTTPClient implements Client over the server's JSON API. Expired access
// tokens are refreshed transparently: the failed call is retried once after
// a successful token rotation.
type HTTPClient struct {
	baseURL      string
	httpClient   *http.Client
	accessToken  string
	refreshToken string
}

// NewHTTPClient constructs an HTTPClient for the given base URL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// mapError converts transport and status errors into the package's
// sentinel errors where a sentinel applies.
func (c *HTTPClient) mapError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ErrUnavailable
	}

	var statusErr *netx.BadStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrUnauthorized
		}
	}

	return err
}

// isExpiredToken reports whether err is a 401 carrying the server's
// token-expiry message.
func isExpiredToken(err error) bool {
	var statusErr *netx.BadStatusError
	return errors.As(err, &statusErr) &&
		statusErr.Status == http.StatusUnauthorized &&
		strings.Contains(statusErr.Body, tokenExpiredMessage)
}

// doJSON performs one JSON API call. When authorized is set, the access
// token is attached; an expired-token response triggers a refresh and a
// single retry with the new token.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any, authorized bool) error {
	err := c.doJSONOnce(ctx, method, path, in, out, authorized)
	if err == nil || !authorized || !isExpiredToken(err) || c.refreshToken == "" {
		return err
	}

	if err := c.refresh(ctx); err != nil {
		return err
	}

	// tokens refreshed, retrying with the new access token
	return c.doJSONOnce(ctx, method, path, in, out, authorized)
}

func (c *HTTPClient) doJSONOnce(ctx context.Context, method, path string, in, out any, authorized bool) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+c.accessToken)
	}

	respBody, err := netx.Do(ctx, c.httpClient, req)
	if err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// refresh rotates the token pair using the stored refresh token.
func (c *HTTPClient) refresh(ctx context.Context) error {
	var pair tokenPair
	err := c.doJSONOnce(ctx, http.MethodPost, "/api/refresh",
		map[string]string{"refreshToken": c.refreshToken}, &pair, false)
	if err != nil {
		return c.mapError(err)
	}

	c.accessToken = pair.AccessToken
	c.refreshToken = pair.RefreshToken
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, login string, password []byte) error {
	var pair tokenPair
	err := c.doJSON(ctx, http.MethodPost, "/api/register",
		map[string]string{"login": login, "password": string(password)}, &pair, false)
	if err != nil {
		return c.mapError(err)
	}

	c.accessToken = pair.AccessToken
	c.refreshToken = pair.RefreshToken
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, login string, password []byte) error {
	var pair tokenPair
	err := c.doJSON(ctx, http.MethodPost, "/api/login",
		map[string]string{"login": login, "password": string(password)}, &pair, false)
	if err != nil {
		return c.mapError(err)
	}

	c.accessToken = pair.AccessToken
	c.refreshToken = pair.RefreshToken
	return nil
}

func (c *HTTPClient) CreateMeal(ctx context.Context, title string) (*Meal, error) {
	var meal Meal
	err := c.doJSON(ctx, http.MethodPost, "/api/meals",
		map[string]string{"title": title}, &meal, true)
	if err != nil {
		return nil, c.mapError(err)
	}
	return &meal, nil
}

func (c *HTTPClient) ListMeals(ctx context.Context) ([]Meal, error) {
	var meals []Meal
	if err := c.doJSON(ctx, http.MethodGet, "/api/meals", nil, &meals, true); err != nil {
		return nil, c.mapError(err)
	}
	return meals, nil
}

func (c *HTTPClient) FetchAlbum(ctx context.Context, mealID string) ([]AlbumImage, error) {
	var album []AlbumImage
	err := c.doJSON(ctx, http.MethodGet, "/api/meals/"+mealID+"/album", nil, &album, true)
	if err != nil {
		return nil, c.mapError(err)
	}
	return album, nil
}

// Upload streams the file at path as a multipart POST, reporting upload
// progress. The multipart body is rebuilt from the file on a token-refresh
// retry since a consumed stream cannot be replayed.
func (c *HTTPClient) Upload(ctx context.Context, mealID, path string, progress netx.ProgressFunc) (*AlbumImage, error) {
	img, err := c.uploadOnce(ctx, mealID, path, progress)
	if err != nil && isExpiredToken(err) && c.refreshToken != "" {
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
		img, err = c.uploadOnce(ctx, mealID, path, progress)
	}
	if err != nil {
		return nil, c.mapError(err)
	}
	return img, nil
}

func (c *HTTPClient) uploadOnce(ctx context.Context, mealID, path string, progress netx.ProgressFunc) (*AlbumImage, error) {
	body, contentType, err := netx.MultipartFile(path, "image", progress)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/meals/"+mealID+"/images", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+c.accessToken)

	respBody, err := netx.Do(ctx, c.httpClient, req)
	if err != nil {
		return nil, err
	}

	var img AlbumImage
	if err := json.Unmarshal(respBody, &img); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &img, nil
}

func (c *HTTPClient) SetKeyImage(ctx context.Context, mealID, imageID string) error {
	err := c.doJSON(ctx, http.MethodPatch, "/api/meals/"+mealID+"/key",
		map[string]string{"imageId": imageID}, nil, true)
	if err != nil {
		return c.mapError(err)
	}
	return nil
}

func (c *HTTPClient) Reorder(ctx context.Context, mealID string, ids []string) error {
	err := c.doJSON(ctx, http.MethodPatch, "/api/meals/"+mealID+"/order",
		map[string][]string{"ids": ids}, nil, true)
	if err != nil {
		return c.mapError(err)
	}
	return nil
}

func (c *HTTPClient) SubmitDeletions(ctx context.Context, mealID string, ids []string) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/meals/"+mealID+"/deletions",
		map[string][]string{"ids": ids}, nil, true)
	if err != nil {
		return c.mapError(err)
	}
	return nil
}
