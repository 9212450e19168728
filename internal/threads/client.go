package threads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://graph.threads.net/v1.0"

// maxBodySize caps how much of an upstream response is read.
const maxBodySize = 64 << 10

// Client talks to the Threads Graph API. It holds no credentials; every call
// takes the persona's access token.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Publish creates the containers the request needs, publishes the top-level
// one and returns the remote post id.
func (c *Client) Publish(ctx context.Context, req PublishRequest, accessToken string) (string, error) {
	var (
		containerID string
		err         error
	)

	switch r := req.(type) {
	case TextOnly:
		containerID, err = c.createText(ctx, r, accessToken)
	case SingleImage:
		containerID, err = c.createImage(ctx, r, accessToken)
	case Carousel:
		containerID, err = c.createCarousel(ctx, r, accessToken)
	default:
		return "", fmt.Errorf("threads: unsupported publish request %T", req)
	}
	if err != nil {
		return "", err
	}

	return c.publish(ctx, containerID, accessToken)
}

// Reply posts text as a reply to an existing thread.
func (c *Client) Reply(ctx context.Context, replyToID, text, accessToken string) (string, error) {
	form := url.Values{}
	form.Set("media_type", "TEXT")
	form.Set("text", text)
	form.Set("reply_to_id", replyToID)

	containerID, err := c.createContainer(ctx, StepCreateContainer, form, accessToken)
	if err != nil {
		return "", err
	}
	return c.publish(ctx, containerID, accessToken)
}

func (c *Client) createText(ctx context.Context, r TextOnly, token string) (string, error) {
	form := url.Values{}
	form.Set("media_type", "TEXT")
	form.Set("text", r.Text)
	return c.createContainer(ctx, StepCreateContainer, form, token)
}

func (c *Client) createImage(ctx context.Context, r SingleImage, token string) (string, error) {
	form := url.Values{}
	form.Set("media_type", "IMAGE")
	form.Set("image_url", r.ImageURL)
	if r.Text != "" {
		form.Set("text", r.Text)
	}
	return c.createContainer(ctx, StepCreateContainer, form, token)
}

// createCarousel creates the children one at a time; the parent needs every
// child id up front.
func (c *Client) createCarousel(ctx context.Context, r Carousel, token string) (string, error) {
	if len(r.ImageURLs) < 2 {
		return "", fmt.Errorf("threads: carousel needs at least 2 images, got %d", len(r.ImageURLs))
	}
	if len(r.ImageURLs) > MaxCarouselImages {
		return "", ErrTooManyImages
	}

	children := make([]string, 0, len(r.ImageURLs))
	for _, imageURL := range r.ImageURLs {
		form := url.Values{}
		form.Set("media_type", "IMAGE")
		form.Set("image_url", imageURL)
		form.Set("is_carousel_item", "true")

		id, err := c.createContainer(ctx, StepCreateChildContainer, form, token)
		if err != nil {
			return "", err
		}
		children = append(children, id)
	}

	form := url.Values{}
	form.Set("media_type", "CAROUSEL")
	form.Set("children", strings.Join(children, ","))
	if r.Text != "" {
		form.Set("text", r.Text)
	}
	return c.createContainer(ctx, StepCreateCarouselContainer, form, token)
}

func (c *Client) createContainer(ctx context.Context, step string, form url.Values, token string) (string, error) {
	return c.postForm(ctx, step, c.baseURL+"/me/threads", form, token)
}

func (c *Client) publish(ctx context.Context, containerID, token string) (string, error) {
	form := url.Values{}
	form.Set("creation_id", containerID)
	return c.postForm(ctx, StepPublish, c.baseURL+"/me/threads_publish", form, token)
}

// postForm sends a form-encoded POST and returns the id in the JSON reply.
// The token travels in the body so it never shows up in a request URL.
func (c *Client) postForm(ctx context.Context, step, endpoint string, form url.Values, token string) (string, error) {
	form.Set("access_token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &PublishError{Step: step, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &PublishError{Step: step, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", &PublishError{Step: step, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Info("threads request rejected", "step", step, "status", resp.StatusCode)
		return "", &PublishError{Step: step, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &PublishError{Step: step, StatusCode: resp.StatusCode, Body: string(body), Err: err}
	}
	if result.ID == "" {
		return "", &PublishError{Step: step, StatusCode: resp.StatusCode, Body: string(body), Err: ErrMissingID}
	}

	return result.ID, nil
}

// getJSON issues a GET with the token as a query parameter and decodes the
// reply into out. Transport errors are unwrapped from *url.Error so the
// token-bearing URL stays out of error text.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return redactURL(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return redactURL(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("threads: %s returned status %d: %s", req.URL.Path, resp.StatusCode, body)
	}

	return json.Unmarshal(body, out)
}

func redactURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("threads: %s request failed: %w", ue.Op, ue.Err)
	}
	return err
}
