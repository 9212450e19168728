package threads

import (
	"context"
	"errors"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// Threads OAuth endpoints.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://threads.net/oauth/authorize",
	TokenURL:  "https://graph.threads.net/oauth/access_token",
	AuthStyle: oauth2.AuthStyleInParams,
}

var Scopes = []string{"threads_basic", "threads_content_publish", "threads_manage_replies", "threads_read_replies"}

func OAuthConfig(appID, appSecret, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     appID,
		ClientSecret: appSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint:     Endpoint,
	}
}

type Profile struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	ProfilePicture string `json:"threads_profile_picture_url"`
	Biography      string `json:"threads_biography"`
}

// Token is a long-lived Threads access token.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

func (c *Client) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	query := url.Values{}
	query.Set("fields", "id,username,name,threads_profile_picture_url,threads_biography")
	query.Set("access_token", accessToken)

	var profile Profile
	if err := c.getJSON(ctx, c.baseURL+"/me", query, &profile); err != nil {
		return nil, err
	}
	if profile.ID == "" {
		return nil, errors.New("threads: profile response carried no id")
	}
	return &profile, nil
}

// ExchangeLongLived trades a short-lived token from the OAuth callback for a
// 60 day token.
func (c *Client) ExchangeLongLived(ctx context.Context, appSecret, shortLivedToken string) (*Token, error) {
	query := url.Values{}
	query.Set("grant_type", "th_exchange_token")
	query.Set("client_secret", appSecret)
	query.Set("access_token", shortLivedToken)
	return c.token(ctx, c.baseURL+"/access_token", query)
}

// RefreshToken extends a long-lived token that has not yet expired.
func (c *Client) RefreshToken(ctx context.Context, accessToken string) (*Token, error) {
	query := url.Values{}
	query.Set("grant_type", "th_refresh_token")
	query.Set("access_token", accessToken)
	return c.token(ctx, c.baseURL+"/refresh_access_token", query)
}

func (c *Client) token(ctx context.Context, endpoint string, query url.Values) (*Token, error) {
	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := c.getJSON(ctx, endpoint, query, &result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, errors.New("threads: token response carried no access_token")
	}

	return &Token{
		AccessToken: result.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(result.ExpiresIn) * time.Second),
	}, nil
}
