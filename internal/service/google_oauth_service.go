package service

import (
	"context"
	"fmt"

	"github.com/fadilmartias/interview-coach/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

type GoogleProfile struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

type GoogleOAuthServiceInterface interface {
	ExchangeCode(ctx context.Context, code string) (*GoogleProfile, error)
}

type GoogleOAuthService struct {
	client      *resty.Client
	tokenURL    string
	userInfoURL string
}

func NewGoogleOAuthService() *GoogleOAuthService {
	return &GoogleOAuthService{
		client:      resty.New(),
		tokenURL:    "https://oauth2.googleapis.com/token",
		userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

// ExchangeCode trades an authorization code for an access token and fetches
// the user's Google profile.
func (s *GoogleOAuthService) ExchangeCode(ctx context.Context, code string) (*GoogleProfile, error) {
	oauthConfig := config.LoadGoogleOAuthConfig()

	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"code":          code,
			"client_id":     oauthConfig.ClientID,
			"client_secret": oauthConfig.ClientSecret,
			"redirect_uri":  oauthConfig.RedirectURL,
			"grant_type":    "authorization_code",
		}).
		Post(s.tokenURL)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode(), resp.String())
	}

	accessToken := gjson.Get(resp.String(), "access_token").String()
	if accessToken == "" {
		return nil, fmt.Errorf("no access token in Google response")
	}

	infoResp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Get(s.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch Google userinfo: %w", err)
	}
	if infoResp.IsError() {
		return nil, fmt.Errorf("userinfo endpoint returned %d: %s", infoResp.StatusCode(), infoResp.String())
	}

	body := infoResp.String()
	profile := &GoogleProfile{
		GoogleID: gjson.Get(body, "id").String(),
		Email:    gjson.Get(body, "email").String(),
		Name:     gjson.Get(body, "name").String(),
		Picture:  gjson.Get(body, "picture").String(),
	}
	if profile.GoogleID == "" || profile.Email == "" {
		return nil, fmt.Errorf("incomplete Google profile in userinfo response")
	}
	return profile, nil
}
