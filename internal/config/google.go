package config

import (
	"os"
	"sync"
)

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

var (
	googleConfig *GoogleOAuthConfig
	googleOnce   sync.Once
)

func LoadGoogleOAuthConfig() *GoogleOAuthConfig {
	googleOnce.Do(func() {
		googleConfig = &GoogleOAuthConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		}
	})
	return googleConfig
}
