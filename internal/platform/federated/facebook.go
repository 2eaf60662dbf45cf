// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package federated signs identities in through third-party OAuth 2.0 providers.

A provider turns the authorization code handed back to the callback URL into
a [Profile]. Account creation and session issuance stay with the auth domain.
*/
package federated

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

// DefaultFacebookGraphURL is the Graph API base used to read the profile.
const DefaultFacebookGraphURL = "https://graph.facebook.com"

// ErrEmailMissing is returned when the provider profile carries no email,
// either because the user declined the scope or never verified one.
var ErrEmailMissing = errors.New("federated: profile has no email")

// Profile is what a provider tells us about the signed-in user.
type Profile struct {
	Provider       string
	ProviderUserID string
	Email          string
}

// FacebookConfig holds the app credentials registered with Facebook.
type FacebookConfig struct {
	AppID       string
	AppSecret   string
	RedirectURL string

	// Endpoint and GraphURL default to Facebook's own.
	Endpoint oauth2.Endpoint
	GraphURL string
}

// Facebook implements the authorization code flow against Facebook Login.
type Facebook struct {
	config   *oauth2.Config
	graphURL string
}

// NewFacebook builds a Facebook provider requesting the email scope.
func NewFacebook(config FacebookConfig) (*Facebook, error) {
	if config.AppID == "" || config.AppSecret == "" {
		return nil, errors.New("federated: facebook app id and secret are required")
	}

	endpoint := config.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = facebook.Endpoint
	}

	graphURL := config.GraphURL
	if graphURL == "" {
		graphURL = DefaultFacebookGraphURL
	}

	return &Facebook{
		config: &oauth2.Config{
			ClientID:     config.AppID,
			ClientSecret: config.AppSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       []string{"email"},
			Endpoint:     endpoint,
		},
		graphURL: strings.TrimRight(graphURL, "/"),
	}, nil
}

// Name identifies the provider in logs and profiles.
func (provider *Facebook) Name() string { return "facebook" }

// AuthCodeURL returns the consent page URL carrying state.
func (provider *Facebook) AuthCodeURL(state string) string {
	return provider.config.AuthCodeURL(state)
}

type facebookUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

/*
Identify exchanges code for a provider token and reads the user's profile.

Returns:
  - *Profile: Provider id and email
  - error: ErrEmailMissing, or exchange and Graph API failures
*/
func (provider *Facebook) Identify(ctx context.Context, code string) (*Profile, error) {
	token, err := provider.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("facebook_exchange_failed: %w", err)
	}

	query := url.Values{"fields": {"id,email"}}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.graphURL+"/me?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("facebook_profile_request_failed: %w", err)
	}

	response, err := provider.config.Client(ctx, token).Do(request)
	if err != nil {
		return nil, fmt.Errorf("facebook_profile_fetch_failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facebook_profile_fetch_failed: status %d", response.StatusCode)
	}

	var user facebookUser
	if err := json.NewDecoder(response.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("facebook_profile_decode_failed: %w", err)
	}

	if user.Email == "" {
		return nil, ErrEmailMissing
	}

	return &Profile{Provider: provider.Name(), ProviderUserID: user.ID, Email: user.Email}, nil
}
