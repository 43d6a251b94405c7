package graph

import (
	"context"

	"wpexport/pkg/errors"
	"wpexport/pkg/logger"
)

// FetchAppToken exchanges an App ID and App Secret for an application
// access token via the client-credentials grant. The exchange itself is
// unauthenticated.
func FetchAppToken(ctx context.Context, apiVersion, appID, appSecret string, opts Options, log logger.Logger) (string, error) {
	client := NewClient("", apiVersion, opts, log)

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	url := client.Endpoints().AppToken(appID, appSecret)
	if err := client.GetJSON(ctx, url, nil, &payload); err != nil {
		return "", err
	}

	if payload.AccessToken == "" {
		return "", errors.New(errors.ErrorTypeAuth,
			"the token response did not include an access token")
	}

	return payload.AccessToken, nil
}
