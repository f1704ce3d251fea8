package api

import (
	"context"
	"errors"
	nethttp "net/http"
	"strings"

	"github.com/neuropassword/npass/internal/models"
)

const (
	generatePassPhrasePath = "user/generate-pass-phrase/"
	generateTokenPath      = "user/generate-token/"
)

// GeneratePassPhrase asks the server for a new seed phrase.
func (c *Client) GeneratePassPhrase(ctx context.Context) (string, error) {
	var resp models.PassPhraseResponse
	if err := c.doRequest(ctx, nethttp.MethodPost, generatePassPhrasePath, nil, &resp); err != nil {
		return "", err
	}

	phrase := strings.TrimSpace(resp.PassPhrase)
	if phrase == "" {
		return "", &RemoteError{
			Method: nethttp.MethodPost,
			Path:   generatePassPhrasePath,
			Status: nethttp.StatusOK,
			Err:    errors.New("response has no pass_phrase"),
		}
	}
	return phrase, nil
}

// GenerateToken exchanges a seed phrase for a token pair. A well-formed
// response without an access token is returned as is; callers treat it as
// an invalid phrase.
func (c *Client) GenerateToken(ctx context.Context, phrase string) (models.TokenPair, error) {
	var pair models.TokenPair
	err := c.doRequest(ctx, nethttp.MethodPost, generateTokenPath, models.PassPhraseRequest{PassPhrase: phrase}, &pair)
	if err != nil {
		return models.TokenPair{}, err
	}
	return pair, nil
}
