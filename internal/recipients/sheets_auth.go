package recipients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ryan-gang/outreach-send/internal/config"
)

const spreadsheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// tokenSource caches one token and can be told to drop it. oauth2's own
// reuse wrapper only refreshes on expiry, which does not help when the API
// revokes a token early.
type tokenSource struct {
	mu    sync.Mutex
	fetch func() (*oauth2.Token, error)
	tok   *oauth2.Token
	save  func(*oauth2.Token) error
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tok.Valid() {
		return s.tok, nil
	}
	return s.renew()
}

func (s *tokenSource) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = nil
	_, err := s.renew()
	return err
}

func (s *tokenSource) renew() (*oauth2.Token, error) {
	tok, err := s.fetch()
	if err != nil {
		return nil, err
	}
	s.tok = tok
	if s.save != nil {
		if err := s.save(tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

// OpenSheets builds a SheetsStore from configuration. The credentials file is
// either a service account key or an installed-app OAuth client; the latter
// needs a token file written by Authorize.
func OpenSheets(ctx context.Context, cfg config.StoreConfig) (*SheetsStore, error) {
	src, err := newTokenSource(ctx, cfg.CredentialsFile, cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Transport: &oauth2.Transport{Source: src, Base: http.DefaultTransport}}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets client: %w", err)
	}
	return NewSheetsStore(svc, cfg.SheetID, cfg.SheetRange, src)
}

func newTokenSource(ctx context.Context, credentialsFile, tokenFile string) (*tokenSource, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	var kind struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &kind); err != nil {
		return nil, fmt.Errorf("invalid credentials file %s: %w", credentialsFile, err)
	}

	if kind.Type == "service_account" {
		jwtCfg, err := google.JWTConfigFromJSON(data, spreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		return &tokenSource{fetch: func() (*oauth2.Token, error) {
			return jwtCfg.TokenSource(ctx).Token()
		}}, nil
	}

	oauthCfg, err := google.ConfigFromJSON(data, spreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file: %w", err)
	}
	saved, err := readToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("no usable token in %s, run `outreach-send auth` first: %w", tokenFile, err)
	}
	refreshToken := saved.RefreshToken
	return &tokenSource{
		tok: saved,
		fetch: func() (*oauth2.Token, error) {
			tok, err := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
			if err != nil {
				return nil, err
			}
			if tok.RefreshToken == "" {
				tok.RefreshToken = refreshToken
			}
			return tok, nil
		},
		save: func(tok *oauth2.Token) error {
			return writeToken(tokenFile, tok)
		},
	}, nil
}

// Authorize runs the installed-app consent flow. readCode is shown the consent
// URL and returns the authorization code pasted by the user. The resulting
// token is written to tokenFile.
func Authorize(ctx context.Context, credentialsFile, tokenFile string, readCode func(url string) (string, error)) error {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return fmt.Errorf("unable to read credentials file: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(data, spreadsheetsScope)
	if err != nil {
		return fmt.Errorf("unable to parse client secret file: %w", err)
	}

	code, err := readCode(oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))
	if err != nil {
		return err
	}
	tok, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return writeToken(tokenFile, tok)
}

func readToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" && tok.AccessToken == "" {
		return nil, fmt.Errorf("token file %s is empty", path)
	}
	return tok, nil
}

func writeToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
