package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ryan-gang/outreach-send/internal/config"
	"github.com/ryan-gang/outreach-send/internal/util"
)

const graphScope = "https://graph.microsoft.com/.default"

// GraphSender sends as a mailbox user through Microsoft Graph, authenticating
// with the client credentials grant.
type GraphSender struct {
	client   *resty.Client
	endpoint string
	user     string
	creds    clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

func NewGraphSender(cfg config.GraphConfig) *GraphSender {
	return &GraphSender{
		client:   resty.New().SetTimeout(30 * time.Second),
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		user:     cfg.UserEmail,
		creds: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL(),
			Scopes:       []string{graphScope},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
	}
}

func (g *GraphSender) Name() string {
	return config.MailGraph
}

// accessToken returns the cached token, fetching a new one when it expired
// or when force is set.
func (g *GraphSender) accessToken(ctx context.Context, force bool) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !force && g.token.Valid() {
		return g.token.AccessToken, nil
	}
	tok, err := g.creds.Token(ctx)
	if err != nil {
		return "", classifyTokenError(err)
	}
	g.token = tok
	return tok.AccessToken, nil
}

type graphAddress struct {
	EmailAddress struct {
		Address string `json:"address"`
	} `json:"emailAddress"`
}

type graphMail struct {
	Message struct {
		Subject string `json:"subject"`
		Body    struct {
			ContentType string `json:"contentType"`
			Content     string `json:"content"`
		} `json:"body"`
		ToRecipients []graphAddress `json:"toRecipients"`
	} `json:"message"`
	SaveToSentItems bool `json:"saveToSentItems"`
}

func (g *GraphSender) Send(ctx context.Context, m Message) error {
	var payload graphMail
	payload.Message.Subject = m.Subject
	payload.Message.Body.ContentType = "HTML"
	payload.Message.Body.Content = m.HTML
	to := graphAddress{}
	to.EmailAddress.Address = m.To
	payload.Message.ToRecipients = []graphAddress{to}
	payload.SaveToSentItems = true

	resp, err := g.post(ctx, payload, false)
	if err != nil {
		return err
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		if resp, err = g.post(ctx, payload, true); err != nil {
			return err
		}
	}
	return classifyGraph(resp)
}

func (g *GraphSender) post(ctx context.Context, payload graphMail, refresh bool) (*resty.Response, error) {
	token, err := g.accessToken(ctx, refresh)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(payload).
		Post(fmt.Sprintf("%s/users/%s/sendMail", g.endpoint, url.PathEscape(g.user)))
	if err != nil {
		return nil, util.Transient("graph.send", err)
	}
	return resp, nil
}

// classifyTokenError treats a token endpoint that rejects the client as a
// configuration problem and anything else (network, throttling, 5xx) as
// transient.
func classifyTokenError(err error) error {
	const op = "graph.token"

	err = fmt.Errorf("failed to acquire access token: %w", err)
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.Response != nil {
		code := rerr.Response.StatusCode
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
			return util.Configuration(op, err)
		}
	}
	return util.Transient(op, err)
}

func classifyGraph(resp *resty.Response) error {
	const op = "graph.send"

	code := resp.StatusCode()
	switch {
	case code == http.StatusAccepted, code == http.StatusNoContent, code == http.StatusOK:
		return nil
	case code == http.StatusTooManyRequests, code >= 500:
		return util.Transient(op, fmt.Errorf("status %d: %s", code, resp.String()))
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return util.Configuration(op, fmt.Errorf("status %d: %s", code, resp.String()))
	}
	return util.Permanent(op, fmt.Errorf("status %d: %s", code, resp.String()))
}
