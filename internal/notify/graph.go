package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"

	"silorecon/internal/config"
)

// DefaultGraphURL is the Microsoft Graph v1.0 root.
const DefaultGraphURL = "https://graph.microsoft.com/v1.0"

// Graph sends mail through Microsoft Graph. The app-only variant posts to
// /users/{sender}/sendMail with a client-credentials token; the delegated
// variant posts to /me/sendMail with a token refreshed from a stored
// refresh token.
type Graph struct {
	name       string
	endpoint   string
	subject    string
	reportURL  string
	recipients []string
	client     func(ctx context.Context) *http.Client
	log        *zap.Logger
}

func newGraph(o config.Options, log *zap.Logger) (Notifier, error) {
	tenant := o.String("tenant_id", "")
	sender := o.String("sender", "")
	if tenant == "" || sender == "" {
		return nil, fmt.Errorf("graph: tenant_id and sender are required")
	}
	g, err := newGraphBase("graph", o, log)
	if err != nil {
		return nil, err
	}
	g.endpoint = strings.TrimRight(o.String("base_url", DefaultGraphURL), "/") +
		"/users/" + url.PathEscape(sender) + "/sendMail"

	cc := &clientcredentials.Config{
		ClientID:     o.String("client_id", ""),
		ClientSecret: o.String("client_secret", ""),
		TokenURL:     o.String("token_url", microsoft.AzureADEndpoint(tenant).TokenURL),
		Scopes:       []string{o.String("scope", "https://graph.microsoft.com/.default")},
	}
	if cc.ClientID == "" || cc.ClientSecret == "" {
		return nil, fmt.Errorf("graph: client_id and client_secret are required")
	}
	base := httpClient(o)
	g.client = func(ctx context.Context) *http.Client {
		return cc.Client(context.WithValue(ctx, oauth2.HTTPClient, base))
	}
	return g, nil
}

func newGraphDelegated(o config.Options, log *zap.Logger) (Notifier, error) {
	g, err := newGraphBase("graph_delegated", o, log)
	if err != nil {
		return nil, err
	}
	g.endpoint = strings.TrimRight(o.String("base_url", DefaultGraphURL), "/") + "/me/sendMail"

	refresh := o.String("refresh_token", "")
	clientID := o.String("client_id", "")
	if refresh == "" || clientID == "" {
		return nil, fmt.Errorf("graph_delegated: client_id and refresh_token are required")
	}
	ep := microsoft.AzureADEndpoint(o.String("tenant_id", "common"))
	if tu := o.String("token_url", ""); tu != "" {
		ep.TokenURL = tu
	}
	ep.AuthStyle = oauth2.AuthStyleInParams

	scopes := o.StringSlice("scopes")
	if len(scopes) == 0 {
		scopes = []string{"Mail.Send", "offline_access"}
	}
	oc := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: o.String("client_secret", ""),
		Endpoint:     ep,
		Scopes:       scopes,
	}
	base := httpClient(o)
	g.client = func(ctx context.Context) *http.Client {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
		return oauth2.NewClient(ctx, oc.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh}))
	}
	return g, nil
}

func newGraphBase(name string, o config.Options, log *zap.Logger) (*Graph, error) {
	to, err := recipients(o)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Graph{
		name:       name,
		subject:    o.String("subject", DefaultSubject),
		reportURL:  o.String("report_url", ""),
		recipients: to,
		log:        log,
	}, nil
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

// Notify implements Notifier.
func (g *Graph) Notify(ctx context.Context, o Outcome) error {
	o.ReportURL = reportURL(o, g.reportURL)
	if err := g.send(ctx, o); err != nil {
		return &NotifyError{Strategy: g.name, Err: err}
	}
	g.log.Info("mail sent", zap.Strings("recipients", g.recipients))
	return nil
}

func (g *Graph) send(ctx context.Context, o Outcome) error {
	body, err := renderBody(o)
	if err != nil {
		return err
	}

	var m graphMail
	m.Message.Subject = g.subject
	m.Message.Body.ContentType = "HTML"
	m.Message.Body.Content = body
	for _, r := range g.recipients {
		var a graphAddress
		a.EmailAddress.Address = r
		m.Message.ToRecipients = append(m.Message.ToRecipients, a)
	}
	m.SaveToSentItems = true

	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client(ctx).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// checkStatus accepts any 2xx and otherwise returns the status with a short
// body excerpt.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(b)))
}
