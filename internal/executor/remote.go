package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/example/tablebook/internal/workflow"
)

// Remote asks an action-planning service what to do for each instruction
// and performs the returned actions on the page.
type Remote struct {
	hc       *http.Client
	endpoint string
	apiKey   string
	log      *slog.Logger
}

type RemoteOption func(*Remote)

func WithHTTPClient(hc *http.Client) RemoteOption {
	return func(r *Remote) { r.hc = hc }
}

func WithRemoteLogger(l *slog.Logger) RemoteOption {
	return func(r *Remote) { r.log = l }
}

func NewRemote(baseURL, apiKey string, timeout time.Duration, opts ...RemoteOption) *Remote {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	r := &Remote{
		hc:       &http.Client{Timeout: timeout},
		endpoint: strings.TrimRight(baseURL, "/") + "/act",
		apiKey:   apiKey,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type actRequest struct {
	Instruction string   `json:"instruction"`
	URL         string   `json:"url"`
	Page        Snapshot `json:"page"`
}

type actResponse struct {
	Actions []Action `json:"actions"`
	Message string   `json:"message"`
}

func (r *Remote) Act(ctx context.Context, sess workflow.Session, instruction string) error {
	page, ok := sess.(Page)
	if !ok {
		return ErrUnsupportedSession
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return err
	}
	snap, err := TakeSnapshot(html)
	if err != nil {
		return err
	}

	plan, err := r.plan(ctx, actRequest{Instruction: instruction, URL: page.CurrentLocation(), Page: snap})
	if err != nil {
		return err
	}
	if len(plan.Actions) == 0 {
		if plan.Message != "" {
			return errors.Wrap(ErrNoActions, plan.Message)
		}
		return ErrNoActions
	}

	for i, a := range plan.Actions {
		r.log.Debug("applying action", "kind", a.Kind, "selector", a.Selector)
		if err := apply(ctx, page, a); err != nil {
			return errors.Wrapf(err, "action %d of %d", i+1, len(plan.Actions))
		}
	}
	return nil
}

func (r *Remote) plan(ctx context.Context, body actRequest) (actResponse, error) {
	jb, err := json.Marshal(body)
	if err != nil {
		return actResponse{}, errors.Wrap(err, "encode act request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(jb))
	if err != nil {
		return actResponse{}, errors.Wrap(err, "build act request")
	}
	req.Header.Set("content-type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("authorization", "Bearer "+r.apiKey)
	}

	res, err := r.hc.Do(req)
	if err != nil {
		return actResponse{}, errors.Wrap(err, "call executor")
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return actResponse{}, errors.Wrap(err, "read executor response")
	}

	var out actResponse
	if res.StatusCode >= 400 {
		_ = json.Unmarshal(b, &out)
		if out.Message != "" {
			return actResponse{}, errors.Newf("executor failed: %s (status=%d)", out.Message, res.StatusCode)
		}
		return actResponse{}, errors.Newf("executor failed (status=%d)", res.StatusCode)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return actResponse{}, errors.Wrap(err, "decode executor response")
	}
	return out, nil
}
