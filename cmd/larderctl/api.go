package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/larderhq/larder-go/internal/domain/model"
)

const requestTimeout = 30 * time.Second

// agentClient talks to a running larder agent over its HTTP API.
type agentClient struct {
	baseURL string
	http    *http.Client
}

func newAgentClient(cmdCtx *commandContext) *agentClient {
	return &agentClient{
		baseURL: strings.TrimRight(cmdCtx.Config.HTTP.BaseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

type apiError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// call issues a JSON request and decodes the response into out (when non-nil).
// Non-2xx responses are surfaced as errors carrying the agent's message.
func (c *agentClient) call(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("agent unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("%s (%s)", apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("agent returned %s", resp.Status)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Wire shapes mirrored from the agent's context endpoint.
type sessionView struct {
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type contextView struct {
	Loading   bool             `json:"loading"`
	SignedIn  bool             `json:"signed_in"`
	Session   *sessionView     `json:"session,omitempty"`
	Profile   *model.Profile   `json:"profile,omitempty"`
	Household *model.Household `json:"household,omitempty"`
}

func runContext(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, requestTimeout)
	defer cancel()

	var view contextView
	if err := newAgentClient(cmdCtx).call(ctx, http.MethodGet, "/api/context", nil, &view); err != nil {
		return err
	}
	return renderContext(view)
}

func renderContext(view contextView) error {
	if view.Loading {
		return writeln(os.Stdout, "context: loading")
	}
	if !view.SignedIn {
		return writeln(os.Stdout, "context: signed out")
	}

	if err := writef(os.Stdout, "signed in as %s (%s)\n", view.Session.Email, view.Session.UserID); err != nil {
		return err
	}
	if view.Session.ExpiresAt != nil {
		if err := writef(os.Stdout, "session expires: %s\n", view.Session.ExpiresAt.Local().Format(time.RFC1123)); err != nil {
			return err
		}
	}
	if view.Profile != nil {
		if err := writef(os.Stdout, "profile: %s (%s, %s)\n", view.Profile.Name(), view.Profile.Role, view.Profile.Tier); err != nil {
			return err
		}
	} else {
		if err := writeln(os.Stdout, "profile: (none yet)"); err != nil {
			return err
		}
	}
	if view.Household != nil {
		return writef(os.Stdout, "household: %s (%s)\n", view.Household.Name, view.Household.ID)
	}
	return writeln(os.Stdout, "household: (none)")
}

func runSignIn(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("signin", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("-email is required")
	}
	if *password == "" {
		entered, err := promptPassword()
		if err != nil {
			return err
		}
		*password = entered
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, requestTimeout)
	defer cancel()

	var view contextView
	err := newAgentClient(cmdCtx).call(ctx, http.MethodPost, "/api/auth/signin",
		map[string]string{"email": *email, "password": *password}, &view)
	if err != nil {
		return err
	}
	return renderContext(view)
}

func promptPassword() (string, error) {
	if err := writef(os.Stderr, "password: "); err != nil {
		return "", err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

func runSignOut(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, requestTimeout)
	defer cancel()

	var view contextView
	if err := newAgentClient(cmdCtx).call(ctx, http.MethodPost, "/api/auth/signout", nil, &view); err != nil {
		return err
	}
	return writeln(os.Stdout, "signed out")
}

func runRefresh(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, requestTimeout)
	defer cancel()

	var view contextView
	if err := newAgentClient(cmdCtx).call(ctx, http.MethodPost, "/api/auth/refresh", nil, &view); err != nil {
		return err
	}
	return renderContext(view)
}

func runWhoami(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, requestTimeout)
	defer cancel()

	var profile model.Profile
	if err := newAgentClient(cmdCtx).call(ctx, http.MethodGet, "/api/profile", nil, &profile); err != nil {
		return err
	}

	if err := writef(os.Stdout, "user:  %s\n", profile.UserID); err != nil {
		return err
	}
	if err := writef(os.Stdout, "name:  %s\n", profile.Name()); err != nil {
		return err
	}
	if profile.AvatarURL != nil {
		if err := writef(os.Stdout, "avatar: %s\n", *profile.AvatarURL); err != nil {
			return err
		}
	}
	return writef(os.Stdout, "role:  %s\ntier:  %s\n", profile.Role, profile.Tier)
}

func runProfileSet(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("profile-set", flag.ContinueOnError)
	name := fs.String("name", "", "new display name")
	avatar := fs.String("avatar", "", "new avatar URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	update := map[string]string{}
	if *name != "" {
		update["display_name"] = *name
	}
	if *avatar != "" {
		update["avatar_url"] = *avatar
	}
	if len(update) == 0 {
		return fmt.Errorf("at least one of -name or -avatar is required")
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, requestTimeout)
	defer cancel()

	var profile model.Profile
	if err := newAgentClient(cmdCtx).call(ctx, http.MethodPatch, "/api/profile", update, &profile); err != nil {
		return err
	}
	return writef(os.Stdout, "profile updated: %s\n", profile.Name())
}
