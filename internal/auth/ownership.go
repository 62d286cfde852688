package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ms-ticket-stats/internal/logger"
	"ms-ticket-stats/internal/models"
)

// ErrNotOwner is returned when the caller does not own the requested event.
var ErrNotOwner = errors.New("user is not the owner of this event")

// Tokens supplies bearer tokens for service to service calls.
type Tokens interface {
	Token(ctx context.Context) (string, error)
}

// OwnershipVerifier asks the event service whether a user owns an event.
type OwnershipVerifier struct {
	BaseURL string
	Tokens  Tokens
	Client  *http.Client
	Logger  *logger.Logger
}

// VerifyEventOwnership returns nil when userID owns eventID and ErrNotOwner
// when the event service says otherwise.
func (v *OwnershipVerifier) VerifyEventOwnership(ctx context.Context, eventID int64, userID string) error {
	v.Logger.Debug("AUTH", fmt.Sprintf("Verifying ownership for event %d by user %s", eventID, userID))

	token, err := v.Tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get M2M token: %w", err)
	}

	query := url.Values{}
	query.Set("eventId", strconv.FormatInt(eventID, 10))
	query.Set("userId", userID)
	requestURL := fmt.Sprintf("%s/internal/v1/events/verify-ownership?%s",
		strings.TrimRight(v.BaseURL, "/"), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build ownership request: %w", err)
	}
	req.Header.Add("Authorization", "Bearer "+token)

	resp, err := v.Client.Do(req)
	if err != nil {
		return fmt.Errorf("ownership request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusNotFound:
		return ErrNotOwner
	default:
		return fmt.Errorf("ownership verification failed with status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("failed to read ownership response: %w", err)
	}
	isOwner, err := parseOwnership(body)
	if err != nil {
		return err
	}
	if !isOwner {
		v.Logger.LogSecurity("OWNERSHIP", fmt.Sprintf("user %s denied stats of event %d", userID, eventID))
		return ErrNotOwner
	}
	return nil
}

// parseOwnership accepts a bare JSON boolean or {"isOwner": bool}.
func parseOwnership(body []byte) (bool, error) {
	var isOwner bool
	if err := json.Unmarshal(body, &isOwner); err == nil {
		return isOwner, nil
	}
	var wrapped models.OwnershipResponse
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return false, fmt.Errorf("failed to parse ownership response: %w", err)
	}
	return wrapped.IsOwner, nil
}
