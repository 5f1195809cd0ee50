package slackapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/huangsam/shiptalkers/internal/contract"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type profileEnvelope struct {
	OK      *bool  `json:"ok"`
	Error   string `json:"error"`
	Profile *struct {
		ImageOriginal string `json:"image_original"`
	} `json:"profile"`
}

// GetAvatarURL returns the original-size avatar for a user ID.
func (c *Client) GetAvatarURL(ctx context.Context, userID string) (string, error) {
	ctx, span := tracer.Start(ctx, "slackapi.get_avatar_url",
		trace.WithAttributes(attribute.String("slack.user_id", userID)))
	defer span.End()

	form := url.Values{}
	form.Set("user", userID)
	form.Set("token", c.token)

	body, err := c.postForm(ctx, serviceProfile, c.profileBaseURL+profilePath, form, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	avatar, err := decodeProfile(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return avatar, nil
}

func decodeProfile(body []byte) (string, error) {
	var env profileEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", schemaErrorFromJSON(serviceProfile, err)
	}
	if env.OK == nil {
		return "", &contract.SchemaError{Service: serviceProfile, Field: "ok", Reason: "is missing"}
	}
	if !*env.OK {
		return "", contract.NewUpstreamError(serviceProfile, http.StatusOK, nil, fmt.Errorf("ok=false: %s", env.Error))
	}
	if env.Profile == nil {
		return "", &contract.SchemaError{Service: serviceProfile, Field: "profile", Reason: "is missing"}
	}
	u, err := url.Parse(env.Profile.ImageOriginal)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", &contract.SchemaError{Service: serviceProfile, Field: "profile.image_original", Reason: "must be an absolute URL"}
	}
	return env.Profile.ImageOriginal, nil
}
