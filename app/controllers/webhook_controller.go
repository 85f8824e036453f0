package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/env"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/signedrequest"
)

// HandleFacebookDeauthorize processes Facebook's deauthorization callback.
// Facebook POSTs a signed_request form field when a user removes the app;
// the matching connection is deleted so no further API calls are made on
// their behalf. Facebook only needs a 200, so internal cleanup failures are
// logged but still acknowledged.
func HandleFacebookDeauthorize(c *fiber.Ctx) error {
	secret := strings.TrimSpace(env.GetEnv("FACEBOOK_SECRET", ""))
	if secret == "" {
		log.Error("[Webhook] Facebook deauthorize called but FACEBOOK_SECRET is not configured")
		return c.Status(fiber.StatusInternalServerError).SendString("webhook not configured")
	}

	signedRequest := c.FormValue("signed_request")
	if signedRequest == "" {
		return c.Status(fiber.StatusBadRequest).SendString("missing signed_request")
	}

	payload, err := signedrequest.Parse(signedRequest, []byte(secret))
	if err != nil {
		if errors.Is(err, signedrequest.ErrSignatureMismatch) {
			// A bad signature means the request did not come from Facebook.
			log.Warnf("[Webhook] Facebook deauthorize signature mismatch from %s", c.IP())
		} else {
			log.Warnf("[Webhook] Facebook deauthorize malformed signed_request: %v", err)
		}
		return c.Status(fiber.StatusBadRequest).SendString("invalid signed_request")
	}

	if err := getRefreshService().Deauthorize(c.Context(), payload.UserID); err != nil {
		log.Errorf("[Webhook] Facebook deauthorize cleanup failed for %s: %v", payload.UserID, err)
	}

	return c.SendString("ok")
}
