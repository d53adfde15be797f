package discord

import (
	"errors"
	"net/http"

	perr "gatekeeper/internal/platform/errors"

	"github.com/bwmarrin/discordgo"
)

// restErr maps a discordgo REST failure onto a project error code
func restErr(err error, op string) error {
	if err == nil {
		return nil
	}
	var re *discordgo.RESTError
	if !errors.As(err, &re) || re.Response == nil {
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeUnavailable, "discord: "+op), op)
	}
	code := perr.ErrorCodeUnknown
	switch s := re.Response.StatusCode; {
	case s == http.StatusForbidden:
		code = perr.ErrorCodeForbidden
	case s == http.StatusUnauthorized:
		code = perr.ErrorCodeUnauthorized
	case s == http.StatusNotFound:
		code = perr.ErrorCodeNotFound
	case s == http.StatusTooManyRequests:
		code = perr.ErrorCodeTooManyRequests
	case s >= 500:
		code = perr.ErrorCodeUnavailable
	case s >= 400:
		code = perr.ErrorCodeInvalidArgument
	}
	msg := "discord: " + op
	if re.Message != nil && re.Message.Message != "" {
		msg += ": " + re.Message.Message
	}
	return perr.WithOp(perr.Wrap(err, code, msg), op)
}
