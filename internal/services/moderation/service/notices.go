package service

import (
	"fmt"

	"gatekeeper/internal/core/classifier"
	"gatekeeper/internal/services/moderation/domain"
)

type wording struct {
	warnTitle string
	warnBody  string
	muteBody  string
	reason    string
}

var wordings = map[classifier.Category]wording{
	classifier.CategoryLink: {
		warnTitle: "⚠️ Link warning",
		warnBody:  "%s posting links is not allowed. Next time you will be muted.",
		muteBody:  "%s has been muted for repeatedly posting links.",
		reason:    "posting links",
	},
	classifier.CategoryMention: {
		warnTitle: "⚠️ Mention warning",
		warnBody:  "%s please do not ping the server owner. Next time you will be muted.",
		muteBody:  "%s has been muted for repeatedly pinging the server owner.",
		reason:    "pinging the server owner",
	},
	classifier.CategoryProfanity: {
		warnTitle: "⚠️ Language warning",
		warnBody:  "%s watch your language. Next time you will be muted.",
		muteBody:  "%s has been muted for repeated bad language.",
		reason:    "bad language",
	},
}

func mention(userID string) string { return "<@" + userID + ">" }

func wordingFor(c classifier.Category) wording {
	if w, ok := wordings[c]; ok {
		return w
	}
	return wordings[classifier.CategoryLink]
}

func warningNotice(c classifier.Category, userID string) domain.Notice {
	w := wordingFor(c)
	return domain.Notice{
		Title:    w.warnTitle,
		Body:     fmt.Sprintf(w.warnBody, mention(userID)),
		Severity: domain.SeverityWarning,
		UserID:   userID,
	}
}

func sanctionNotice(c classifier.Category, userID string) domain.Notice {
	return domain.Notice{
		Title:    "⛔ Muted",
		Body:     fmt.Sprintf(wordingFor(c).muteBody, mention(userID)),
		Severity: domain.SeveritySanction,
		UserID:   userID,
	}
}

func failureNotice(userID string) domain.Notice {
	return domain.Notice{
		Title:    "❗ Mute failed",
		Body:     fmt.Sprintf("Could not mute %s. The bot role may rank below theirs or lack the timeout permission.", mention(userID)),
		Severity: domain.SeverityFailure,
		UserID:   userID,
	}
}

func muteReason(c classifier.Category) string { return wordingFor(c).reason }
