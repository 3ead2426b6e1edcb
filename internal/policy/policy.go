// Package policy decides whether an actor may perform an action on an article.
// Decisions depend only on the arguments; callers must confirm the article
// exists before asking.
package policy

import "articles/internal/models"

// Action is an operation an actor attempts on an article.
type Action string

const (
	View   Action = "view"
	Update Action = "update"
	Delete Action = "delete"
)

// Decision is the outcome of Decide.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// Decide applies the ownership rules: anyone may view a published article,
// only the owner may view an unpublished one, and only the owner may update or
// delete regardless of published state.
func Decide(actor string, action Action, article *models.Article) Decision {
	if article == nil {
		return Deny
	}
	isOwner := actor != "" && actor == article.UserID

	switch action {
	case View:
		return Decision(article.Published || isOwner)
	case Update, Delete:
		return Decision(isOwner)
	default:
		return Deny
	}
}

// Allowed is shorthand for Decide(...) == Allow.
func Allowed(actor string, action Action, article *models.Article) bool {
	return Decide(actor, action, article) == Allow
}
