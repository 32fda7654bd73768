package access

// Portal gates: the pure decision machine behind the SPA's role and feature
// guards. The SPA holds the session bootstrap state; the rules live here so
// client and server cannot disagree. Decisions depend only on
// (SessionState, Session, input) — re-evaluating with unchanged inputs
// yields the same Decision, so redirect effects fire at most once per
// state transition.

type SessionState int

const (
	// StateLoading: session bootstrap still in flight.
	StateLoading SessionState = iota
	// StateAnonymous: bootstrap finished, no valid session.
	StateAnonymous
	// StateReady: a valid session is available.
	StateReady
)

type Verdict int

const (
	// VerdictPending: no decision yet; render a fallback, do not redirect.
	VerdictPending Verdict = iota
	// VerdictAllow: render the gated subtree.
	VerdictAllow
	// VerdictRedirectSignIn: navigate to the sign-in entry point.
	VerdictRedirectSignIn
	// VerdictRedirectUnauthorized: navigate to the generic unauthorized page.
	VerdictRedirectUnauthorized
	// VerdictDeny: blocked; an ancestor guard owns the redirect.
	VerdictDeny
	// VerdictDenyInline: blocked; show an in-page panel with a link back to
	// the caller's dashboard tab instead of navigating away.
	VerdictDenyInline
)

const (
	SignInPath       = "/"
	UnauthorizedPath = "/unauthorized"
	// FallbackTab is the tab the inline denial panel links back to.
	FallbackTab = "dashboard"
)

type Decision struct {
	Verdict Verdict `json:"verdict"`
	// Target is the redirect path, or the fallback tab for VerdictDenyInline.
	Target string `json:"target,omitempty"`
}

func (v Verdict) String() string {
	switch v {
	case VerdictPending:
		return "pending"
	case VerdictAllow:
		return "allow"
	case VerdictRedirectSignIn:
		return "redirect-signin"
	case VerdictRedirectUnauthorized:
		return "redirect-unauthorized"
	case VerdictDeny:
		return "deny"
	case VerdictDenyInline:
		return "deny-inline"
	}
	return "unknown"
}

func (v Verdict) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// EvaluateRole is the page-level guard: block a subtree unless the session
// role is in `allowed`.
func EvaluateRole(state SessionState, sess *Session, allowed []Role) Decision {
	switch state {
	case StateLoading:
		return Decision{Verdict: VerdictPending}
	case StateAnonymous:
		return Decision{Verdict: VerdictRedirectSignIn, Target: SignInPath}
	}

	// Ready. A session whose role has not hydrated yet is not a denial:
	// redirecting here would bounce users during the bootstrap race.
	if sess == nil || sess.Role == "" {
		return Decision{Verdict: VerdictPending}
	}
	if !roleIn(sess.Role, allowed) {
		return Decision{Verdict: VerdictRedirectUnauthorized, Target: UnauthorizedPath}
	}
	return Decision{Verdict: VerdictAllow}
}

// EvaluateTab is the tab-level guard: admins pass, teachers are checked
// against their allow-list, everyone else is denied by default. A teacher
// denied a tab stays in the portal (inline panel) rather than being
// navigated away.
func EvaluateTab(state SessionState, sess *Session, tab string) Decision {
	switch state {
	case StateLoading:
		return Decision{Verdict: VerdictPending}
	case StateAnonymous:
		// the enclosing role guard owns the sign-in redirect
		return Decision{Verdict: VerdictDeny}
	}

	if sess != nil && sess.Role.IsAdmin() {
		return Decision{Verdict: VerdictAllow}
	}
	if NormalizeTab(tab) == "" {
		// no restriction declared
		return Decision{Verdict: VerdictAllow}
	}
	if sess != nil && sess.Role == RoleTeacher {
		if HasFeature(sess, tab) {
			return Decision{Verdict: VerdictAllow}
		}
		return Decision{Verdict: VerdictDenyInline, Target: FallbackTab}
	}
	// default-deny for anything else
	return Decision{Verdict: VerdictRedirectUnauthorized, Target: UnauthorizedPath}
}
