// Package http exposes the FocusFlow services as a JSON API.
//
// Every route except /auth/signup, /auth/signin and /healthz requires a bearer
// token, taken from the Authorization header or the session_token cookie.
// The router exposes:
//   - POST /auth/signup, POST /auth/signin: return {"accessToken","expiresAt","user"}.
//     The token is also surfaced via the X-Session-Token header and cookie.
//   - POST /auth/signout: revokes the presented token and clears the cookie.
//   - GET /user/profile, PUT /user/settings: the account and its timer settings.
//   - /sessions: create, list, start, end and the today/weekly stats views.
//     Start and end responses carry a "blocking" object describing the
//     distraction blocking state after the call.
//   - /blocklist: rule management, activation and GET /blocklist/check?url=.
//   - /analytics: daily, weekly, productivity-hours, session-types, insights
//     and overview. Window sizes come from the days and weeks query
//     parameters and fall back to defaults when missing or unparsable.
//
// Field names are camelCase, durations are whole seconds and timestamps are
// RFC 3339 in UTC. Errors share the errorResponse shape defined in
// responder.go. DTOs live alongside their handlers.
package http
