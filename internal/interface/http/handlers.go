package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/leetgroups/groupboard/internal/application/command"
	"github.com/leetgroups/groupboard/internal/application/ledger"
	"github.com/leetgroups/groupboard/internal/application/query"
	"github.com/leetgroups/groupboard/internal/domain/group"
	"github.com/leetgroups/groupboard/internal/domain/leaderboard"
	"github.com/leetgroups/groupboard/internal/domain/shared"
	"github.com/leetgroups/groupboard/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth reports every registered check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		s.writeJSON(w, r, http.StatusOK, map[string]string{
			"status": "healthy",
			"uptime": s.Uptime().String(),
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, r, code, status)
}

// handleReady handles the readiness probe.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		if status := s.deps.HealthChecker.Check(r.Context()); !status.Ready {
			s.writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// GROUP HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type leaderboardResponse struct {
	GroupName    string                 `json:"groupName"`
	TotalMembers int                    `json:"totalMembers"`
	Members      []leaderboard.Snapshot `json:"members"`
	Prompt       bool                   `json:"prompt"`
	GroupSecret  string                 `json:"groupSecret,omitempty"`
}

// handleFetchGroup handles GET /group/fetch/{group}/{uuid}[/{code}].
func (s *Server) handleFetchGroup(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.FetchLeaderboard.Handle(r.Context(), query.FetchLeaderboardQuery{
		GroupName: r.PathValue("group"),
		Token:     r.PathValue("uuid"),
		Code:      r.PathValue("code"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, leaderboardResponse{
		GroupName:    result.GroupName.String(),
		TotalMembers: result.TotalMembers,
		Members:      result.Members,
		Prompt:       result.PromptToJoin,
		GroupSecret:  result.GroupSecret,
	})
}

// handleCreateGroup handles POST /group/create.
func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeBody(w, r, s.config.MaxBodyBytes, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.CreateGroup.Handle(r.Context(), command.CreateGroupCommand{
		Name:    req.GroupName,
		Secret:  req.GroupSecret,
		Privacy: req.Privacy,
		Token:   req.UUID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, map[string]string{
		"groupName": result.GroupName.String(),
		"owner":     result.Owner.String(),
	})
}

type deleteGroupResponse struct {
	GroupName string   `json:"groupName"`
	Completed []string `json:"completed"`
}

// handleDeleteGroup handles POST /group/delete. A partially failed cascade
// answers with the error status and lists completed and failed steps in the
// error details.
func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	var req deleteGroupRequest
	if err := decodeBody(w, r, s.config.MaxBodyBytes, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.DeleteGroup.Handle(r.Context(), command.DeleteGroupCommand{
		Token:     req.UUID,
		GroupName: req.GroupName,
	})
	if err != nil {
		if result == nil || result.Report.OK() {
			s.writeError(w, r, err)
			return
		}
		logger.FromContext(r.Context()).Error("group delete cascade incomplete",
			logger.Group(result.GroupName.String()),
			"completed", len(result.Report.Completed),
			"failed", len(result.Report.Failed),
			logger.Err(err),
		)
		status, code := classify(err)
		s.writeJSONError(w, r, status, code, "group delete did not complete", cascadeDetails(result.Report))
		return
	}

	s.writeJSON(w, r, http.StatusOK, deleteGroupResponse{
		GroupName: result.GroupName.String(),
		Completed: result.Report.Completed,
	})
}

// cascadeDetails renders a report as "completed: a, b; failed: c".
func cascadeDetails(report ledger.CascadeReport) string {
	failed := make([]string, 0, len(report.Failed))
	for _, f := range report.Failed {
		failed = append(failed, f.Step)
	}
	return "completed: " + strings.Join(report.Completed, ", ") + "; failed: " + strings.Join(failed, ", ")
}

// handleChangePrivacy handles POST /group/change-privacy.
func (s *Server) handleChangePrivacy(w http.ResponseWriter, r *http.Request) {
	var req changePrivacyRequest
	if err := decodeBody(w, r, s.config.MaxBodyBytes, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	err := s.deps.UpdateGroup.ChangePrivacy(r.Context(), command.ChangePrivacyCommand{
		GroupName: req.GroupName,
		Privacy:   *req.Privacy,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"groupName": req.GroupName,
		"privacy":   *req.Privacy,
	})
}

// handleChangeSecret handles POST /group/change-secret.
func (s *Server) handleChangeSecret(w http.ResponseWriter, r *http.Request) {
	var req changeSecretRequest
	if err := decodeBody(w, r, s.config.MaxBodyBytes, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	err := s.deps.UpdateGroup.ChangeSecret(r.Context(), command.ChangeSecretCommand{
		GroupName: req.GroupName,
		NewSecret: req.NewSecret,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"groupName": req.GroupName})
}

// ══════════════════════════════════════════════════════════════════════════════
// USER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRegister handles POST /user/register.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(w, r, s.config.MaxBodyBytes, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.RegisterAccount.Handle(r.Context(), command.RegisterAccountCommand{
		Token:  req.UUID,
		Handle: req.Username,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, map[string]string{
		"username":   result.Username.String(),
		"userAvatar": result.AvatarURL,
	})
}

// handleJoin handles POST /user/add.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeBody(w, r, s.config.MaxBodyBytes, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.JoinGroup.HandleLinked(r.Context(), command.JoinGroupCommand{
		Token:     req.UUID,
		GroupName: req.GroupName,
		Code:      req.Secret,
	})
	s.writeJoinResult(w, r, result, err)
}

// handleJoinAnonymous handles POST /user/add-anon.
func (s *Server) handleJoinAnonymous(w http.ResponseWriter, r *http.Request) {
	var req joinAnonymousRequest
	if err := decodeBody(w, r, s.config.MaxBodyBytes, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.JoinGroup.HandleAnonymous(r.Context(), command.JoinAnonymousCommand{
		Handle:    req.Username,
		GroupName: req.GroupName,
		Code:      req.Secret,
	})
	s.writeJoinResult(w, r, result, err)
}

func (s *Server) writeJoinResult(w http.ResponseWriter, r *http.Request, result *command.JoinGroupResult, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{
		"groupName": result.GroupName.String(),
		"username":  result.Handle.String(),
	})
}

// handleLeave handles POST /user/leave.
func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req leaveRequest
	if err := decodeBody(w, r, s.config.MaxBodyBytes, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.LeaveGroup.Handle(r.Context(), command.LeaveGroupCommand{
		Token:     req.UUID,
		GroupName: req.GroupName,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{
		"groupName": result.GroupName.String(),
		"username":  result.Handle.String(),
	})
}

// handleAccountStatus handles GET /user/status/{uuid}.
func (s *Server) handleAccountStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.AccountStatus.Handle(r.Context(), query.AccountStatusQuery{Token: r.PathValue("uuid")})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]bool{"found": result.Found})
}

type groupView struct {
	Secret  string   `json:"secret"`
	Privacy bool     `json:"privacy"`
	Members []string `json:"members"`
}

// ownedEntry encodes as a [name, group-or-null] pair.
type ownedEntry struct {
	name  string
	group *groupView
}

func (o ownedEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{o.name, o.group})
}

type profileResponse struct {
	Username   string       `json:"username"`
	UserAvatar string       `json:"userAvatar"`
	Groups     []string     `json:"groups"`
	Owned      []ownedEntry `json:"owned"`
	Total      *int         `json:"total"`
	Easy       *int         `json:"easy"`
	Medium     *int         `json:"medium"`
	Hard       *int         `json:"hard"`
}

// handleProfile handles GET /user/profile/{uuid}.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Profile.Handle(r.Context(), query.ProfileQuery{Token: r.PathValue("uuid")})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := profileResponse{
		Username:   result.Username.String(),
		UserAvatar: result.AvatarURL,
		Groups:     make([]string, 0, len(result.Groups)),
		Owned:      make([]ownedEntry, 0, len(result.Owned)),
		Total:      result.Counts.Total,
		Easy:       result.Counts.Easy,
		Medium:     result.Counts.Medium,
		Hard:       result.Counts.Hard,
	}
	for _, g := range result.Groups {
		resp.Groups = append(resp.Groups, g.String())
	}
	for _, o := range result.Owned {
		resp.Owned = append(resp.Owned, ownedEntry{name: o.Name.String(), group: toGroupView(o.Group)})
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func toGroupView(g *group.Group) *groupView {
	if g == nil {
		return nil
	}
	members := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		members = append(members, m.String())
	}
	return &groupView{Secret: g.Secret, Privacy: g.Privacy, Members: members}
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse is the envelope of every API response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      any           `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ResponseMeta contains response metadata.
type ResponseMeta struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	s.writeEnvelope(w, status, JSONResponse{
		Success:   status >= 200 && status < 300,
		Data:      data,
		RequestID: getRequestID(r.Context()),
	})
}

func (s *Server) writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message, details string) {
	s.writeEnvelope(w, status, JSONResponse{
		Error:     &APIError{Code: code, Message: message, Details: details},
		RequestID: getRequestID(r.Context()),
	})
}

func (s *Server) writeEnvelope(w http.ResponseWriter, status int, resp JSONResponse) {
	resp.Meta = &ResponseMeta{Timestamp: time.Now().UTC(), Version: s.config.Version}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeError maps err onto a status code and error envelope. Messages of
// domain errors are safe to show; anything else is logged and hidden.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var bad *errBadRequest
	if errors.As(err, &bad) {
		s.writeJSONError(w, r, http.StatusBadRequest, "invalid_request", bad.message, bad.details)
		return
	}

	status, code := classify(err)
	message := http.StatusText(status)
	var de *shared.DomainError
	if errors.As(err, &de) && status != http.StatusInternalServerError {
		message = de.Message
	}

	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			"path", r.URL.Path,
			"status", status,
			logger.Err(err),
		)
	}
	s.writeJSONError(w, r, status, code, message, "")
}

// classify returns the HTTP status and error code for err.
func classify(err error) (int, string) {
	switch {
	case shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_request"
	case shared.IsUpstreamNotFound(err):
		return http.StatusNotFound, "handle_not_found"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsConflict(err):
		return http.StatusConflict, "conflict"
	case shared.IsForbidden(err):
		return http.StatusForbidden, "forbidden"
	case shared.IsUpstreamUnavailable(err):
		return http.StatusServiceUnavailable, "upstream_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
