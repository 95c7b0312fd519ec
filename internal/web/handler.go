package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/session-bank-ledger/internal/session"
)

// actionForm is one submission of the page's forms.
type actionForm struct {
	Action        string `validate:"required,oneof=login logout deposit withdraw transfer reset"`
	AccountNumber string `validate:"max=32"`
	TargetAccount string `validate:"max=32"`
	Amount        string `validate:"max=32"`
	Description   string `validate:"max=140"`
}

const errMsgInvalidForm = "Invalid form submission."

func (s *Server) show(w http.ResponseWriter, r *http.Request) {
	sid := s.sessionID(w, r)

	view, err := s.svc.Open(r.Context(), sid)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.respond(w, r, http.StatusOK, view)
}

func (s *Server) sessionJSON(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Open(r.Context(), s.sessionID(w, r))
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// action dispatches a form post to the matching session operation. Declined
// operations still render with 200; the view carries the failure message.
func (s *Server) action(w http.ResponseWriter, r *http.Request) {
	sid := s.sessionID(w, r)
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.badRequest(w, r, sid)
		return
	}

	form := actionForm{
		Action:        strings.TrimSpace(r.PostFormValue("action")),
		AccountNumber: strings.TrimSpace(r.PostFormValue("account_number")),
		TargetAccount: strings.TrimSpace(r.PostFormValue("target_account")),
		Amount:        r.PostFormValue("amount"),
		Description:   strings.TrimSpace(r.PostFormValue("description")),
	}
	if err := s.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			s.logger.Info("form rejected", zap.String("session_id", sid), zap.String("field", verrs[0].Field()), zap.String("rule", verrs[0].Tag()))
		}
		s.badRequest(w, r, sid)
		return
	}

	var (
		view session.View
		err  error
	)
	switch form.Action {
	case "login":
		view, err = s.svc.Login(ctx, sid, form.AccountNumber)
	case "logout":
		view, err = s.svc.Logout(ctx, sid)
	case "deposit":
		view, err = s.svc.Deposit(ctx, sid, parseAmount(form.Amount), form.Description)
	case "withdraw":
		view, err = s.svc.Withdraw(ctx, sid, parseAmount(form.Amount), form.Description)
	case "transfer":
		view, err = s.svc.Transfer(ctx, sid, form.TargetAccount, parseAmount(form.Amount), form.Description)
	case "reset":
		if err = s.svc.Reset(ctx, sid); err == nil {
			view, err = s.svc.Open(ctx, sid)
		}
	}
	if err != nil {
		s.internalError(w, err)
		return
	}

	s.respond(w, r, http.StatusOK, view)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionID returns the caller's session id, issuing a new cookie when the
// request has none or carries something that is not a uuid.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	sid := session.NewSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, sid string) {
	view, err := s.svc.Open(r.Context(), sid)
	if err != nil {
		s.internalError(w, err)
		return
	}
	view.Error = errMsgInvalidForm
	s.respond(w, r, http.StatusBadRequest, view)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// respond renders HTML unless the client asked for JSON.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, code int, view session.View) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		s.writeJSON(w, code, view)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := s.page.Execute(w, struct{ View session.View }{View: view}); err != nil {
		s.logger.Error("render page failed", zap.Error(err))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
	}
}
