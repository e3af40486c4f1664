package handlers

import (
	"net/http"

	"donationhub/internal/identity"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type codeLoginRequest struct {
	Code  string `json:"code"`
	Email string `json:"email"`
}

type idTokenLoginRequest struct {
	IDToken string `json:"id_token"`
}

type sessionResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

func (a *App) AuthRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	u, token, err := a.Accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, sessionResponse{Token: token, User: toUserDTO(u, true)})
}

func (a *App) AuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	a.login(w, r, identity.PasswordCredential{Email: req.Email, Password: req.Password})
}

// AuthLoginCode signs in with a connection code. The route is rate limited
// tighter than password login.
func (a *App) AuthLoginCode(w http.ResponseWriter, r *http.Request) {
	var req codeLoginRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	a.login(w, r, identity.ConnectionCodeCredential{Code: req.Code, Email: req.Email})
}

// AuthLoginIDToken signs in with an ID token from the configured external
// identity provider. The account must already exist.
func (a *App) AuthLoginIDToken(w http.ResponseWriter, r *http.Request) {
	var req idTokenLoginRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	a.login(w, r, identity.IDTokenCredential{Token: req.IDToken})
}

func (a *App) login(w http.ResponseWriter, r *http.Request, cred identity.Credential) {
	u, token, err := a.Accounts.Login(r.Context(), cred)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, sessionResponse{Token: token, User: toUserDTO(u, true)})
}
