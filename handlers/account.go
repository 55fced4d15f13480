package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dchest/captcha"

	"journal/forms"
	"journal/store"
)

// Register handles GET/POST /register. Validation failures re-render the
// form with field errors and nothing persisted; a uniqueness race that
// slips past the pre-checks comes back from the store as ErrUserExists and
// is reported the same way.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		form := forms.RegisterForm{
			Username:  r.FormValue("username"),
			Email:     r.FormValue("email"),
			Password:  r.FormValue("password"),
			Password2: r.FormValue("password2"),
		}

		// The captcha gate runs first: a failed challenge re-renders
		// immediately, before any field rules or store pre-checks.
		if h.cfg.Captcha && !captcha.VerifyString(r.FormValue("captcha_id"), r.FormValue("captcha_solution")) {
			errs := forms.Errors{"captcha": "The numbers you typed don't match the image."}
			h.renderRegister(w, r, &form, errs)
			return
		}

		errs, err := form.Validate(r.Context(), h.store)
		if err != nil {
			h.serverError(w, r, err)
			return
		}

		if !errs.Any() {
			_, err := h.store.CreateUser(r.Context(), form.Username, form.Email, form.Password)
			switch {
			case errors.Is(err, store.ErrUserExists):
				errs["username"] = "User already exists"
			case err != nil:
				h.serverError(w, r, err)
				return
			default:
				h.auth.AddFlash(w, r, "success", "You registered successfully")
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
		}

		h.renderRegister(w, r, &form, errs)
		return
	}

	h.renderRegister(w, r, &forms.RegisterForm{}, nil)
}

func (h *Handlers) renderRegister(w http.ResponseWriter, r *http.Request, form *forms.RegisterForm, errs forms.Errors) {
	if errs == nil {
		errs = forms.Errors{}
	}
	data := map[string]any{"Form": form, "Errors": errs}
	if h.cfg.Captcha {
		data["CaptchaID"] = captcha.New()
	}
	h.render(w, r, "register.html", data)
}

// Login handles GET/POST /login. Unknown email and wrong password produce
// the exact same message so the form never reveals which half was wrong.
// A next parameter carried through the form resumes the originally
// requested destination after success.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		form := forms.LoginForm{
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
		}

		errs := form.Validate()
		if !errs.Any() {
			user, err := h.store.UserByEmail(r.Context(), form.Email)
			switch {
			case errors.Is(err, store.ErrNotFound),
				err == nil && !store.CheckPasswordHash(form.Password, user.PasswordHash):
				h.auth.AddFlash(w, r, "error", "Your email and password doesn't match")
			case err != nil:
				h.serverError(w, r, err)
				return
			default:
				if err := h.auth.SignIn(w, r, user.ID); err != nil {
					h.serverError(w, r, err)
					return
				}
				h.auth.AddFlash(w, r, "success", "You've been logged in")
				http.Redirect(w, r, safeNext(r.FormValue("next")), http.StatusSeeOther)
				return
			}
		}

		h.render(w, r, "login.html", map[string]any{
			"Form":   &form,
			"Errors": errs,
			"Next":   safeNext(r.FormValue("next")),
		})
		return
	}

	h.render(w, r, "login.html", map[string]any{
		"Form":   &forms.LoginForm{},
		"Errors": forms.Errors{},
		"Next":   safeNext(r.URL.Query().Get("next")),
	})
}

// Logout is gated by RequireLogin, so it can only run with a session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.AddFlash(w, r, "success", "You've been logged out.")
	if err := h.auth.SignOut(w, r); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// safeNext restricts post-login destinations to local paths so the next
// parameter cannot be abused as an open redirect.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/"
}
