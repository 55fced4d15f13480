// Package forms holds the form-level validation rules that run before any
// mutation. Each Validate fills an Errors map keyed by field name; an empty
// map means the submission is clean.
package forms

import (
	"context"
	"net/mail"
	"regexp"
	"strconv"
	"time"
)

type Errors map[string]string

func (e Errors) Any() bool { return len(e) > 0 }

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

const dateLayout = "2006-01-02"

// UserDirectory is the slice of the store the registration pre-checks need.
type UserDirectory interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
}

type RegisterForm struct {
	Username  string
	Email     string
	Password  string
	Password2 string
}

// Validate runs the registration rules in order, stopping at the first
// failure per field. The uniqueness checks ask the store but are a UX
// nicety only; the storage constraint stays authoritative. The returned
// error reports a failed store lookup, not a validation failure.
func (f *RegisterForm) Validate(ctx context.Context, users UserDirectory) (Errors, error) {
	errs := Errors{}

	switch {
	case f.Username == "":
		errs["username"] = "This field is required."
	case !usernamePattern.MatchString(f.Username):
		errs["username"] = "Username should be one word, letters, numbers, and underscores only."
	default:
		taken, err := users.UsernameTaken(ctx, f.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			errs["username"] = "User with that name already exists."
		}
	}

	switch {
	case f.Email == "":
		errs["email"] = "This field is required."
	case !validEmail(f.Email):
		errs["email"] = "Invalid email address."
	default:
		taken, err := users.EmailTaken(ctx, f.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			errs["email"] = "Email already exists."
		}
	}

	switch {
	case f.Password == "":
		errs["password"] = "This field is required."
	case len(f.Password) < 4:
		errs["password"] = "Field must be at least 4 characters long."
	// bcrypt rejects anything longer than 72 bytes, so the form has to.
	case len(f.Password) > 72:
		errs["password"] = "Field must be at most 72 characters long."
	case f.Password != f.Password2:
		errs["password"] = "Password must match"
	}

	if f.Password2 == "" {
		errs["password2"] = "This field is required."
	}

	return errs, nil
}

type LoginForm struct {
	Email    string
	Password string
}

func (f *LoginForm) Validate() Errors {
	errs := Errors{}

	switch {
	case f.Email == "":
		errs["email"] = "This field is required."
	case !validEmail(f.Email):
		errs["email"] = "Invalid email address."
	}

	if f.Password == "" {
		errs["password"] = "This field is required."
	}

	return errs
}

// EntryForm carries the raw entry sub-form values. Validate parses the date
// and the hours into Date and Hours on success.
type EntryForm struct {
	Title          string
	EntryDate      string
	TimeSpent      string
	WhatYouLearned string
	ToRemember     string

	Date  time.Time
	Hours int
}

func (f *EntryForm) Validate() Errors {
	errs := Errors{}

	if f.Title == "" {
		errs["title"] = "You must add title"
	}

	if f.EntryDate == "" {
		errs["entry_date"] = "You must enter date in format (2020-01-16)"
	} else {
		date, err := time.Parse(dateLayout, f.EntryDate)
		if err != nil {
			errs["entry_date"] = "You must enter date in format (2020-01-16)"
		} else {
			f.Date = date
		}
	}

	if f.TimeSpent != "" {
		hours, err := strconv.Atoi(f.TimeSpent)
		if err != nil || hours < 0 {
			errs["time_spent"] = "Time spent must be a whole number of hours"
		} else {
			f.Hours = hours
		}
	}

	return errs
}

// TagEntryForm is the composite "new entry" form with its optional tag
// sub-form. ValidateEntryOnly covers the "save-entry" intent and ignores
// the tag field; ValidateWithTag covers "save-entry-tag" and additionally
// requires tag text.
type TagEntryForm struct {
	Entry EntryForm
	Tag   string
}

func (f *TagEntryForm) ValidateEntryOnly() Errors {
	return f.Entry.Validate()
}

func (f *TagEntryForm) ValidateWithTag() Errors {
	errs := f.Entry.Validate()
	if f.Tag == "" {
		errs["tag"] = "You must add tag"
	}
	return errs
}

func validEmail(address string) bool {
	addr, err := mail.ParseAddress(address)
	return err == nil && addr.Address == address
}
