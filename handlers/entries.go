package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	slugify "github.com/gosimple/slug"

	"journal/auth"
	"journal/forms"
	"journal/models"
	"journal/store"
)

// Index lists all entries, newest first. Readable without a session.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Entries(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, "index.html", map[string]any{"Entries": entries})
}

// Detail shows one entry by slug with its tags.
func (h *Handlers) Detail(w http.ResponseWriter, r *http.Request) {
	entry, err := h.store.EntryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	tags, err := h.store.TagsForEntry(r.Context(), entry.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, "detail.html", map[string]any{"Entry": entry, "Tags": tags})
}

// Tag lists all entries carrying the exact tag text. Zero matches is a 404,
// same as an unknown slug.
func (h *Handlers) Tag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	entries, err := h.store.EntriesByTag(r.Context(), tag)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if len(entries) == 0 {
		h.notFound(w, r)
		return
	}
	h.render(w, r, "tag.html", map[string]any{"Tag": tag, "Entries": entries})
}

// NewEntry handles GET/POST /entries/new. The form has two submit intents:
// "save-entry" validates the entry sub-fields only, "save-entry-tag" also
// requires tag text and links the tag to the freshly created entry in the
// same transaction.
func (h *Handlers) NewEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r.Context())

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		form := forms.TagEntryForm{
			Entry: entryFormFromRequest(r),
			Tag:   r.PostFormValue("tag"),
		}

		var errs forms.Errors
		tag := ""
		if _, withTag := r.PostForm["save-entry-tag"]; withTag {
			errs = form.ValidateWithTag()
			tag = form.Tag
		} else {
			errs = form.ValidateEntryOnly()
		}

		if !errs.Any() {
			entry := models.Entry{
				UserID:         user.ID,
				Title:          form.Entry.Title,
				Slug:           slugify.Make(form.Entry.Title),
				EntryDate:      form.Entry.Date,
				TimeSpent:      form.Entry.Hours,
				WhatYouLearned: form.Entry.WhatYouLearned,
				ToRemember:     form.Entry.ToRemember,
			}

			_, err := h.store.CreateEntry(r.Context(), entry, tag)
			switch {
			case errors.Is(err, store.ErrSlugExists):
				errs["title"] = "Slug already exists"
			case err != nil:
				h.serverError(w, r, err)
				return
			default:
				if tag != "" {
					h.auth.AddFlash(w, r, "success", "Entry and Tag saved !")
				} else {
					h.auth.AddFlash(w, r, "success", "Entry saved !")
				}
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
		}

		h.render(w, r, "new.html", map[string]any{"Form": &form, "Errors": errs})
		return
	}

	h.render(w, r, "new.html", map[string]any{"Form": &forms.TagEntryForm{}, "Errors": forms.Errors{}})
}

// EditEntry handles GET/POST /entries/{slug}/edit. The entry is resolved
// first, so an unknown slug 404s before any form is built. Edits replace
// every editable field; the slug itself never changes.
func (h *Handlers) EditEntry(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	entry, err := h.store.EntryBySlug(r.Context(), slug)
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if r.Method == http.MethodPost {
		form := entryFormFromRequest(r)
		errs := form.Validate()

		if !errs.Any() {
			updated := models.Entry{
				Title:          form.Title,
				EntryDate:      form.Date,
				TimeSpent:      form.Hours,
				WhatYouLearned: form.WhatYouLearned,
				ToRemember:     form.ToRemember,
			}

			err := h.store.UpdateEntry(r.Context(), slug, updated)
			if errors.Is(err, store.ErrNotFound) {
				h.notFound(w, r)
				return
			}
			if err != nil {
				h.serverError(w, r, err)
				return
			}

			h.auth.AddFlash(w, r, "success", "Entry updated !")
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		h.render(w, r, "edit.html", map[string]any{"Entry": entry, "Form": &form, "Errors": errs})
		return
	}

	form := entryFormFromEntry(entry)
	h.render(w, r, "edit.html", map[string]any{"Entry": entry, "Form": &form, "Errors": forms.Errors{}})
}

// DeleteEntry handles GET/POST /entries/{slug}/delete. GET renders the
// confirmation page; POST removes the entry and its tags.
func (h *Handlers) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	entry, err := h.store.EntryBySlug(r.Context(), slug)
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if r.Method == http.MethodPost {
		err := h.store.DeleteEntry(r.Context(), slug)
		if errors.Is(err, store.ErrNotFound) {
			h.notFound(w, r)
			return
		}
		if err != nil {
			h.serverError(w, r, err)
			return
		}

		h.auth.AddFlash(w, r, "success", "Entry deleted !")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.render(w, r, "delete.html", map[string]any{"Entry": entry})
}

func entryFormFromRequest(r *http.Request) forms.EntryForm {
	return forms.EntryForm{
		Title:          r.PostFormValue("title"),
		EntryDate:      r.PostFormValue("entry_date"),
		TimeSpent:      r.PostFormValue("time_spent"),
		WhatYouLearned: r.PostFormValue("what_you_learned"),
		ToRemember:     r.PostFormValue("to_remember"),
	}
}

func entryFormFromEntry(e models.Entry) forms.EntryForm {
	return forms.EntryForm{
		Title:          e.Title,
		EntryDate:      e.EntryDate.Format("2006-01-02"),
		TimeSpent:      strconv.Itoa(e.TimeSpent),
		WhatYouLearned: e.WhatYouLearned,
		ToRemember:     e.ToRemember,
	}
}
