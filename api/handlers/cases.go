package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/miraclemessages/mm-case-api/api"
	"github.com/miraclemessages/mm-case-api/config"
	"github.com/miraclemessages/mm-case-api/databases"
)

// Cases reads submitted case documents back from the store
type Cases struct {
	DB databases.Reader
}

func (c Cases) get(w http.ResponseWriter, r *http.Request, path string) {
	zap.S().Debugf("path: %v", path)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	doc, err := c.DB.Get(ctx, path)
	switch {
	case errors.Is(err, databases.ErrNotFound):
		config.ErrorStatus("document not found", http.StatusNotFound, w, err)
		return
	case err != nil:
		config.ErrorStatus("failed to get document", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// CaseHandler returns the public document of a case
func (c Cases) CaseHandler(w http.ResponseWriter, r *http.Request) {
	c.get(w, r, databases.CasePath(mux.Vars(r)["key"]))
}

// PrivateCaseHandler returns the private document of a case
func (c Cases) PrivateCaseHandler(w http.ResponseWriter, r *http.Request) {
	c.get(w, r, databases.CasePrivatePath(mux.Vars(r)["key"]))
}

// LovedOneHandler returns the public document of a loved one
func (c Cases) LovedOneHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	c.get(w, r, databases.LovedOnePath(vars["key"], vars["id"]))
}
