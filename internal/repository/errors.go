package repository

import (
	"strings"

	"github.com/Clark-Hu/moviedb/internal/errs"
)

func notFound(title string) error {
	return errs.Errorf(errs.ENOTFOUND, "Movie %q does not exist.", strings.TrimSpace(title))
}

func alreadyExists(title string, cause error) error {
	return errs.Wrap(errs.EEXISTS, cause, "Movie %q already exists in the database.", strings.TrimSpace(title))
}
