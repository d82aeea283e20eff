package server

import (
	"net/http"

	"github.com/jonathan/repo-expounder/internal/github"
)

// ---------------------------------------------------------------------
// Repository Handlers
// ---------------------------------------------------------------------

// githubToken pulls the caller's GitHub credential from the request, or
// writes a 401 and reports false.
func (s *Server) githubToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := r.Header.Get("X-GitHub-Token")
	if token == "" {
		err := &ErrMissingGitHubToken{}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return "", false
	}
	return token, true
}

func (s *Server) handleListRepos(w http.ResponseWriter, r *http.Request) {
	token, ok := s.githubToken(w, r)
	if !ok {
		return
	}

	repos, err := s.browser.ListRepos(r.Context(), token)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if repos == nil {
		repos = []github.Repo{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"repos": repos})
}

func (s *Server) handleRepoTree(w http.ResponseWriter, r *http.Request) {
	token, ok := s.githubToken(w, r)
	if !ok {
		return
	}

	owner := r.PathValue("owner")
	repo := r.PathValue("repo")
	if owner == "" || repo == "" {
		s.errorResponse(w, http.StatusBadRequest, "Owner and repo are required")
		return
	}
	ref := r.URL.Query().Get("ref")

	tree, err := s.browser.Tree(r.Context(), token, owner, repo, ref)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if tree == nil {
		tree = []*github.Node{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"tree": tree})
}
