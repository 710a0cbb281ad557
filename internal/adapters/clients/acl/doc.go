// Package acl translates the upstream quote catalog's API into catalog
// import candidates. Upstream DTOs and status codes stop here: callers only
// see domain.ImportCandidate and domain errors.
package acl
