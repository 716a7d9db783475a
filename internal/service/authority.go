package service

import (
	"context"
	"log"
	"strings"

	"classbattle/internal/model"
)

// RoleLookup is the external collaborator answering platform-administrator
// checks.
type RoleLookup interface {
	IsAdministrator(ctx context.Context, userID, email string) (bool, error)
}

// SuperHosts is the injected set of privileged override identities. Matching
// any one field grants authority; email and display-name comparisons are
// case-insensitive.
type SuperHosts struct {
	ids    map[string]struct{}
	emails map[string]struct{}
	names  map[string]struct{}
}

// NewSuperHosts builds the override set from configured identity lists.
func NewSuperHosts(ids, emails, names []string) SuperHosts {
	s := SuperHosts{
		ids:    make(map[string]struct{}, len(ids)),
		emails: make(map[string]struct{}, len(emails)),
		names:  make(map[string]struct{}, len(names)),
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	for _, email := range emails {
		s.emails[strings.ToLower(email)] = struct{}{}
	}
	for _, name := range names {
		s.names[strings.ToLower(name)] = struct{}{}
	}
	return s
}

// Match reports whether the caller is one of the override identities.
func (s SuperHosts) Match(callerID, callerEmail, callerName string) bool {
	if callerID != "" {
		if _, ok := s.ids[callerID]; ok {
			return true
		}
	}
	if callerEmail != "" {
		if _, ok := s.emails[strings.ToLower(callerEmail)]; ok {
			return true
		}
	}
	if callerName != "" {
		if _, ok := s.names[strings.ToLower(callerName)]; ok {
			return true
		}
	}
	return false
}

// HostAuthority decides whether a caller may end or administrate a session.
type HostAuthority struct {
	roles RoleLookup
	super SuperHosts
}

// NewHostAuthority creates a host authority check.
func NewHostAuthority(roles RoleLookup, super SuperHosts) *HostAuthority {
	return &HostAuthority{roles: roles, super: super}
}

// CanEnd is OR-composed over three independent checks: session host,
// platform administrator, and the configured super-host identities. A role
// lookup failure is logged and falls through to the remaining checks rather
// than denying outright.
func (a *HostAuthority) CanEnd(ctx context.Context, session *model.Session, callerID, callerEmail, callerName string) bool {
	if callerID != "" && callerID == session.HostID {
		return true
	}
	if a.roles != nil {
		isAdmin, err := a.roles.IsAdministrator(ctx, callerID, callerEmail)
		if err != nil {
			log.Printf("role lookup failed for %s: %v", callerID, err)
		} else if isAdmin {
			return true
		}
	}
	return a.super.Match(callerID, callerEmail, callerName)
}
