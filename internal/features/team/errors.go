package team

import "errors"

var (
	ErrTeamNotFound   = errors.New("team not found")
	ErrMemberNotFound = errors.New("user is not a member of this team")
	ErrNameRequired   = errors.New("team name is required")
)
