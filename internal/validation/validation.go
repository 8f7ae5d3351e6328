package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/nahidhasan98/autocommit/internal/analyzer"
	"github.com/nahidhasan98/autocommit/internal/errors"
	"github.com/nahidhasan98/autocommit/internal/models"
)

const (
	// MaxBatchSize is the largest batch accepted over HTTP
	MaxBatchSize = 1000
	// MaxPathLength bounds a single path
	MaxPathLength = 4096
	// MaxLimit bounds page sizes
	MaxLimit = 1000
)

// WhatsApp JID patterns
var (
	// Individual JID pattern: number@s.whatsapp.net
	individualJIDPattern = regexp.MustCompile(`^\d{10,15}@s\.whatsapp\.net$`)

	// Group JID pattern: groupid@g.us
	groupJIDPattern = regexp.MustCompile(`^\d+(-\d+)?@g\.us$`)
)

// Validator provides validation methods
type Validator struct{}

// New creates a new validator instance
func New() *Validator {
	return &Validator{}
}

// ValidateDraftRequest checks a draft request and converts it into changes.
// Unknown kinds are accepted and degrade to modified; each one is reported
// in warnings.
func (v *Validator) ValidateDraftRequest(req *models.DraftRequest) (changes []analyzer.Change, warnings []string, appErr *errors.AppError) {
	if req == nil {
		return nil, nil, errors.InvalidRequest("Request body is required")
	}
	if len(req.Changes) > MaxBatchSize {
		return nil, nil, errors.ValidationError(fmt.Sprintf("Too many changes (maximum %d)", MaxBatchSize))
	}

	changes = make([]analyzer.Change, 0, len(req.Changes))
	for i, c := range req.Changes {
		if strings.TrimSpace(c.Path) == "" {
			return nil, nil, errors.ValidationError("Change path is required").
				WithDetails(fmt.Sprintf("changes[%d].path is empty", i))
		}
		if len(c.Path) > MaxPathLength {
			return nil, nil, errors.ValidationError("Change path too long").
				WithDetails(fmt.Sprintf("changes[%d].path exceeds %d bytes", i, MaxPathLength))
		}
		if strings.ContainsRune(c.Path, 0) {
			return nil, nil, errors.ValidationError("Change path contains a NUL byte").
				WithDetails(fmt.Sprintf("changes[%d].path", i))
		}

		kind, ok := analyzer.ParseKind(c.Kind)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("changes[%d].kind %q is unknown, treated as %s", i, c.Kind, kind))
		}
		changes = append(changes, analyzer.Change{Path: c.Path, Kind: kind})
	}
	return changes, warnings, nil
}

// IsValidJID checks if a JID is valid WhatsApp format
func (v *Validator) IsValidJID(jid string) bool {
	jid = strings.TrimSpace(jid)
	return individualJIDPattern.MatchString(jid) || groupJIDPattern.MatchString(jid)
}

// ParsePaging validates and returns the limit and offset query parameters
func (v *Validator) ParsePaging(query url.Values, defaultLimit int) (limit, offset int, appErr *errors.AppError) {
	limit, offset = defaultLimit, 0

	if s := query.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, errors.ValidationError("Invalid limit parameter: must be a number")
		}
		if n < 1 || n > MaxLimit {
			return 0, 0, errors.ValidationError(fmt.Sprintf("Invalid limit parameter: must be between 1 and %d", MaxLimit))
		}
		limit = n
	}

	if s := query.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, errors.ValidationError("Invalid offset parameter: must be a number")
		}
		if n < 0 {
			return 0, 0, errors.ValidationError("Invalid offset parameter: must be non-negative")
		}
		offset = n
	}

	return limit, offset, nil
}
