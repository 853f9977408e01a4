package validation

import (
	"fmt"
	"net/mail"
	"path/filepath"
	"strings"
	"time"
)

// ValidationError represents a structured validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects multiple field errors.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

func (ve *ValidationErrors) Error() string {
	msgs := make([]string, len(ve.Errors))
	for i, e := range ve.Errors {
		msgs[i] = e.Field + ": " + e.Message
	}
	return strings.Join(msgs, "; ")
}

// First returns the message shown to the user: the first failing rule only.
func (ve *ValidationErrors) First() string {
	if len(ve.Errors) == 0 {
		return ""
	}
	return ve.Errors[0].Field + " " + ve.Errors[0].Message
}

// Err returns ve as an error, or nil when nothing failed.
func (ve *ValidationErrors) Err() error {
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// RequireField checks a required string field is non-empty.
func RequireField(ve *ValidationErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		ve.Add(field, "is required")
	}
}

// RequireSelection checks a dropdown moved off its placeholder option.
func RequireSelection(ve *ValidationErrors, field, value, placeholder string) {
	if strings.TrimSpace(value) == "" || value == placeholder {
		ve.Add(field, "must be selected")
	}
}

// ValidateEnum checks a field is one of allowed values.
func ValidateEnum(ve *ValidationErrors, field, value string, allowed []string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	ve.Add(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// DateLayouts are the date formats accepted from forms and the backend.
var DateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses value with the first matching layout in DateLayouts.
// Values without a zone are interpreted in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range DateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// ValidateDate checks a field is a valid date (YYYY-MM-DD or RFC 3339).
func ValidateDate(ve *ValidationErrors, field, value string) {
	if value == "" {
		return
	}
	if _, err := ParseDate(value, time.UTC); err != nil {
		ve.Add(field, "must be a valid date (YYYY-MM-DD)")
	}
}

// ValidateDateOrder checks that to is not before from when both are set.
func ValidateDateOrder(ve *ValidationErrors, field, from, to string) {
	if from == "" || to == "" {
		return
	}
	f, err1 := ParseDate(from, time.UTC)
	t, err2 := ParseDate(to, time.UTC)
	if err1 != nil || err2 != nil {
		return
	}
	if t.Before(f) {
		ve.Add(field, "must not be before "+from)
	}
}

// ValidatePositiveFloat checks a field is > 0.
func ValidatePositiveFloat(ve *ValidationErrors, field string, value float64) {
	if value <= 0 {
		ve.Add(field, "must be a positive number")
	}
}

// ValidateNonNegativeFloat checks a field is >= 0.
func ValidateNonNegativeFloat(ve *ValidationErrors, field string, value float64) {
	if value < 0 {
		ve.Add(field, "must be non-negative")
	}
}

// ValidateRange checks min <= max.
func ValidateRange(ve *ValidationErrors, field string, min, max float64) {
	if min > max {
		ve.Add(field, fmt.Sprintf("minimum %.2f exceeds maximum %.2f", min, max))
	}
}

// ValidateEmail checks a field is a valid email (if non-empty).
func ValidateEmail(ve *ValidationErrors, field, value string) {
	if value == "" {
		return
	}
	_, err := mail.ParseAddress(value)
	if err != nil {
		ve.Add(field, "must be a valid email address")
	}
}

// Length caps for free-text form fields.
const (
	MaxTitleLength = 200
	MaxTextLength  = 2000
)

// ValidateMaxLength checks string doesn't exceed max length.
func ValidateMaxLength(ve *ValidationErrors, field, value string, max int) {
	if len(value) > max {
		ve.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

// Upload describes a file attached to form state. The bytes stay in memory;
// nothing is sent to a remote store.
type Upload struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// UploadRule is the size cap and accept filter for one kind of upload field.
type UploadRule struct {
	MaxSize      int64
	Extensions   []string
	ContentTypes []string
	Label        string
}

const (
	MB = 1024 * 1024
)

var (
	// PDFUpload accepts proofs and certificates.
	PDFUpload = UploadRule{MaxSize: 2 * MB, Extensions: []string{".pdf"}, ContentTypes: []string{"application/pdf"}, Label: "PDF"}
	// LargePDFUpload accepts controlled documents.
	LargePDFUpload = UploadRule{MaxSize: 10 * MB, Extensions: []string{".pdf"}, ContentTypes: []string{"application/pdf"}, Label: "PDF"}
	// ImageUpload accepts logos.
	ImageUpload = UploadRule{MaxSize: 2 * MB, Extensions: []string{".jpg", ".jpeg", ".png"}, ContentTypes: []string{"image/jpeg", "image/png"}, Label: "JPG or PNG"}
)

// ValidateUpload checks an attached file against rule. A nil upload is not
// an error; pair with RequireUpload for mandatory fields.
func ValidateUpload(ve *ValidationErrors, field string, u *Upload, rule UploadRule) {
	if u == nil {
		return
	}
	if u.Size <= 0 {
		ve.Add(field, "cannot be empty (0 bytes)")
		return
	}
	if u.Size > rule.MaxSize {
		ve.Add(field, fmt.Sprintf("exceeds maximum size of %d MB", rule.MaxSize/MB))
		return
	}
	ValidateFilename(ve, field, u.Name)
	ext := strings.ToLower(filepath.Ext(u.Name))
	okExt := false
	for _, e := range rule.Extensions {
		if ext == e {
			okExt = true
			break
		}
	}
	okType := u.ContentType == ""
	for _, ct := range rule.ContentTypes {
		if strings.EqualFold(u.ContentType, ct) {
			okType = true
			break
		}
	}
	if !okExt || !okType {
		ve.Add(field, "must be a "+rule.Label+" file")
	}
}

// RequireUpload checks a mandatory file field was attached.
func RequireUpload(ve *ValidationErrors, field string, u *Upload) {
	if u == nil || u.Name == "" {
		ve.Add(field, "is required")
	}
}

// ValidateFilename checks for path traversal and control characters.
func ValidateFilename(ve *ValidationErrors, field, filename string) {
	if filename == "" {
		ve.Add(field, "filename is required")
		return
	}
	if strings.Contains(filename, "..") {
		ve.Add(field, "contains invalid path traversal sequence (..)")
	}
	if strings.HasPrefix(filename, "/") || strings.HasPrefix(filename, "\\") {
		ve.Add(field, "cannot be an absolute path")
	}
	if strings.ContainsAny(filename, "\x00\r\n") {
		ve.Add(field, "contains control characters")
	}
}
