package note

import (
	"net/url"
	"strconv"
	"strings"
)

// Form field names posted by the add-note form.
const (
	FieldReplyID = "reply_id"
	FieldNote    = "note"
)

// CreateCommand is a note submission parsed from the request.
type CreateCommand struct {
	ParentID int64  `json:"parent_id"`
	Content  string `json:"content"`
}

// ParseCreateForm builds a CreateCommand from submitted form values.
func ParseCreateForm(form url.Values) (CreateCommand, error) {
	raw := strings.TrimSpace(form.Get(FieldReplyID))
	if raw == "" {
		return CreateCommand{}, &ValidationError{Field: FieldReplyID, Message: "is required"}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return CreateCommand{}, &ValidationError{Field: FieldReplyID, Message: "must be a positive integer"}
	}

	cmd := CreateCommand{ParentID: id, Content: form.Get(FieldNote)}
	if err := cmd.Validate(); err != nil {
		return CreateCommand{}, err
	}
	return cmd, nil
}

// Validate checks the command before any lookup or write happens.
func (c CreateCommand) Validate() error {
	if c.ParentID <= 0 {
		return &ValidationError{Field: "parent_id", Message: "is required"}
	}
	if strings.TrimSpace(c.Content) == "" {
		return &ValidationError{Field: "content", Message: "is required"}
	}
	return nil
}
