package handler

import (
	"encoding/json"

	"github.com/deppfellow/start-service/internal/model"
	"github.com/deppfellow/start-service/internal/validation"
)

// Query keys with a meaning of their own. Every other query key filters.
const (
	queryOrder = "order"
	queryPage  = "page"
	querySize  = "size"
	queryWith  = "with"
)

var reservedQuery = map[string]bool{
	queryOrder: true,
	queryPage:  true,
	querySize:  true,
	queryWith:  true,
}

type ListRequest struct {
	Order string `query:"order"`
}

func (r *ListRequest) Validate() error { return validation.Struct(r) }

func newListRequest() *ListRequest { return &ListRequest{} }

type PageRequest struct {
	Order string `query:"order"`
	Page  int    `query:"page" validate:"gte=0"`
	Size  int    `query:"size" validate:"gte=0,lte=100"`
}

func (r *PageRequest) Validate() error { return validation.Struct(r) }

func newPageRequest() *PageRequest { return &PageRequest{} }

type InfoRequest struct {
	ID   string `param:"id" validate:"required"`
	With string `query:"with"`
}

func (r *InfoRequest) Validate() error { return validation.Struct(r) }

func newInfoRequest() *InfoRequest { return &InfoRequest{} }

// objectBody checks that a request body decoded to a JSON object.
func objectBody(data model.Record) error {
	if data == nil {
		return validation.CustomValidationErrors{{Field: "body", Message: "must be a JSON object"}}
	}
	return nil
}

// CreateRequest carries the JSON object body as a record.
type CreateRequest struct {
	Data model.Record
}

func (r *CreateRequest) UnmarshalJSON(raw []byte) error {
	return json.Unmarshal(raw, &r.Data)
}

func (r *CreateRequest) Validate() error {
	if err := objectBody(r.Data); err != nil {
		return err
	}
	if len(r.Data) == 0 {
		return validation.CustomValidationErrors{{Field: "body", Message: "must not be empty"}}
	}
	return nil
}

func newCreateRequest() *CreateRequest { return &CreateRequest{} }

// UpdateRequest takes the primary key from the path and the fields to
// write from the JSON object body.
type UpdateRequest struct {
	ID   string `param:"id" validate:"required"`
	Data model.Record
}

// UnmarshalJSON fills Data only, keeping the bound path parameter.
func (r *UpdateRequest) UnmarshalJSON(raw []byte) error {
	return json.Unmarshal(raw, &r.Data)
}

func (r *UpdateRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	return objectBody(r.Data)
}

func newUpdateRequest() *UpdateRequest { return &UpdateRequest{} }

type RemoveRequest struct {
	IDs string `param:"ids" validate:"required"`
}

func (r *RemoveRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if !validation.IsKeyList(r.IDs) {
		return validation.CustomValidationErrors{{Field: "ids", Message: "must be a comma-separated list of keys"}}
	}
	return nil
}

func newRemoveRequest() *RemoveRequest { return &RemoveRequest{} }

type RemoveResponse struct {
	Deleted int `json:"deleted"`
}
