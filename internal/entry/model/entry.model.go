package model

import "collablist/store"

type AppendRequest struct {
	Fields store.Fields `json:"fields"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
