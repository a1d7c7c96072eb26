package server

import (
	"smartcollect/internal/importer"
	"smartcollect/internal/promises"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type MeResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type SeedRequest struct {
	Count int `json:"count,omitempty"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type ContactRequest struct {
	Channel string `json:"channel,omitempty"`
	Note    string `json:"note"`
}

type PromiseRequest struct {
	Amount  float64 `json:"amount"`
	Date    string  `json:"date"`
	Channel string  `json:"channel,omitempty"`
	Note    string  `json:"note,omitempty"`
}

type PromiseListResponse struct {
	Items   []promises.Flat  `json:"items"`
	Summary promises.Summary `json:"summary"`
}

type ImportRows struct {
	Rows    []map[string]string `json:"rows"`
	Mapping importer.Mapping    `json:"mapping,omitempty"`
}

type InferRequest struct {
	Headers []string `json:"headers"`
}

type InferResponse struct {
	Mapping importer.Mapping `json:"mapping"`
	Fields  []string         `json:"fields"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
