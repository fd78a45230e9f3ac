package server

import (
	"github.com/njchilds90/goquad"
)

// ============================================================
// Request / response types
// ============================================================

// CalculateRequest is the JSON body of POST /api/calculate. N defaults to
// the configured default when absent.
type CalculateRequest struct {
	Function string   `json:"function" validate:"required,max=1024"`
	A        *float64 `json:"a" validate:"required"`
	B        *float64 `json:"b" validate:"required"`
	N        *int     `json:"n" validate:"omitempty,gte=1"`
}

// CalculateForm is the form body of POST /calculate.
type CalculateForm struct {
	FuncType       string   `form:"func_type" validate:"required,oneof=preset custom"`
	Function       string   `form:"function" validate:"required_if=FuncType preset"`
	CustomFunction string   `form:"custom_function" validate:"required_if=FuncType custom,max=1024"`
	A              *float64 `form:"a" validate:"required"`
	B              *float64 `form:"b" validate:"required"`
	N              *int     `form:"n" validate:"required,gte=1"`
}

type CalculateResponse struct {
	Success  bool            `json:"success"`
	ID       string          `json:"id"`
	Function string          `json:"function"`
	Formula  string          `json:"formula"`
	Interval []float64       `json:"interval"`
	N        int             `json:"n"`
	Results  []goquad.Result `json:"results"`
	Elapsed  float64         `json:"elapsed_seconds"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func newCalculateResponse(display string, rep *goquad.Report) CalculateResponse {
	return CalculateResponse{
		Success:  true,
		ID:       rep.ID.String(),
		Function: display,
		Formula:  rep.Formula,
		Interval: []float64{rep.A, rep.B},
		N:        rep.N,
		Results:  rep.Results,
		Elapsed:  rep.Elapsed.Seconds(),
	}
}
