/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's decimal-based model from the external API contract:
  amounts cross the wire as float64 plus a pt-BR formatted string, and
  the projection table flattens into ordered columns and rows.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator tags; handlers run
  validate.Struct before touching the engine.

SEE ALSO:
  - handlers.go: Uses these types
  - budget: the types being projected outward
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/predial/budget-engine/budget"
	"github.com/predial/budget-engine/money"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// GenerateProjectionRequest starts a new projection workspace.
type GenerateProjectionRequest struct {
	PropertyID   string `json:"property_id" validate:"required"`
	ClosingMonth string `json:"closing_month" validate:"required,len=7"` // "2025-06"
}

// SetIndexRequest sets one parent account's reajustment percent.
type SetIndexRequest struct {
	Percent string `json:"percent"`
}

// SetOverrideRequest pins one table cell to a value.
type SetOverrideRequest struct {
	RowKey string  `json:"row_key" validate:"required"`
	Column string  `json:"column" validate:"required"`
	Value  float64 `json:"value"`
}

// ClearOverrideRequest removes one cell override.
type ClearOverrideRequest struct {
	RowKey string `json:"row_key" validate:"required"`
	Column string `json:"column" validate:"required"`
}

// SaveSessionRequest persists the current operator state.
type SaveSessionRequest struct {
	Name string `json:"name"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// PropertyDTO is one active property.
type PropertyDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnitDTO is one billable unit.
type UnitDTO struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	OwnerName         string  `json:"owner_name,omitempty"`
	OwnershipFraction float64 `json:"ownership_fraction"`
}

// PeriodDTO is one month of the reference window.
type PeriodDTO struct {
	Label string `json:"label"`
	Start string `json:"start"` // ISO date
	End   string `json:"end"`
}

// RowDTO is one table row; parents embed their children.
type RowDTO struct {
	Code          string             `json:"code,omitempty"`
	Label         string             `json:"label"`
	Extraordinary bool               `json:"extraordinary,omitempty"`
	Values        map[string]float64 `json:"values"`
	Children      []RowDTO           `json:"children,omitempty"`
}

// ProjectionDTO is the full projection workspace state.
type ProjectionDTO struct {
	ID             string             `json:"id"`
	PropertyID     string             `json:"property_id"`
	ClosingMonth   string             `json:"closing_month"`
	Periods        []PeriodDTO        `json:"periods"`
	Columns        []string           `json:"columns"`
	Rows           []RowDTO           `json:"rows"`
	GrandTotal     map[string]float64 `json:"grand_total"`
	Indices        map[string]string  `json:"indices"`
	Warnings       []string           `json:"warnings,omitempty"`
	EntriesSkipped int                `json:"entries_skipped,omitempty"`
}

// ApportionmentRowDTO is one unit's share of the projected average.
type ApportionmentRowDTO struct {
	Unit             UnitDTO `json:"unit"`
	PercentOfTotal   float64 `json:"percent_of_total"`
	MonthlyValue     float64 `json:"monthly_value"`
	MonthlyFormatted string  `json:"monthly_formatted"`
}

// ApportionmentDTO carries the rows plus the degraded-mode disclosure.
type ApportionmentDTO struct {
	MonthlyAverage float64               `json:"monthly_average"`
	EqualSplit     bool                  `json:"equal_split"`
	Rows           []ApportionmentRowDTO `json:"rows"`
}

// SavedSessionDTO is one persisted workspace.
type SavedSessionDTO struct {
	ID           string `json:"id"`
	PropertyID   string `json:"property_id"`
	Name         string `json:"name,omitempty"`
	ClosingMonth string `json:"closing_month"`
	UpdatedAt    string `json:"updated_at"`
}

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func valuesToFloats(values map[budget.ColumnKey]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(values))
	for k, v := range values {
		out[string(k)] = v.InexactFloat64()
	}
	return out
}

func toProjectionDTO(id string, s *budget.Session) ProjectionDTO {
	res := s.Result()

	dto := ProjectionDTO{
		ID:             id,
		PropertyID:     s.PropertyID(),
		ClosingMonth:   s.ClosingMonth().Format("2006-01"),
		Columns:        make([]string, len(res.Columns)),
		Rows:           make([]RowDTO, 0, len(res.Parents)),
		GrandTotal:     valuesToFloats(res.GrandTotal),
		Indices:        s.Indices(),
		EntriesSkipped: s.EntriesSkipped(),
	}
	for i, c := range res.Columns {
		dto.Columns[i] = string(c)
	}
	for _, p := range res.Periods {
		dto.Periods = append(dto.Periods, PeriodDTO{
			Label: p.Label,
			Start: p.Start.Format("2006-01-02"),
			End:   p.End.Format("2006-01-02"),
		})
	}
	for _, parent := range res.Parents {
		row := RowDTO{
			Code:          parent.Code,
			Label:         parent.Label,
			Extraordinary: parent.Extraordinary,
			Values:        valuesToFloats(parent.Values),
		}
		for _, child := range parent.Children {
			row.Children = append(row.Children, RowDTO{
				Code:   child.Account.Code,
				Label:  child.Key,
				Values: valuesToFloats(child.Values),
			})
		}
		dto.Rows = append(dto.Rows, row)
	}
	for _, w := range s.Warnings() {
		dto.Warnings = append(dto.Warnings, w.String())
	}
	return dto
}

func toApportionmentDTO(average decimal.Decimal, res budget.ApportionmentResult) ApportionmentDTO {
	dto := ApportionmentDTO{
		MonthlyAverage: average.InexactFloat64(),
		EqualSplit:     res.EqualSplit,
		Rows:           make([]ApportionmentRowDTO, 0, len(res.Rows)),
	}
	for _, r := range res.Rows {
		dto.Rows = append(dto.Rows, ApportionmentRowDTO{
			Unit: UnitDTO{
				ID:                r.Unit.ID,
				Name:              r.Unit.Name,
				OwnerName:         r.Unit.OwnerName,
				OwnershipFraction: r.Unit.OwnershipFraction.InexactFloat64(),
			},
			PercentOfTotal:   r.PercentOfTotal.InexactFloat64(),
			MonthlyValue:     r.MonthlyValue.InexactFloat64(),
			MonthlyFormatted: money.Format(r.MonthlyValue.Round(2)),
		})
	}
	return dto
}
