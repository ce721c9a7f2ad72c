/*
scenarios.go - Demo datasets for the in-memory upstream

PURPOSE:
  Seeds the fixture upstream with realistic back-office data so the
  projection screen can be demonstrated and exercised without the real
  vendor API.

AVAILABLE SCENARIOS:
  edificio-aurora:  mid-size building, clean chart of accounts, an
                    extraordinary works account, units with fractions
  vila-das-flores:  small building whose unit registry has no ownership
                    fractions (exercises the equal-split fallback) and
                    whose ledger carries breakdown and noise rows

HOW SCENARIOS WORK:
 1. Reset the fixture upstream (drops all seeded data)
 2. Seed property, chart of accounts, units
 3. Seed twelve months of liquidated expenses ending at the scenario's
    suggested closing month

NOTE:
  Scenario endpoints only exist when the server runs against the
  in-memory upstream. Loading one resets that upstream.

SEE ALSO:
  - handlers.go: ListScenarios, LoadScenario
  - upstream/memory: the client being seeded
*/
package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/predial/budget-engine/budget"
	"github.com/predial/budget-engine/upstream"
	"github.com/predial/budget-engine/upstream/memory"
)

// =============================================================================
// SCENARIO CATALOG
// =============================================================================

type scenario struct {
	ID          string
	Name        string
	Description string
	Load        func(*memory.Client)
}

// DemoClosingMonth is the reference closing month every scenario seeds
// its ledger around.
var DemoClosingMonth = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

var scenarios = []scenario{
	{
		ID:          "edificio-aurora",
		Name:        "Edifício Aurora",
		Description: "Prédio de médio porte com conta extraordinária e frações definidas",
		Load:        loadEdificioAurora,
	},
	{
		ID:          "vila-das-flores",
		Name:        "Vila das Flores",
		Description: "Condomínio pequeno sem frações cadastradas, com rateios e lançamentos ruidosos",
		Load:        loadVilaDasFlores,
	},
}

// ListScenarios returns the demo catalog.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	if h.demo == nil {
		writeError(w, http.StatusNotFound, "Scenarios require the demo upstream", nil)
		return
	}
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario resets the demo upstream and seeds one scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	if h.demo == nil {
		writeError(w, http.StatusNotFound, "Scenarios require the demo upstream", nil)
		return
	}

	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	for _, s := range scenarios {
		if s.ID == req.ScenarioID {
			h.demo.Reset()
			s.Load(h.demo)
			writeJSON(w, http.StatusOK, ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Unknown scenario", nil)
}

// LoadDefaultScenario seeds the first scenario. The dev server calls it
// on startup so the API is immediately usable.
func LoadDefaultScenario(client *memory.Client) string {
	client.Reset()
	scenarios[0].Load(client)
	return scenarios[0].ID
}

// =============================================================================
// SEED HELPERS
// =============================================================================

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// monthlyEntries seeds one entry per month of the demo window.
func monthlyEntries(client *memory.Client, propertyID, amount, label string) {
	for _, p := range budget.GeneratePeriods(DemoClosingMonth) {
		client.AddExpenses(propertyID, upstream.LedgerEntry{
			Amount:       d(amount),
			AccountLabel: label,
			SettledAt:    p.Start.AddDate(0, 0, 14),
		})
	}
}

// =============================================================================
// EDIFÍCIO AURORA
// =============================================================================

func loadEdificioAurora(client *memory.Client) {
	const prop = "aurora"
	client.AddProperty(upstream.Property{ID: prop, Name: "Edifício Aurora"})

	client.AddPlanAccounts(prop,
		upstream.PlanAccount{Code: "5.1", Description: "Despesas com Pessoal"},
		upstream.PlanAccount{Code: "5.2", Description: "Despesas de Manutenção"},
		upstream.PlanAccount{Code: "7.1", Description: "Despesas Administrativas"},
		upstream.PlanAccount{Code: "9.1", Description: "Despesas Extraordinárias"},
	)

	client.AddUnits(prop,
		upstream.Unit{ID: "101", Name: "Apto 101", OwnerName: "Helena Souza", OwnershipFraction: d("0.30")},
		upstream.Unit{ID: "102", Name: "Apto 102", OwnerName: "Carlos Lima", OwnershipFraction: d("0.25")},
		upstream.Unit{ID: "201", Name: "Apto 201", OwnerName: "Ana Castro", OwnershipFraction: d("0.25")},
		upstream.Unit{ID: "202", Name: "Apto 202", OwnerName: "Paulo Reis", OwnershipFraction: d("0.20")},
	)

	monthlyEntries(client, prop, "5200.00", "5.1.1 - Salários e Encargos")
	monthlyEntries(client, prop, "480.00", "5.1.2 - Vale Transporte")
	monthlyEntries(client, prop, "850.00", "5.2.1 - Manutenção de Elevadores")
	monthlyEntries(client, prop, "320.00", "5.2.3 - Jardinagem")
	monthlyEntries(client, prop, "210.50", "7.1.1 - Tarifas Bancárias")

	// A one-off façade renovation in the extraordinary account.
	client.AddExpenses(prop, upstream.LedgerEntry{
		Amount:       d("18000.00"),
		AccountLabel: "9.1.1 - Obra da Fachada",
		SettledAt:    time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC),
	})
}

// =============================================================================
// VILA DAS FLORES
// =============================================================================

func loadVilaDasFlores(client *memory.Client) {
	const prop = "vila-flores"
	client.AddProperty(upstream.Property{ID: prop, Name: "Vila das Flores"})

	client.AddPlanAccounts(prop,
		upstream.PlanAccount{Code: "5.2", Description: "Despesas de Manutenção"},
		upstream.PlanAccount{Code: "6.1", Description: "Consumo"},
	)

	// Registry without fractions: apportionment degrades to equal split.
	client.AddUnits(prop,
		upstream.Unit{ID: "c1", Name: "Casa 1", OwnerName: "Marcos Dias"},
		upstream.Unit{ID: "c2", Name: "Casa 2", OwnerName: "Rita Nogueira"},
		upstream.Unit{ID: "c3", Name: "Casa 3", OwnerName: "Luiza Prado"},
	)

	monthlyEntries(client, prop, "780.00", "6.1.1 - Energia Elétrica")
	monthlyEntries(client, prop, "455.30", "6.1.2 - Água e Esgoto")

	for _, p := range budget.GeneratePeriods(DemoClosingMonth) {
		// A shared maintenance contract split across two accounts.
		client.AddExpenses(prop, upstream.LedgerEntry{
			Amount:       d("600.00"),
			AccountLabel: "5.2 - Contrato de Manutenção",
			SettledAt:    p.Start.AddDate(0, 0, 4),
			Breakdown: []upstream.BreakdownLine{
				{AccountLabel: "5.2.1 - Manutenção Hidráulica", Weight: d("0.4")},
				{AccountLabel: "5.2.2 - Manutenção Elétrica", Weight: d("0.6")},
			},
		})
		// Reversal noise the aggregator must discard.
		client.AddExpenses(prop, upstream.LedgerEntry{
			Amount:       d("-120.00"),
			AccountLabel: "6.1.1 - Energia Elétrica",
			SettledAt:    p.Start.AddDate(0, 0, 20),
		})
	}
}
