// Package billing implements the reconciliation pipeline: billability
// classification, per-ticket and per-client aggregation, contract
// reconciliation, and the Xero export builder.
package billing

import (
	"github.com/afowler-mm/support-reports/internal/models"
)

// UnknownProductName is what a product id outside the catalog resolves to.
// It never matches the SaaS-exempt set, so such records stay billable when
// their entry flag says so.
const UnknownProductName = "Unknown product"

// UnbillableStatuses are ticket billing statuses that make every time entry
// on the ticket unbillable, regardless of any other flag.
var UnbillableStatuses = []string{"Free", "90 days", "Invoice"}

// SaaSExemptProducts are products whose subscription already covers support;
// time against them is not billed unless the ticket is a change request.
var SaaSExemptProducts = []string{"BlocksOffice", "MonkeyWrench"}

// ClassifyInput is one time entry with its ticket's resolved metadata.
type ClassifyInput struct {
	Entry       models.TimeEntry
	Ticket      models.Ticket
	ProductName string
}

// Rule is one step of the billability policy. Rules are evaluated in slice
// order and the first match decides the outcome: the entry's full hours when
// Billable, zero otherwise.
type Rule struct {
	Name     string
	Matches  func(in ClassifyInput) bool
	Billable bool
}

// Rules is the billability policy in priority order.
var Rules = []Rule{
	{
		Name: "unbillable billing status",
		Matches: func(in ClassifyInput) bool {
			return contains(UnbillableStatuses, in.Ticket.CustomFields.BillingStatus)
		},
		Billable: false,
	},
	{
		Name: "change request",
		Matches: func(in ClassifyInput) bool {
			return in.Ticket.CustomFields.ChangeRequest
		},
		Billable: true,
	},
	{
		Name: "SaaS-exempt product",
		Matches: func(in ClassifyInput) bool {
			return contains(SaaSExemptProducts, in.ProductName)
		},
		Billable: false,
	},
	{
		Name: "billable time entry",
		Matches: func(in ClassifyInput) bool {
			return in.Entry.Billable
		},
		Billable: true,
	},
}

// Classify returns the billable hours for one time entry: either the entry's
// full duration or zero, never a partial amount.
func Classify(entry models.TimeEntry, ticket models.Ticket, products map[int]string) float64 {
	in := ClassifyInput{
		Entry:       entry,
		Ticket:      ticket,
		ProductName: ProductName(products, ticket.ProductID),
	}
	for _, rule := range Rules {
		if rule.Matches(in) {
			if rule.Billable {
				return entry.Hours()
			}
			return 0
		}
	}
	return 0
}

// ProductName resolves a product id against the catalog.
func ProductName(products map[int]string, productID int) string {
	if name, ok := products[productID]; ok {
		return name
	}
	return UnknownProductName
}

func contains(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}
