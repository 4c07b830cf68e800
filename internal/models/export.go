package models

// ExportLineItem is one row of the Xero bulk-invoice-import CSV. Field order
// here matches the column order Xero expects; empty strings serialize as
// blank cells.
type ExportLineItem struct {
	ContactName       string
	ContactCode       string
	EmailAddress      string
	POAddressLine1    string
	POAddressLine2    string
	POAddressLine3    string
	POAddressLine4    string
	POCity            string
	PORegion          string
	POPostalCode      string
	POCountry         string
	InvoiceNumber     string
	Reference         string
	InvoiceDate       string
	DueDate           string
	InventoryItemCode string
	Description       string
	Quantity          float64
	UnitAmount        float64
	Discount          string
	AccountCode       string
	TaxType           string
	TrackingName1     string
	TrackingOption1   string
	TrackingName2     string
	TrackingOption2   string
	Currency          string
	BrandingTheme     string
}

// ExportColumns is the fixed header row of the Xero import schema.
var ExportColumns = []string{
	"ContactName",
	"ContactCode",
	"EmailAddress",
	"POAddressLine1",
	"POAddressLine2",
	"POAddressLine3",
	"POAddressLine4",
	"POCity",
	"PORegion",
	"POPostalCode",
	"POCountry",
	"InvoiceNumber",
	"Reference",
	"InvoiceDate",
	"DueDate",
	"InventoryItemCode",
	"Description",
	"Quantity",
	"UnitAmount",
	"Discount",
	"AccountCode",
	"TaxType",
	"TrackingName1",
	"TrackingOption1",
	"TrackingName2",
	"TrackingOption2",
	"Currency",
	"BrandingTheme",
}
