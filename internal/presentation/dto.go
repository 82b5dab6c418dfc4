package presentation

import (
	"github.com/zjrosen/implbridge/internal/bridge"
	"github.com/zjrosen/implbridge/internal/implementors"
	"github.com/zjrosen/implbridge/internal/index"
	"github.com/zjrosen/implbridge/internal/render"
)

// ImplementorDTO represents one implementor for presentation
type ImplementorDTO struct {
	Text      string `json:"text"`
	PlainText string `json:"plain_text"`
	Synthetic bool   `json:"synthetic"`
	TypePath  string `json:"type_path"`
}

// CrateDTO groups a crate's implementors
type CrateDTO struct {
	Name         string           `json:"name"`
	Implementors []ImplementorDTO `json:"implementors"`
}

// PageDTO is a full trait page
type PageDTO struct {
	Trait      string     `json:"trait"`
	Deliveries int        `json:"deliveries"`
	Count      int        `json:"count"`
	Crates     []CrateDTO `json:"crates"`
}

// PageSummaryDTO is one line of scan output
type PageSummaryDTO struct {
	Trait        string `json:"trait"`
	Crates       int    `json:"crates"`
	Implementors int    `json:"implementors"`
	Deliveries   int    `json:"deliveries"`
}

// StatsDTO mirrors bridge counters
type StatsDTO struct {
	Submitted   int `json:"submitted"`
	Delivered   int `json:"delivered"`
	Overwritten int `json:"overwritten"`
	Rejected    int `json:"rejected"`
}

// PendingDTO is a page still holding undelivered tables
type PendingDTO struct {
	Page    string `json:"page"`
	Pending int    `json:"pending"`
	Policy  string `json:"policy"`
}

// ScanResultDTO is the result of loading a documentation root
type ScanResultDTO struct {
	DocRoot string           `json:"doc_root"`
	Attach  string           `json:"attach"`
	Pages   []PageSummaryDTO `json:"pages"`
	Failed  []string         `json:"failed,omitempty"`
	Pending []PendingDTO     `json:"pending"`
	Stats   StatsDTO         `json:"stats"`
}

// TypeImplDTO is one trait a type implements
type TypeImplDTO struct {
	Trait     string `json:"trait"`
	Crate     string `json:"crate"`
	Text      string `json:"text"`
	Synthetic bool   `json:"synthetic"`
}

// FromDescriptor converts a descriptor to a DTO
func FromDescriptor(d implementors.Descriptor) ImplementorDTO {
	return ImplementorDTO{
		Text:      d.DisplayText(),
		PlainText: render.PlainText(d.DisplayText()),
		Synthetic: d.Synthetic(),
		TypePath:  d.QualifiedName(),
	}
}

// FromTable converts a trait's table to a page DTO
func FromTable(trait string, deliveries int, table implementors.Table) PageDTO {
	crates := make([]CrateDTO, 0, table.Len())
	table.Each(func(crate string, descs []implementors.Descriptor) bool {
		impls := make([]ImplementorDTO, len(descs))
		for i, d := range descs {
			impls[i] = FromDescriptor(d)
		}
		crates = append(crates, CrateDTO{Name: crate, Implementors: impls})
		return true
	})
	return PageDTO{
		Trait:      trait,
		Deliveries: deliveries,
		Count:      table.Count(),
		Crates:     crates,
	}
}

// FromListings converts reverse-index results
func FromListings(listings []index.Listing) []TypeImplDTO {
	dtos := make([]TypeImplDTO, len(listings))
	for i, l := range listings {
		dtos[i] = TypeImplDTO{
			Trait:     l.Trait,
			Crate:     l.Crate,
			Text:      render.PlainText(l.Descriptor.DisplayText()),
			Synthetic: l.Descriptor.Synthetic(),
		}
	}
	return dtos
}

// FromDiagnostics converts unflushed-page diagnostics
func FromDiagnostics(diags []bridge.Diagnostic) []PendingDTO {
	dtos := make([]PendingDTO, len(diags))
	for i, d := range diags {
		dtos[i] = PendingDTO{Page: d.Page, Pending: d.Pending, Policy: d.Policy.String()}
	}
	return dtos
}

// FromStats converts bridge counters
func FromStats(s bridge.Stats) StatsDTO {
	return StatsDTO{
		Submitted:   s.Submitted,
		Delivered:   s.Delivered,
		Overwritten: s.Overwritten,
		Rejected:    s.Rejected,
	}
}
