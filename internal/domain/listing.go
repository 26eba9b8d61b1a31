package domain

import (
	"strconv"
	"strings"
)

// EventType classifies a price-history entry.
type EventType int

const (
	EventUnknown EventType = iota
	EventActive
	EventPending
	EventSold
)

// ParseEventType maps the free-text type reported by the API.
// Only sales are recognised; everything else is unknown.
func ParseEventType(raw string) EventType {
	if strings.Contains(strings.ToLower(raw), "sold") {
		return EventSold
	}
	return EventUnknown
}

// String renders the event type the way it appears in the CSV output.
func (e EventType) String() string {
	switch e {
	case EventActive:
		return "Active"
	case EventPending:
		return "Pending"
	case EventSold:
		return "Sold"
	default:
		return "Unknown"
	}
}

// PriceHistoryEvent is a single dated entry in a listing's price history.
type PriceHistoryEvent struct {
	Date  string
	Price string
	Type  EventType
}

// HouseMetadata is the decoded detail record for one listing.
type HouseMetadata struct {
	StreetNumber string
	Street       string
	Apt          *string
	Sqft         *int
	Bed          *float64
	Bath         *float64
	URL          *string
	PriceHistory []PriceHistoryEvent
}

// FullStreetAddress joins the address components.
func (h HouseMetadata) FullStreetAddress() string {
	apt := ""
	if h.Apt != nil {
		apt = *h.Apt
	}
	return h.StreetNumber + " " + h.Street + " #" + apt
}

// SaleRow is the 8-column projection of a sold event written to sinks.
type SaleRow struct {
	Address   string
	EventType EventType
	Date      string
	Sqft      int
	Bed       float64
	Bath      float64
	Price     string
	URL       string
}

// SaleRows projects every sold event of the record, preserving history order.
func SaleRows(h HouseMetadata) []SaleRow {
	var rows []SaleRow
	for _, event := range h.PriceHistory {
		if event.Type != EventSold {
			continue
		}
		row := SaleRow{
			Address:   h.FullStreetAddress(),
			EventType: event.Type,
			Date:      event.Date,
			Price:     event.Price,
		}
		if h.Sqft != nil {
			row.Sqft = *h.Sqft
		}
		if h.Bed != nil {
			row.Bed = *h.Bed
		}
		if h.Bath != nil {
			row.Bath = *h.Bath
		}
		if h.URL != nil {
			row.URL = *h.URL
		}
		rows = append(rows, row)
	}
	return rows
}

// Record renders the row as CSV fields in column order:
// address, eventType, date, sqft, bed, bath, price, url.
func (r SaleRow) Record() []string {
	return []string{
		r.Address,
		r.EventType.String(),
		r.Date,
		strconv.Itoa(r.Sqft),
		formatCount(r.Bed),
		formatCount(r.Bath),
		r.Price,
		r.URL,
	}
}

// formatCount keeps one decimal for whole numbers so "3" reads as "3.0".
func formatCount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
