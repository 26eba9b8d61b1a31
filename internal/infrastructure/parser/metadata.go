package parser

import (
	"encoding/json"
	"errors"
	"fmt"

	"SalesScanner/internal/domain"
)

const decodeOp = "decode house metadata"

type metadataPayload struct {
	Result *resultPayload `json:"result"`
}

type resultPayload struct {
	Sqft         *int                  `json:"sq"`
	StreetNumber *string               `json:"stn"`
	Street       *string               `json:"str"`
	Apt          *string               `json:"apt"`
	URL          *string               `json:"murl"`
	Bed          *float64              `json:"bd"`
	Bath         *float64              `json:"ba"`
	PriceHistory []priceHistoryPayload `json:"prh"`
}

type priceHistoryPayload struct {
	Date  *string `json:"date"`
	Price *string `json:"price"`
	Type  *string `json:"type"`
}

// DecodeHouseMetadata decodes a detail API response. Missing required fields
// are decode failures; optional ones stay nil.
func DecodeHouseMetadata(data []byte) (domain.HouseMetadata, error) {
	var payload metadataPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return domain.HouseMetadata{}, domain.Decode(decodeOp, err)
	}

	r := payload.Result
	if r == nil {
		return domain.HouseMetadata{}, domain.Decode(decodeOp, errors.New(`missing field "result"`))
	}
	if r.StreetNumber == nil {
		return domain.HouseMetadata{}, domain.Decode(decodeOp, errors.New(`missing field "stn"`))
	}
	if r.Street == nil {
		return domain.HouseMetadata{}, domain.Decode(decodeOp, errors.New(`missing field "str"`))
	}

	record := domain.HouseMetadata{
		StreetNumber: *r.StreetNumber,
		Street:       *r.Street,
		Apt:          r.Apt,
		Sqft:         r.Sqft,
		Bed:          r.Bed,
		Bath:         r.Bath,
		URL:          r.URL,
	}

	for i, entry := range r.PriceHistory {
		switch {
		case entry.Date == nil:
			return domain.HouseMetadata{}, domain.Decode(decodeOp, fmt.Errorf(`prh[%d]: missing field "date"`, i))
		case entry.Price == nil:
			return domain.HouseMetadata{}, domain.Decode(decodeOp, fmt.Errorf(`prh[%d]: missing field "price"`, i))
		case entry.Type == nil:
			return domain.HouseMetadata{}, domain.Decode(decodeOp, fmt.Errorf(`prh[%d]: missing field "type"`, i))
		}
		record.PriceHistory = append(record.PriceHistory, domain.PriceHistoryEvent{
			Date:  *entry.Date,
			Price: *entry.Price,
			Type:  domain.ParseEventType(*entry.Type),
		})
	}

	return record, nil
}
