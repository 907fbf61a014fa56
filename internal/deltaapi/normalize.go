package deltaapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/example/flightmenu/internal/menu"
)

// Wire DTOs for the menu service. Every field is optional by construction:
// absent keys decode to zero values and unknown keys are ignored, so partial
// payloads never abort normalization.

type menuPayload struct {
	Error       string           `json:"error"`
	FlightMenus []flightMenuWire `json:"flightMenus"`
}

type flightMenuWire struct {
	OperatingCarrierCode       string            `json:"operatingCarrierCode"`
	FlightNum                  int               `json:"flightNum"`
	DepartureLocalDate         string            `json:"departureLocalDate"`
	FlightDepartureAirportCode string            `json:"flightDepartureAirportCode"`
	FlightArrivalAirportCode   string            `json:"flightArrivalAirportCode"`
	ArrivalLocalDate           string            `json:"arrivalLocalDate"`
	MenuServices               []menuServiceWire `json:"menuServices"`
}

type menuServiceWire struct {
	CabinTypeCode                  string     `json:"cabinTypeCode"`
	CabinTypeDesc                  string     `json:"cabinTypeDesc"`
	CabinWelcomeMessage            string     `json:"cabinWelcomeMessage"`
	MenuServiceNote                string     `json:"menuServiceNote"`
	PrimaryMenuServiceTypeDesc     string     `json:"primaryMenuServiceTypeDesc"`
	CabinPreselectWindowStartUtcTs *string    `json:"cabinPreselectWindowStartUtcTs"`
	CabinPreselectWindowEndUtcTs   *string    `json:"cabinPreselectWindowEndUtcTs"`
	Menus                          []menuWire `json:"menus"`
}

type menuWire struct {
	MenuCourseDesc  string         `json:"menuCourseDesc"`
	MenuServiceDesc string         `json:"menuServiceDesc"`
	MenuTypeDesc    string         `json:"menuTypeDesc"`
	MenuItems       []menuItemWire `json:"menuItems"`
}

type menuItemWire struct {
	MenuItemDesc           string        `json:"menuItemDesc"`
	MenuItemAdditionalDesc string        `json:"menuItemAdditionalDesc"`
	MenuItemTypeName       string        `json:"menuItemTypeName"`
	SsrCode                string        `json:"ssrCode"`
	PreSelectInd           *bool         `json:"preSelectInd"`
	MenuItemImageUrl       string        `json:"menuItemImageUrl"`
	MenuItemDietaryAsgmts  []dietaryWire `json:"menuItemDietaryAsgmts"`
}

type dietaryWire struct {
	MenuItemDietaryCd   string `json:"menuItemDietaryCd"`
	MenuItemDietaryDesc string `json:"menuItemDietaryDesc"`
}

// normalizeMenuResponse maps an upstream 200 body into the domain model. A
// payload without the flightMenus collection is a domain failure reported as a
// success=false value; only an undecodable body becomes an error, and then an
// *APIError rather than a raw decode fault.
func normalizeMenuResponse(raw []byte, q menu.Query) (menu.FlightMenu, error) {
	out := menu.FlightMenu{
		Carrier:          q.OperatingCarrier,
		FlightNumber:     q.FlightNumber,
		DepartureDate:    q.DepartureDate,
		DepartureAirport: q.DepartureAirport,
		// Empty, never nil: success=false must render menuServices as [] too.
		Services: []menu.Service{},
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		out.ErrorMessage = "Empty or invalid response from API"
		return out, nil
	}

	var p menuPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return menu.FlightMenu{}, &APIError{
			Status: http.StatusOK,
			Body:   fmt.Sprintf("unparseable menu payload: %v", err),
		}
	}

	if len(p.FlightMenus) == 0 {
		if p.Error != "" {
			out.ErrorMessage = p.Error
		} else {
			out.ErrorMessage = "Empty or invalid response from API"
		}
		return out, nil
	}

	// The service returns at most one entry for a flight+date+airport+carrier
	// query; anything past the first is ignored.
	entry := p.FlightMenus[0]
	out.ArrivalAirport = entry.FlightArrivalAirportCode
	out.ArrivalDate = entry.ArrivalLocalDate

	services := make([]menu.Service, 0, len(entry.MenuServices))
	for _, sw := range entry.MenuServices {
		services = append(services, normalizeService(sw))
	}
	out.Services = menu.FilterServices(services, q.CabinCodes)
	if out.Services == nil {
		out.Services = []menu.Service{}
	}
	out.Success = true
	return out, nil
}

func normalizeService(sw menuServiceWire) menu.Service {
	s := menu.Service{
		CabinCode:            sw.CabinTypeCode,
		CabinDesc:            sw.CabinTypeDesc,
		WelcomeMessage:       sw.CabinWelcomeMessage,
		ServiceNote:          sw.MenuServiceNote,
		ServiceTypeDesc:      sw.PrimaryMenuServiceTypeDesc,
		PreselectWindowStart: sw.CabinPreselectWindowStartUtcTs,
		PreselectWindowEnd:   sw.CabinPreselectWindowEndUtcTs,
		Menus:                make([]menu.Menu, 0, len(sw.Menus)),
	}
	for _, mw := range sw.Menus {
		m := menu.Menu{
			CourseDesc:  mw.MenuCourseDesc,
			ServiceDesc: mw.MenuServiceDesc,
			TypeDesc:    mw.MenuTypeDesc,
			Items:       make([]menu.Item, 0, len(mw.MenuItems)),
		}
		for _, iw := range mw.MenuItems {
			m.Items = append(m.Items, normalizeItem(iw))
		}
		s.Menus = append(s.Menus, m)
	}
	return s
}

func normalizeItem(iw menuItemWire) menu.Item {
	item := menu.Item{
		Description:    iw.MenuItemDesc,
		AdditionalDesc: iw.MenuItemAdditionalDesc,
		Category:       iw.MenuItemTypeName,
		SSRCode:        iw.SsrCode,
		PreSelect:      iw.PreSelectInd,
		ImageURL:       iw.MenuItemImageUrl,
	}
	for _, dw := range iw.MenuItemDietaryAsgmts {
		if dw.MenuItemDietaryCd == "" && dw.MenuItemDietaryDesc == "" {
			continue
		}
		item.Dietary = append(item.Dietary, menu.DietaryAssignment{
			Code:        dw.MenuItemDietaryCd,
			Description: dw.MenuItemDietaryDesc,
		})
	}
	return item
}

// Availability wire DTOs.

type availabilityPayload struct {
	FlightLegs *[]availabilityLegWire `json:"flightLegs"`
}

type availabilityLegWire struct {
	OperatingCarrierCode       string                  `json:"operatingCarrierCode"`
	FlightNum                  int                     `json:"flightNum"`
	FlightDepartureAirportCode string                  `json:"flightDepartureAirportCode"`
	DepartureLocalDate         string                  `json:"departureLocalDate"`
	Status                     any                     `json:"status"`
	Cabins                     []availabilityCabinWire `json:"cabins"`
}

type availabilityCabinWire struct {
	CabinTypeCode                  string  `json:"cabinTypeCode"`
	CabinTypeDesc                  string  `json:"cabinTypeDesc"`
	PreSelectMenuAvailable         bool    `json:"preSelectMenuAvailable"`
	DigitalMenuAvailable           bool    `json:"digitalMenuAvailable"`
	CabinPreselectWindowStartUtcTs *string `json:"cabinPreselectWindowStartUtcTs"`
	CabinPreselectWindowEndUtcTs   *string `json:"cabinPreselectWindowEndUtcTs"`
}

// normalizeAvailabilityResponse reshapes the availability payload without any
// semantic derivation: booleans and window timestamps pass through unchanged.
func normalizeAvailabilityResponse(raw []byte) (menu.AvailabilityResult, error) {
	var p availabilityPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return menu.AvailabilityResult{}, &APIError{
			Status: http.StatusOK,
			Body:   fmt.Sprintf("unparseable availability payload: %v", err),
		}
	}
	if p.FlightLegs == nil {
		return menu.AvailabilityResult{}, &APIError{
			Status: http.StatusOK,
			Body:   "invalid availability response format: missing flightLegs",
		}
	}

	out := menu.AvailabilityResult{Legs: make([]menu.LegAvailability, 0, len(*p.FlightLegs))}
	for _, lw := range *p.FlightLegs {
		leg := menu.LegAvailability{
			OperatingCarrier: lw.OperatingCarrierCode,
			FlightNumber:     lw.FlightNum,
			DepartureAirport: lw.FlightDepartureAirportCode,
			DepartureDate:    lw.DepartureLocalDate,
			Status:           stringify(lw.Status),
			Cabins:           make([]menu.CabinAvailability, 0, len(lw.Cabins)),
		}
		for _, cw := range lw.Cabins {
			leg.Cabins = append(leg.Cabins, menu.CabinAvailability{
				CabinCode:            cw.CabinTypeCode,
				CabinDesc:            cw.CabinTypeDesc,
				PreSelectAvailable:   cw.PreSelectMenuAvailable,
				DigitalMenuAvailable: cw.DigitalMenuAvailable,
				PreselectWindowStart: cw.CabinPreselectWindowStartUtcTs,
				PreselectWindowEnd:   cw.CabinPreselectWindowEndUtcTs,
			})
		}
		out.Legs = append(out.Legs, leg)
	}
	return out, nil
}

// stringify flattens the upstream status field, which has been observed as
// both a string and a number.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
