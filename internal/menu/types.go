// Package menu holds the normalized flight-menu domain model shared by the
// API client, the web/CLI surfaces, and the watch poller. Everything here is
// a plain value; all I/O lives in the packages that produce or consume it.
package menu

import "time"

// DefaultCarrier is assumed when a query does not name an operating carrier.
const DefaultCarrier = "DL"

// CabinCodes upstream knows about. C=Delta One/Business, F=Premium Select/First,
// W=Comfort+, Y=Main Cabin.
var CabinCodes = []string{"C", "F", "W", "Y"}

// KnownCabin reports whether code is one of the upstream cabin codes.
func KnownCabin(code string) bool {
	for _, c := range CabinCodes {
		if c == code {
			return true
		}
	}
	return false
}

// Query identifies one flight leg to fetch a menu for. Immutable once built.
type Query struct {
	DepartureDate    time.Time `json:"departureDate"`
	FlightNumber     int       `json:"flightNumber"`
	DepartureAirport string    `json:"departureAirport"`
	OperatingCarrier string    `json:"operatingCarrier"`

	// CabinCodes optionally restricts the returned menu services.
	CabinCodes []string `json:"cabinCodes,omitempty"`
}

// FlightMenu is the normalized result of a menu lookup. Success=false means the
// upstream answered but had no usable menu data; ErrorMessage is then set and
// Services is empty. Transport and protocol failures are reported as errors by
// the client instead, never through this struct.
type FlightMenu struct {
	Carrier          string    `json:"carrier"`
	FlightNumber     int       `json:"flightNumber"`
	DepartureDate    time.Time `json:"departureDate"`
	DepartureAirport string    `json:"departureAirport"`
	ArrivalAirport   string    `json:"arrivalAirport,omitempty"`
	ArrivalDate      string    `json:"arrivalDate,omitempty"`

	Services []Service `json:"menuServices"`

	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Service is the cabin-scoped container of menus plus preselect metadata.
// The preselect window bounds are upstream UTC timestamps passed through
// verbatim; they are nil when the cabin has no preselect offering.
type Service struct {
	CabinCode       string `json:"cabinCode"`
	CabinDesc       string `json:"cabinDesc,omitempty"`
	WelcomeMessage  string `json:"welcomeMessage,omitempty"`
	ServiceNote     string `json:"serviceNote,omitempty"`
	ServiceTypeDesc string `json:"serviceTypeDesc,omitempty"`

	PreselectWindowStart *string `json:"preselectWindowStart,omitempty"`
	PreselectWindowEnd   *string `json:"preselectWindowEnd,omitempty"`

	Menus []Menu `json:"menus"`
}

// Menu is one meal or beverage grouping within a cabin, e.g. "Dinner" or "Wines".
type Menu struct {
	CourseDesc  string `json:"courseDesc,omitempty"`
	ServiceDesc string `json:"serviceDesc,omitempty"`
	TypeDesc    string `json:"typeDesc,omitempty"`
	Items       []Item `json:"menuItems"`
}

// Item is a single orderable menu entry.
type Item struct {
	Description    string              `json:"description"`
	AdditionalDesc string              `json:"additionalDesc,omitempty"`
	Category       string              `json:"category,omitempty"`
	Dietary        []DietaryAssignment `json:"dietary,omitempty"`
	SSRCode        string              `json:"ssrCode,omitempty"`
	PreSelect      *bool               `json:"preSelect,omitempty"`
	ImageURL       string              `json:"imageUrl,omitempty"`
}

// DietaryAssignment references the static SSR dictionary by code; the
// description is whatever the upstream sent alongside it.
type DietaryAssignment struct {
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

// FlightLeg identifies one leg in an availability request. The json tags match
// the upstream wire format so the slice can be posted as-is.
type FlightLeg struct {
	OperatingCarrier string `json:"operatingCarrierCode"`
	FlightNumber     int    `json:"flightNum"`
	DepartureAirport string `json:"flightDepartureAirportCode"`
	DepartureDate    string `json:"departureLocalDate"`
}

// AvailabilityResult reports, per requested leg, which cabins offer digital or
// pre-select menus. It is structural reshaping of the upstream answer only.
type AvailabilityResult struct {
	Legs []LegAvailability `json:"flightLegs"`
}

type LegAvailability struct {
	OperatingCarrier string `json:"operatingCarrierCode"`
	FlightNumber     int    `json:"flightNum"`
	DepartureAirport string `json:"flightDepartureAirportCode"`
	DepartureDate    string `json:"departureLocalDate"`
	Status           string `json:"status,omitempty"`

	Cabins []CabinAvailability `json:"cabins"`
}

type CabinAvailability struct {
	CabinCode            string  `json:"cabinCode"`
	CabinDesc            string  `json:"cabinDesc,omitempty"`
	PreSelectAvailable   bool    `json:"preSelectAvailable"`
	DigitalMenuAvailable bool    `json:"digitalMenuAvailable"`
	PreselectWindowStart *string `json:"preselectWindowStart,omitempty"`
	PreselectWindowEnd   *string `json:"preselectWindowEnd,omitempty"`
}

// ValidationResult reports policy violations for a Query. Valid is true exactly
// when Issues is empty. Issues and Recommendations are index-aligned.
type ValidationResult struct {
	Valid           bool     `json:"isValid"`
	Issues          []string `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Query           Query    `json:"query"`
}
