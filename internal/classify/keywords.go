package classify

import (
	"regexp"
	"strings"
)

// Keyword lists are matched case-insensitively against an event's title,
// location, and description. The multilingual variants cover the languages
// the app ships in (English, German, Spanish, French).

var flightKeywords = []string{
	// generic
	"flight", "boarding", "departure", "departing", "arrival gate",
	"airport", "airline", "terminal", "check-in", "layover",
	// multilingual
	"flug", "abflug", "flughafen",
	"vuelo", "aeropuerto", "embarque",
	"vol ", "aéroport", "embarquement",
	// carriers
	"lufthansa", "united", "delta", "american airlines", "ryanair",
	"easyjet", "klm", "air france", "british airways", "emirates",
	"qatar airways", "turkish airlines", "swiss", "iberia", "vueling",
}

var focusKeywords = []string{
	"deep work", "focus", "no meetings", "writing", "heads down",
	"do not disturb", "dnd", "maker time", "study", "research block",
	"konzentration", "schreiben", "fokus",
	"trabajo profundo", "escritura",
	"travail profond",
}

var doctorKeywords = []string{
	"doctor", "dr.", "dentist", "dental", "clinic", "hospital",
	"physician", "physio", "therapy", "therapist", "checkup", "check-up",
	"medical", "vaccination", "blood test", "specialist",
	"arzt", "ärztin", "zahnarzt", "krankenhaus", "klinik", "impfung",
	"médico", "medico", "dentista", "cita médica",
	"docteur", "médecin", "hôpital",
}

// airportCodePattern matches standalone 3-letter uppercase IATA-style codes.
// Matching runs against the raw (un-lowercased) text: "FRA" is a signal,
// "fra" is not.
var airportCodePattern = regexp.MustCompile(`\b[A-Z]{3}\b`)

// codeStoplist filters all-caps English words that pass the IATA pattern
// but are almost never airport codes in calendar titles.
var codeStoplist = map[string]bool{
	"THE": true, "AND": true, "FOR": true, "NOT": true, "ALL": true,
	"NEW": true, "OFF": true, "OUT": true, "TBD": true, "FYI": true,
	"EOD": true, "ETA": true, "PTO": true, "OOO": true,
}

// matchKeywords returns the keywords from list found in text (already
// lowercased by the caller)
func matchKeywords(text string, list []string) []string {
	var matched []string
	for _, kw := range list {
		if strings.Contains(text, kw) {
			matched = append(matched, strings.TrimSpace(kw))
		}
	}
	return matched
}

// findAirportCodes extracts candidate airport codes from raw text
func findAirportCodes(text string) []string {
	seen := map[string]bool{}
	var codes []string
	for _, code := range airportCodePattern.FindAllString(text, -1) {
		if codeStoplist[code] || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}
