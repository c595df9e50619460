package locale

type Country struct {
	Code          string   // ISO 3166-1 alpha-2, e.g. "TR"
	Name          string   // the name the rental vendor expects in its Country field
	PhonePrefixes []string // E.164 calling code prefixes, e.g. ["+90"]
}

// Countries covers the renter markets the vendor serves.
var Countries = map[string]Country{
	"TR": {Code: "TR", Name: "Turkey", PhonePrefixes: []string{"+90"}},
	"DE": {Code: "DE", Name: "Germany", PhonePrefixes: []string{"+49"}},
	"GB": {Code: "GB", Name: "United Kingdom", PhonePrefixes: []string{"+44"}},
	"NL": {Code: "NL", Name: "Netherlands", PhonePrefixes: []string{"+31"}},
	"RU": {Code: "RU", Name: "Russia", PhonePrefixes: []string{"+7"}},
	"AZ": {Code: "AZ", Name: "Azerbaijan", PhonePrefixes: []string{"+994"}},
	"US": {Code: "US", Name: "United States", PhonePrefixes: []string{"+1"}},
}
