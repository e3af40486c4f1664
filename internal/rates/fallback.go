package rates

// fallbackRates are approximate USD-relative rates served when the provider
// is unconfigured or unreachable. Not for real financial use.
var fallbackRates = map[string]float64{
	"USD": 1,
	"EUR": 0.92,
	"AOA": 825,
	"BIF": 2850,
	"CVE": 102,
	"XAF": 605,
	"KMF": 455,
	"CDF": 2700,
	"DJF": 177,
	"EGP": 47,
	"ERN": 15,
	"SZL": 18,
	"ETB": 57,
	"XOF": 605,
	"GMD": 65,
	"GHS": 13,
	"GNF": 8600,
	"KES": 130,
	"LSL": 18,
	"LRD": 190,
	"LYD": 4.8,
	"MGA": 4500,
	"MWK": 1700,
	"MRU": 39,
	"MUR": 46,
	"MAD": 10,
	"MZN": 64,
	"NAD": 18,
	"NGN": 1400,
	"RWF": 1300,
	"STN": 22,
	"SCR": 13,
	"SLE": 22,
	"SLL": 22000,
	"SOS": 570,
	"ZAR": 18,
	"SSP": 1500,
	"SDG": 600,
	"TZS": 2600,
	"TND": 3.1,
	"UGX": 3800,
	"ZMW": 25,
	"ZWL": 13,
}

// currencyNames lists the currencies the API exposes. Live rates for codes
// missing here are dropped.
var currencyNames = map[string]string{
	"AED": "UAE Dirham",
	"AOA": "Angolan Kwanza",
	"ARS": "Argentine Peso",
	"AUD": "Australian Dollar",
	"BIF": "Burundian Franc",
	"BRL": "Brazilian Real",
	"CAD": "Canadian Dollar",
	"CDF": "Congolese Franc",
	"CHF": "Swiss Franc",
	"CNY": "Chinese Yuan",
	"CVE": "Cape Verdean Escudo",
	"DJF": "Djiboutian Franc",
	"DZD": "Algerian Dinar",
	"EGP": "Egyptian Pound",
	"ERN": "Eritrean Nakfa",
	"ETB": "Ethiopian Birr",
	"EUR": "Euro",
	"GBP": "British Pound Sterling",
	"GHS": "Ghanaian Cedi",
	"GMD": "Gambian Dalasi",
	"GNF": "Guinean Franc",
	"INR": "Indian Rupee",
	"JPY": "Japanese Yen",
	"KES": "Kenyan Shilling",
	"KMF": "Comorian Franc",
	"LRD": "Liberian Dollar",
	"LSL": "Lesotho Loti",
	"LYD": "Libyan Dinar",
	"MAD": "Moroccan Dirham",
	"MGA": "Malagasy Ariary",
	"MRU": "Mauritanian Ouguiya",
	"MUR": "Mauritian Rupee",
	"MWK": "Malawian Kwacha",
	"MXN": "Mexican Peso",
	"MZN": "Mozambican Metical",
	"NAD": "Namibian Dollar",
	"NGN": "Nigerian Naira",
	"RWF": "Rwandan Franc",
	"SAR": "Saudi Riyal",
	"SCR": "Seychellois Rupee",
	"SDG": "Sudanese Pound",
	"SLE": "Sierra Leonean Leone",
	"SLL": "Sierra Leonean Leone",
	"SOS": "Somali Shilling",
	"SSP": "South Sudanese Pound",
	"STN": "São Tomé & Príncipe Dobra",
	"SZL": "Eswatini Lilangeni",
	"TND": "Tunisian Dinar",
	"TRY": "Turkish Lira",
	"TZS": "Tanzanian Shilling",
	"UGX": "Ugandan Shilling",
	"USD": "United States Dollar",
	"XAF": "CFA Franc BEAC",
	"XOF": "CFA Franc BCEAO",
	"ZAR": "South African Rand",
	"ZMW": "Zambian Kwacha",
	"ZWL": "Zimbabwean Dollar",
}

// Fallback returns a copy of the static table.
func Fallback() Rates {
	r := Rates{
		Base:   BaseCurrency,
		Rates:  make(map[string]float64, len(fallbackRates)),
		Names:  make(map[string]string, len(fallbackRates)),
		Source: SourceFallback,
	}
	for code, rate := range fallbackRates {
		r.Rates[code] = rate
		if name, ok := currencyNames[code]; ok {
			r.Names[code] = name
		}
	}
	return r
}
