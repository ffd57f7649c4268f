package openfoodfacts

// SearchOptions holds the parameters for a product search
type SearchOptions struct {
	Terms       string
	PageSize    int
	CategoryTag string
	CountryTag  string
}

// SearchResponse represents the payload returned by the search endpoint
type SearchResponse struct {
	Count    int      `json:"count"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	Products []Record `json:"products"`
}

// Record represents a single product record as returned by the API.
// Most fields are free-form strings; Price, when present at all, is a
// string that may use a comma as the decimal separator.
type Record struct {
	Code          string   `json:"code"`
	ProductName   string   `json:"product_name"`
	Categories    string   `json:"categories"`
	CountriesTags []string `json:"countries_tags"`
	Brands        string   `json:"brands"`
	Quantity      string   `json:"quantity"`
	ImageURL      string   `json:"image_url"`
	Price         string   `json:"price"`
}

// productResponse wraps the per-barcode lookup payload. Status is 1
// when the product exists and 0 otherwise.
type productResponse struct {
	Code          string  `json:"code"`
	Status        int     `json:"status"`
	StatusVerbose string  `json:"status_verbose"`
	Product       *Record `json:"product"`
}
