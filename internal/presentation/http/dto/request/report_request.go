package request

// DateRangeRequest is an inclusive day range in YYYY-MM-DD form
type DateRangeRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}
