package internal

// SearchParams defines the arguments available for searching Tasks.
type SearchParams struct {
	Title     *string
	Completed *bool
	From      int64
	Size      int64
}

// IsZero determines whether the search arguments have values or not.
func (a SearchParams) IsZero() bool {
	return a.Title == nil && a.Completed == nil
}

// SearchResults defines the collection of tasks that were found.
type SearchResults struct {
	Tasks []Task
	Total int64
}
