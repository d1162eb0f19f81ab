package search

// Query is the query string of a search. An empty q matches every file.
type Query struct {
	Query string `query:"q" json:"q" validate:"max=200"`
	Glob  string `query:"glob" json:"glob,omitempty" validate:"omitempty,relpath,max=255"`
}

type Response struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
	Count   int      `json:"count"`
}
