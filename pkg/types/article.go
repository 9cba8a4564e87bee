package types

// Article is a search record together with text captured from its page.
// Text is empty when the page could not be fetched.
type Article struct {
	Record SearchRecord
	Text   string
}

// Records returns the records of articles, in order.
func Records(articles []Article) ResultTable {
	out := make(ResultTable, len(articles))
	for i, a := range articles {
		out[i] = a.Record
	}
	return out
}
