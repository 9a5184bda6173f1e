package export

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Field is a labelled scalar printed above the tables.
type Field struct {
	Label string
	Value string
}

// Section is a titled table.
type Section struct {
	Title string
	Data  Dataset
}

// Document is a single record rendered as header fields followed by tables.
type Document struct {
	Title    string
	Fields   []Field
	Sections []Section
}
