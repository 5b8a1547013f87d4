// Package directory extracts business records from a municipal directory page.
//
// # Components
//
//   - Parser: turns the directory document into a lazy sequence of
//     model.BusinessRecord values, one per business block
//   - Selectors: the structural signature of a business block and its fields
//   - ResolveWebsite: turns a raw website href into a URL worth fetching
//   - VisibleText: concatenates every text node of a page, used as the input
//     of phone extraction
//
// # Absence
//
// Directory listings are hand-maintained, so fields come and go. A missing or
// blank field is represented as nil in the record; it is never an error and
// never stops the other fields or the other blocks from being extracted.
//
// # Usage
//
//	parser, err := directory.NewParser("https://www.cityofdoral.com/businesses/local-discounts/")
//	doc, err := parser.Parse(body)
//	for rec := range parser.Records(doc) {
//		// ...
//	}
package directory
