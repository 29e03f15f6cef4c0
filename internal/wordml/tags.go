// Package wordml names the WordprocessingML elements and attributes the
// importer reads out of a .docx container.
package wordml

const (
	// NSMain is the WordprocessingML main namespace (prefix "w").
	NSMain = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	// NSWord2010 carries Word 2010 extensions such as paraId (prefix "w14").
	NSWord2010 = "http://schemas.microsoft.com/office/word/2010/wordml"
)

// DocumentPart is the archive member holding the main document body.
const DocumentPart = "word/document.xml"

// Extension is the container file extension the importer accepts.
const Extension = ".docx"

// Name is a namespaced element or attribute name.
type Name struct {
	Space string
	Local string
}

func (n Name) String() string {
	return "{" + n.Space + "}" + n.Local
}

// Roles the extractor cares about.
var (
	Body           = Name{NSMain, "body"}
	Paragraph      = Name{NSMain, "p"}
	ParagraphProps = Name{NSMain, "pPr"}
	Style          = Name{NSMain, "pStyle"}
	Justification  = Name{NSMain, "jc"}
	Val            = Name{NSMain, "val"}
	Run            = Name{NSMain, "r"}
	Text           = Name{NSMain, "t"}
	Break          = Name{NSMain, "br"}
	BreakType      = Name{NSMain, "type"}
	ParaID         = Name{NSWord2010, "paraId"}
)

// BreakPage is the w:type value of an explicit page break.
const BreakPage = "page"
