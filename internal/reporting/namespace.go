package reporting

import "github.com/beevik/etree"

// Normalize rewrites every element below the root to use the root's
// namespace prefix and removes their namespace declarations, so the TRX
// namespace is declared once, on the root. Calling it again changes nothing.
func Normalize(doc *etree.Document) {
	root := doc.Root()
	if root == nil {
		return
	}
	for _, child := range root.ChildElements() {
		normalizeElement(child, root.Space)
	}
}

// normalizeElement visits children before their parent.
func normalizeElement(el *etree.Element, space string) {
	for _, child := range el.ChildElements() {
		normalizeElement(child, space)
	}

	el.Space = space

	kept := el.Attr[:0]
	for _, attr := range el.Attr {
		if isNamespaceDeclaration(attr) {
			continue
		}
		kept = append(kept, attr)
	}
	el.Attr = kept
}

func isNamespaceDeclaration(attr etree.Attr) bool {
	return (attr.Space == "" && attr.Key == "xmlns") || attr.Space == "xmlns"
}
