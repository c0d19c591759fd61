package inventory

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var fold = cases.Fold()

// ItemKey normaliza el nombre de un ítem para usarlo como identidad dentro del ledger:
// NFC (las marcas tonales tailandesas pueden llegar en distinto orden), espacios
// colapsados y case folding.
func ItemKey(name string) string {
	n := norm.NFC.String(strings.TrimSpace(name))
	n = strings.Join(strings.Fields(n), " ")
	return fold.String(n)
}

// CleanName normaliza el nombre para mostrar sin alterar mayúsculas.
func CleanName(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}
