package sim

import (
	"strconv"
	"strings"
)

// A Named object has a hierarchical name such as "System.RPO.DownPort".
type Named interface {
	Name() string
}

// NameMustBeValid panics if the name does not follow the naming convention:
// dot-separated, capitalized CamelCase elements, with series elements indexed
// using square brackets (e.g., "SER.CS[3]").
func NameMustBeValid(name string) {
	defer func() {
		if r := recover(); r != nil {
			panic("name " + name + " is not valid: " + r.(string))
		}
	}()

	for _, token := range strings.Split(name, ".") {
		nameTokenMustBeValid(token)
	}
}

func nameTokenMustBeValid(token string) {
	elem, indices := splitNameToken(token)

	if elem == "" {
		panic("name element must not be empty")
	}

	for _, c := range []string{"_", "\"", "'", "-"} {
		if strings.Contains(elem, c) {
			panic("name element must not contain " + c)
		}
	}

	if elem[0] < 'A' || elem[0] > 'Z' {
		panic("name element must start with a capital letter")
	}

	for _, index := range indices {
		if _, err := strconv.Atoi(index); err != nil {
			panic("name index must be an integer")
		}
	}
}

func splitNameToken(token string) (elem string, indices []string) {
	parts := strings.Split(token, "[")
	elem = parts[0]

	for _, p := range parts[1:] {
		if !strings.HasSuffix(p, "]") {
			panic("name bracket must match")
		}

		indices = append(indices, strings.TrimSuffix(p, "]"))
	}

	return elem, indices
}

// BuildName builds a hierarchical name from a parent name and an element
// name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex builds a hierarchical name for an element in a series.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName,
		elementName+"["+strconv.Itoa(index)+"]")
}
