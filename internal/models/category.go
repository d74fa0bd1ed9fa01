package models

// Category is a fixed help category. The string value is part of the external
// contract and is stored as is.
type Category string

const (
	CategoryChildren Category = "children"
	CategoryElderly  Category = "elderly"
	CategoryDisabled Category = "disabled"
	CategoryAnimals  Category = "animals"
	CategoryNature   Category = "nature"
)

// Categories lists every category in menu order.
var Categories = []Category{
	CategoryChildren,
	CategoryElderly,
	CategoryDisabled,
	CategoryAnimals,
	CategoryNature,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
