package recipes

// Kind selects between the two owner-scoped attribute tables.
type Kind string

const (
	KindTag        Kind = "tag"
	KindIngredient Kind = "ingredient"
)

func (k Kind) Valid() bool {
	return k == KindTag || k == KindIngredient
}

func (k Kind) String() string {
	return string(k)
}
